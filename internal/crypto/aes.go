package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 16
	keySize  = 32

	// scrypt cost parameters, the interactive-login recommendation.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var ErrDecrypt = errors.New("unable to decrypt token: wrong passphrase or corrupted data")

// deriveKey stretches passphrase into an AES-256 key.
func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase must not be empty")
	}
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// EncryptToken seals token with a key derived from passphrase.
// The result is base64(salt || nonce || ciphertext) and is safe to store in config.yaml.
func EncryptToken(token, passphrase string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(token)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, []byte(token), salt)
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptToken reverses EncryptToken.
func DecryptToken(encryptedTokenB64, passphrase string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encryptedTokenB64)
	if err != nil {
		return "", fmt.Errorf("failed to base64 decode ciphertext: %w", err)
	}
	if len(data) < saltSize {
		return "", ErrDecrypt
	}
	salt, rest := data[:saltSize], data[saltSize:]

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize()+gcm.Overhead() {
		return "", ErrDecrypt
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, salt)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
