package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"pinboardapi/internal/crypto"
	"pinboardapi/pinboard"
)

// EnvPrefix marks environment variables that override config keys, e.g.
// PINBOARD_TOKEN sets pinboard.token and PINBOARD_LOG_LEVEL sets log_level.
const EnvPrefix = "PINBOARD_"

type ConfigPinboard struct {
	Host           string        `koanf:"host" validate:"required,url"`
	User           string        `koanf:"user" validate:"required,excludes=:"`
	Token          string        `koanf:"token" validate:"required_without=EncryptedToken"`
	EncryptedToken string        `koanf:"encrypted_token" validate:"omitempty,base64"`
	Passphrase     string        `koanf:"passphrase" validate:"required_with=EncryptedToken"`
	Timeout        time.Duration `koanf:"timeout" validate:"min=0"`
}

type Config struct {
	Pinboard ConfigPinboard `koanf:"pinboard"`
	LogLevel string         `koanf:"log_level" validate:"oneof=error warn info debug"`
}

func (c *Config) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return fmt.Errorf("configuration validation failed: %v", validationErrors)
	}

	return err
}

// APIToken returns the plaintext API token, decrypting encrypted_token when
// no plaintext token is configured.
func (c *Config) APIToken() (string, error) {
	if c.Pinboard.Token != "" {
		return c.Pinboard.Token, nil
	}
	token, err := crypto.DecryptToken(c.Pinboard.EncryptedToken, c.Pinboard.Passphrase)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt pinboard.encrypted_token: %w", err)
	}
	return token, nil
}

// Load reads defaults, then the YAML file at path if it exists, then
// PINBOARD_* environment variables, and validates the result.
func Load(path string) (*Config, error) {
	k, err := load(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadUnvalidated is Load without validation, for commands such as
// encrypt-token and token that run before credentials exist.
func LoadUnvalidated(path string) (*Config, error) {
	k, err := load(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := setDefaultValues(k); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	return k, nil
}

// envKey maps PINBOARD_LOG_LEVEL to log_level and every other
// PINBOARD_<NAME> to pinboard.<name>.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "log_level" {
		return key
	}
	return "pinboard." + key
}

func setDefaultValues(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(map[string]any{
		"pinboard.host":    pinboard.DefaultBaseURL,
		"pinboard.timeout": "10s",
		"log_level":        "info",
	}, "."), nil)
}
