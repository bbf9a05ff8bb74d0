package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"pinboardapi/internal/config"
	"pinboardapi/internal/crypto"
	"pinboardapi/internal/logger"
	"pinboardapi/internal/pagemeta"
	"pinboardapi/pinboard"
)

// App holds the command-line tool's dependencies and configuration.
type App struct {
	Config         *config.Config
	PinboardClient pinboard.ClientInterface
	PageClient     *http.Client
	Logger         *logger.Logger
	Out            io.Writer
}

// Option is a functional option for configuring the App.
type Option func(*App)

// NewApp creates a new App instance with the given options.
func NewApp(opts ...Option) *App {
	app := &App{
		PageClient: &http.Client{Timeout: 10 * time.Second},
		Out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithPinboardClient sets the Pinboard API client.
func WithPinboardClient(client pinboard.ClientInterface) Option {
	return func(a *App) {
		a.PinboardClient = client
	}
}

// WithPageClient sets the http.Client used to fetch pages for their title.
func WithPageClient(client *http.Client) Option {
	return func(a *App) {
		a.PageClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithOutput sets where command results are written.
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.Out = w
	}
}

// NewPinboardClient builds the API client described by cfg, decrypting the
// API token when the config holds an encrypted one.
func NewPinboardClient(cfg *config.Config, l *logger.Logger) (*pinboard.Client, error) {
	creds := pinboard.Credentials{User: cfg.Pinboard.User}
	if cfg.Pinboard.Token != "" || cfg.Pinboard.EncryptedToken != "" {
		token, err := cfg.APIToken()
		if err != nil {
			return nil, err
		}
		creds.Token = token
	}
	return newClient(cfg, creds, l)
}

// NewLoginClient builds a client for calls that authenticate with a password,
// such as AccessToken. The configured API token is never read, so a missing
// or undecryptable token does not get in the way.
func NewLoginClient(cfg *config.Config, l *logger.Logger) (*pinboard.Client, error) {
	return newClient(cfg, pinboard.Credentials{User: cfg.Pinboard.User}, l)
}

func newClient(cfg *config.Config, creds pinboard.Credentials, l *logger.Logger) (*pinboard.Client, error) {
	opts := []pinboard.Option{pinboard.WithTimeout(cfg.Pinboard.Timeout)}
	if l != nil {
		opts = append(opts, pinboard.WithLogger(l))
	}
	return pinboard.NewClient(cfg.Pinboard.Host, creds, opts...)
}

type doneResponse struct {
	Result string `json:"result"`
}

var done = doneResponse{Result: "done"}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// LastUpdate prints the time of the most recent change to the account.
func (a *App) LastUpdate(ctx context.Context) error {
	t, err := a.PinboardClient.LastUpdate(ctx)
	if err != nil {
		return err
	}
	return a.writeJSON(map[string]time.Time{"update_time": t})
}

// AddRequest is the input of the add command.
type AddRequest struct {
	URL   string
	Title string
	// FetchTitle looks the title up on the page itself when Title is empty.
	FetchTitle bool
	Options    pinboard.AddOptions
}

// Add adds a bookmark.
func (a *App) Add(ctx context.Context, req AddRequest) error {
	title := req.Title
	if title == "" && req.FetchTitle {
		fetched, err := pagemeta.FetchTitle(ctx, a.PageClient, req.URL)
		if err != nil {
			a.Logger.Warnf("Could not fetch title for %s, using the URL instead: %v", req.URL, err)
			fetched = req.URL
		}
		title = truncateTitle(fetched)
	}

	if err := a.PinboardClient.AddBookmark(ctx, req.URL, title, req.Options); err != nil {
		return err
	}
	a.Logger.Infof("Added %s as %q", req.URL, title)
	return a.writeJSON(done)
}

// truncateTitle shortens a title found on its own to what posts/add accepts.
// Titles given explicitly are left alone and fail validation when too long.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= pinboard.MaxTitleLength {
		return title
	}
	return string(runes[:pinboard.MaxTitleLength])
}

// Delete deletes the bookmark for bookmarkURL.
func (a *App) Delete(ctx context.Context, bookmarkURL string) error {
	if err := a.PinboardClient.DeleteBookmark(ctx, bookmarkURL); err != nil {
		return err
	}
	a.Logger.Infof("Deleted %s", bookmarkURL)
	return a.writeJSON(done)
}

// Recent prints the most recent bookmarks.
func (a *App) Recent(ctx context.Context, opts pinboard.RecentOptions) error {
	list, err := a.PinboardClient.Recent(ctx, opts)
	if err != nil {
		return err
	}
	return a.writeJSON(list)
}

// All prints every bookmark matching opts. When ifChangedSince is set and the
// account has not changed since then, nothing is fetched and an empty list is
// printed.
func (a *App) All(ctx context.Context, opts pinboard.AllOptions, ifChangedSince time.Time) error {
	if !ifChangedSince.IsZero() {
		updated, err := a.PinboardClient.LastUpdate(ctx)
		if err != nil {
			return err
		}
		if !updated.After(ifChangedSince) {
			a.Logger.Infof("No changes since %s (last update %s)", ifChangedSince.Format(time.RFC3339), updated.Format(time.RFC3339))
			return a.writeJSON([]pinboard.Post{})
		}
	}

	posts, err := a.PinboardClient.All(ctx, opts)
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []pinboard.Post{}
	}
	a.Logger.Debugf("Fetched %d bookmarks", len(posts))
	return a.writeJSON(posts)
}

// Get prints the bookmarks of a single day.
func (a *App) Get(ctx context.Context, opts pinboard.GetOptions) error {
	list, err := a.PinboardClient.GetPosts(ctx, opts)
	if err != nil {
		return err
	}
	return a.writeJSON(list)
}

// Dates prints the number of bookmarks per day.
func (a *App) Dates(ctx context.Context, opts pinboard.DatesOptions) error {
	dates, err := a.PinboardClient.Dates(ctx, opts)
	if err != nil {
		return err
	}
	return a.writeJSON(dates)
}

// Suggest prints tag suggestions for bookmarkURL.
func (a *App) Suggest(ctx context.Context, bookmarkURL string) error {
	s, err := a.PinboardClient.Suggest(ctx, bookmarkURL)
	if err != nil {
		return err
	}
	return a.writeJSON(s)
}

// Tags prints every tag with its use count.
func (a *App) Tags(ctx context.Context) error {
	tags, err := a.PinboardClient.Tags(ctx)
	if err != nil {
		return err
	}
	return a.writeJSON(tags)
}

// DeleteTag removes a tag from every bookmark.
func (a *App) DeleteTag(ctx context.Context, tag string) error {
	if err := a.PinboardClient.DeleteTag(ctx, tag); err != nil {
		return err
	}
	a.Logger.Infof("Deleted tag %s", tag)
	return a.writeJSON(done)
}

// RenameTag renames a tag.
func (a *App) RenameTag(ctx context.Context, oldName, newName string) error {
	if err := a.PinboardClient.RenameTag(ctx, oldName, newName); err != nil {
		return err
	}
	a.Logger.Infof("Renamed tag %s to %s", oldName, newName)
	return a.writeJSON(done)
}

// Notes lists the user's notes.
func (a *App) Notes(ctx context.Context) error {
	list, err := a.PinboardClient.Notes(ctx)
	if err != nil {
		return err
	}
	return a.writeJSON(list)
}

// Note prints one note.
func (a *App) Note(ctx context.Context, id string) error {
	note, err := a.PinboardClient.Note(ctx, id)
	if err != nil {
		return err
	}
	return a.writeJSON(note)
}

// Secret prints the RSS secret.
func (a *App) Secret(ctx context.Context) error {
	secret, err := a.PinboardClient.Secret(ctx)
	if err != nil {
		return err
	}
	return a.writeJSON(doneResponse{Result: secret})
}

// AccessToken fetches the API token for login and prints it.
func (a *App) AccessToken(ctx context.Context, login pinboard.Login) error {
	token, err := a.PinboardClient.AccessToken(ctx, login)
	if err != nil {
		return err
	}
	return a.writeJSON(map[string]string{
		"token":      token,
		"auth_token": pinboard.Credentials{User: login.User, Token: token}.AuthString(),
	})
}

// EncryptToken prints token encrypted with passphrase, ready for
// pinboard.encrypted_token in the config file.
func (a *App) EncryptToken(token, passphrase string) error {
	if token == "" || passphrase == "" {
		return errors.New("both a token and a passphrase are required")
	}
	encrypted, err := crypto.EncryptToken(token, passphrase)
	if err != nil {
		return err
	}
	return a.writeJSON(map[string]string{"encrypted_token": encrypted})
}
