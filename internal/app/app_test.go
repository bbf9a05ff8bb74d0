package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"pinboardapi/internal/config"
	"pinboardapi/internal/crypto"
	"pinboardapi/internal/logger"
	"pinboardapi/pinboard"
)

var testLogger = logger.New(logger.DEBUG)

// mockPinboardClient is a mock implementation of pinboard.ClientInterface.
// Unset funcs fail the call.
type mockPinboardClient struct {
	LastUpdateFunc     func(ctx context.Context) (time.Time, error)
	AddBookmarkFunc    func(ctx context.Context, bookmarkURL, title string, opts pinboard.AddOptions) error
	DeleteBookmarkFunc func(ctx context.Context, bookmarkURL string) error
	RecentFunc         func(ctx context.Context, opts pinboard.RecentOptions) (*pinboard.PostList, error)
	AllFunc            func(ctx context.Context, opts pinboard.AllOptions) ([]pinboard.Post, error)
	GetPostsFunc       func(ctx context.Context, opts pinboard.GetOptions) (*pinboard.PostList, error)
	DatesFunc          func(ctx context.Context, opts pinboard.DatesOptions) ([]pinboard.DateCount, error)
	SuggestFunc        func(ctx context.Context, bookmarkURL string) (*pinboard.Suggestion, error)
	TagsFunc           func(ctx context.Context) ([]pinboard.Tag, error)
	DeleteTagFunc      func(ctx context.Context, tag string) error
	RenameTagFunc      func(ctx context.Context, oldName, newName string) error
	AccessTokenFunc    func(ctx context.Context, login pinboard.Login) (string, error)
	SecretFunc         func(ctx context.Context) (string, error)
	NotesFunc          func(ctx context.Context) (*pinboard.NoteList, error)
	NoteFunc           func(ctx context.Context, id string) (*pinboard.Note, error)
}

var errNotMocked = errors.New("not mocked")

func (m *mockPinboardClient) LastUpdate(ctx context.Context) (time.Time, error) {
	if m.LastUpdateFunc != nil {
		return m.LastUpdateFunc(ctx)
	}
	return time.Time{}, errNotMocked
}

func (m *mockPinboardClient) AddBookmark(ctx context.Context, bookmarkURL, title string, opts pinboard.AddOptions) error {
	if m.AddBookmarkFunc != nil {
		return m.AddBookmarkFunc(ctx, bookmarkURL, title, opts)
	}
	return errNotMocked
}

func (m *mockPinboardClient) DeleteBookmark(ctx context.Context, bookmarkURL string) error {
	if m.DeleteBookmarkFunc != nil {
		return m.DeleteBookmarkFunc(ctx, bookmarkURL)
	}
	return errNotMocked
}

func (m *mockPinboardClient) Recent(ctx context.Context, opts pinboard.RecentOptions) (*pinboard.PostList, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, opts)
	}
	return nil, errNotMocked
}

func (m *mockPinboardClient) All(ctx context.Context, opts pinboard.AllOptions) ([]pinboard.Post, error) {
	if m.AllFunc != nil {
		return m.AllFunc(ctx, opts)
	}
	return nil, errNotMocked
}

func (m *mockPinboardClient) GetPosts(ctx context.Context, opts pinboard.GetOptions) (*pinboard.PostList, error) {
	if m.GetPostsFunc != nil {
		return m.GetPostsFunc(ctx, opts)
	}
	return nil, errNotMocked
}

func (m *mockPinboardClient) Dates(ctx context.Context, opts pinboard.DatesOptions) ([]pinboard.DateCount, error) {
	if m.DatesFunc != nil {
		return m.DatesFunc(ctx, opts)
	}
	return nil, errNotMocked
}

func (m *mockPinboardClient) Suggest(ctx context.Context, bookmarkURL string) (*pinboard.Suggestion, error) {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, bookmarkURL)
	}
	return nil, errNotMocked
}

func (m *mockPinboardClient) Tags(ctx context.Context) ([]pinboard.Tag, error) {
	if m.TagsFunc != nil {
		return m.TagsFunc(ctx)
	}
	return nil, errNotMocked
}

func (m *mockPinboardClient) DeleteTag(ctx context.Context, tag string) error {
	if m.DeleteTagFunc != nil {
		return m.DeleteTagFunc(ctx, tag)
	}
	return errNotMocked
}

func (m *mockPinboardClient) RenameTag(ctx context.Context, oldName, newName string) error {
	if m.RenameTagFunc != nil {
		return m.RenameTagFunc(ctx, oldName, newName)
	}
	return errNotMocked
}

func (m *mockPinboardClient) AccessToken(ctx context.Context, login pinboard.Login) (string, error) {
	if m.AccessTokenFunc != nil {
		return m.AccessTokenFunc(ctx, login)
	}
	return "", errNotMocked
}

func (m *mockPinboardClient) Secret(ctx context.Context) (string, error) {
	if m.SecretFunc != nil {
		return m.SecretFunc(ctx)
	}
	return "", errNotMocked
}

func (m *mockPinboardClient) Notes(ctx context.Context) (*pinboard.NoteList, error) {
	if m.NotesFunc != nil {
		return m.NotesFunc(ctx)
	}
	return nil, errNotMocked
}

func (m *mockPinboardClient) Note(ctx context.Context, id string) (*pinboard.Note, error) {
	if m.NoteFunc != nil {
		return m.NoteFunc(ctx, id)
	}
	return nil, errNotMocked
}

func newTestApp(client pinboard.ClientInterface, opts ...Option) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{
		WithPinboardClient(client),
		WithLogger(testLogger),
		WithOutput(&out),
	}, opts...)
	return NewApp(opts...), &out
}

func decodeOutput(t *testing.T, out *bytes.Buffer, v any) {
	t.Helper()
	if err := json.Unmarshal(out.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode output %q: %v", out.String(), err)
	}
}

func TestAdd(t *testing.T) {
	var gotURL, gotTitle string
	var gotOpts pinboard.AddOptions
	mock := &mockPinboardClient{
		AddBookmarkFunc: func(ctx context.Context, bookmarkURL, title string, opts pinboard.AddOptions) error {
			gotURL, gotTitle, gotOpts = bookmarkURL, title, opts
			return nil
		},
	}
	a, out := newTestApp(mock)

	err := a.Add(context.Background(), AddRequest{
		URL:     "https://go.dev/",
		Title:   "Go",
		Options: pinboard.AddOptions{Tags: []string{"go"}, ToRead: pinboard.Flag(true)},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if gotURL != "https://go.dev/" || gotTitle != "Go" {
		t.Errorf("Unexpected bookmark %s %q", gotURL, gotTitle)
	}
	if len(gotOpts.Tags) != 1 || gotOpts.ToRead == nil || !bool(*gotOpts.ToRead) {
		t.Errorf("Options were not passed through: %+v", gotOpts)
	}

	var resp map[string]string
	decodeOutput(t, out, &resp)
	if resp["result"] != "done" {
		t.Errorf("Expected result done, got %v", resp)
	}
}

func TestAddFetchesTitle(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("<html><head><title>Fetched Title</title></head></html>")); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer page.Close()

	var gotTitle string
	mock := &mockPinboardClient{
		AddBookmarkFunc: func(ctx context.Context, bookmarkURL, title string, opts pinboard.AddOptions) error {
			gotTitle = title
			return nil
		},
	}
	a, _ := newTestApp(mock, WithPageClient(page.Client()))

	if err := a.Add(context.Background(), AddRequest{URL: page.URL + "/post", FetchTitle: true}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if gotTitle != "Fetched Title" {
		t.Errorf("Expected the fetched title, got %q", gotTitle)
	}
}

func TestAddTruncatesLongFetchedTitle(t *testing.T) {
	long := strings.Repeat("é", pinboard.MaxTitleLength+44)
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("<html><head><title>" + long + "</title></head></html>")); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer page.Close()

	var gotTitle string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.URL.Query().Get("description")
		if _, err := w.Write([]byte(`{"result_code":"done"}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer api.Close()

	client, err := pinboard.NewClient(api.URL+"/v1", pinboard.Credentials{User: "alice", Token: "ABC123"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	a := NewApp(WithPinboardClient(client), WithPageClient(page.Client()), WithLogger(testLogger), WithOutput(&bytes.Buffer{}))

	if err := a.Add(context.Background(), AddRequest{URL: page.URL + "/p", FetchTitle: true}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	want := strings.Repeat("é", pinboard.MaxTitleLength)
	if gotTitle != want {
		t.Errorf("Expected the title cut to %d characters, got %d", pinboard.MaxTitleLength, utf8.RuneCountInString(gotTitle))
	}
}

func TestAddTruncatesLongFallbackURL(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer page.Close()

	var gotURL, gotTitle string
	mock := &mockPinboardClient{
		AddBookmarkFunc: func(ctx context.Context, bookmarkURL, title string, opts pinboard.AddOptions) error {
			gotURL, gotTitle = bookmarkURL, title
			return nil
		},
	}
	a, _ := newTestApp(mock, WithPageClient(page.Client()))

	target := page.URL + "/" + strings.Repeat("a", 300)
	if err := a.Add(context.Background(), AddRequest{URL: target, FetchTitle: true}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if gotURL != target {
		t.Errorf("Expected the full URL to be bookmarked, got %q", gotURL)
	}
	if gotTitle != target[:pinboard.MaxTitleLength] {
		t.Errorf("Expected the URL cut to %d characters as title, got %q", pinboard.MaxTitleLength, gotTitle)
	}
}

func TestAddFallsBackToURLWhenTitleFetchFails(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer page.Close()

	var gotTitle string
	mock := &mockPinboardClient{
		AddBookmarkFunc: func(ctx context.Context, bookmarkURL, title string, opts pinboard.AddOptions) error {
			gotTitle = title
			return nil
		},
	}
	a, _ := newTestApp(mock, WithPageClient(page.Client()))

	target := page.URL + "/broken"
	if err := a.Add(context.Background(), AddRequest{URL: target, FetchTitle: true}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if gotTitle != target {
		t.Errorf("Expected the URL as title, got %q", gotTitle)
	}
}

func TestAddPropagatesErrors(t *testing.T) {
	apiErr := &pinboard.ResultError{Op: pinboard.OpAddPost, Code: "item already exists"}
	mock := &mockPinboardClient{
		AddBookmarkFunc: func(ctx context.Context, bookmarkURL, title string, opts pinboard.AddOptions) error {
			return apiErr
		},
	}
	a, out := newTestApp(mock)

	err := a.Add(context.Background(), AddRequest{URL: "https://go.dev/", Title: "Go"})
	if !errors.Is(err, apiErr) {
		t.Errorf("Expected the ResultError, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output on error, got %q", out.String())
	}
}

func TestTags(t *testing.T) {
	mock := &mockPinboardClient{
		TagsFunc: func(ctx context.Context) ([]pinboard.Tag, error) {
			return []pinboard.Tag{{Name: "go", Count: 5}, {Name: "rust", Count: 2}}, nil
		},
	}
	a, out := newTestApp(mock)

	if err := a.Tags(context.Background()); err != nil {
		t.Fatalf("Tags failed: %v", err)
	}
	var got []pinboard.Tag
	decodeOutput(t, out, &got)
	want := []pinboard.Tag{{Name: "go", Count: 5}, {Name: "rust", Count: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tags output mismatch (-want +got):\n%s", diff)
	}
}

func TestAllSkipsFetchWhenUnchanged(t *testing.T) {
	lastUpdate := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		since     time.Time
		wantFetch bool
	}{
		{"no since", time.Time{}, true},
		{"changed since", lastUpdate.Add(-time.Hour), true},
		{"unchanged since", lastUpdate, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetched := false
			mock := &mockPinboardClient{
				LastUpdateFunc: func(ctx context.Context) (time.Time, error) {
					return lastUpdate, nil
				},
				AllFunc: func(ctx context.Context, opts pinboard.AllOptions) ([]pinboard.Post, error) {
					fetched = true
					return []pinboard.Post{{Href: "https://go.dev/"}}, nil
				},
			}
			a, out := newTestApp(mock)

			if err := a.All(context.Background(), pinboard.AllOptions{}, tc.since); err != nil {
				t.Fatalf("All failed: %v", err)
			}
			if fetched != tc.wantFetch {
				t.Errorf("Expected fetched=%v, got %v", tc.wantFetch, fetched)
			}

			var posts []pinboard.Post
			decodeOutput(t, out, &posts)
			wantLen := 0
			if tc.wantFetch {
				wantLen = 1
			}
			if len(posts) != wantLen {
				t.Errorf("Expected %d posts, got %d", wantLen, len(posts))
			}
		})
	}
}

func TestRenameAndDeleteTag(t *testing.T) {
	var calls []string
	mock := &mockPinboardClient{
		DeleteTagFunc: func(ctx context.Context, tag string) error {
			calls = append(calls, "delete "+tag)
			return nil
		},
		RenameTagFunc: func(ctx context.Context, oldName, newName string) error {
			calls = append(calls, "rename "+oldName+" "+newName)
			return nil
		},
	}
	a, _ := newTestApp(mock)
	ctx := context.Background()

	if err := a.RenameTag(ctx, "golang", "go"); err != nil {
		t.Fatalf("RenameTag failed: %v", err)
	}
	if err := a.DeleteTag(ctx, "obsolete"); err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}
	if diff := cmp.Diff([]string{"rename golang go", "delete obsolete"}, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAccessToken(t *testing.T) {
	mock := &mockPinboardClient{
		AccessTokenFunc: func(ctx context.Context, login pinboard.Login) (string, error) {
			if login.User != "alice" || login.Password != "hunter2" {
				t.Errorf("Unexpected login %+v", login)
			}
			return "TOKEN42", nil
		},
	}
	a, out := newTestApp(mock)

	if err := a.AccessToken(context.Background(), pinboard.Login{User: "alice", Password: "hunter2"}); err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	var got map[string]string
	decodeOutput(t, out, &got)
	if got["token"] != "TOKEN42" || got["auth_token"] != "alice:TOKEN42" {
		t.Errorf("Unexpected output %v", got)
	}
}

func TestEncryptToken(t *testing.T) {
	a, out := newTestApp(&mockPinboardClient{})

	if err := a.EncryptToken("TOKEN42", "pass"); err != nil {
		t.Fatalf("EncryptToken failed: %v", err)
	}
	var got map[string]string
	decodeOutput(t, out, &got)
	plain, err := crypto.DecryptToken(got["encrypted_token"], "pass")
	if err != nil {
		t.Fatalf("DecryptToken failed: %v", err)
	}
	if plain != "TOKEN42" {
		t.Errorf("Expected TOKEN42, got %s", plain)
	}

	if err := a.EncryptToken("", "pass"); err == nil {
		t.Error("Expected an error for an empty token")
	}
}

func TestNewPinboardClient(t *testing.T) {
	encrypted, err := crypto.EncryptToken("SECRET", "pass")
	if err != nil {
		t.Fatalf("EncryptToken failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.Pinboard.Host = "https://api.pinboard.in/v1"
	cfg.Pinboard.User = "alice"
	cfg.Pinboard.EncryptedToken = encrypted
	cfg.Pinboard.Passphrase = "pass"
	cfg.Pinboard.Timeout = 5 * time.Second

	client, err := NewPinboardClient(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewPinboardClient failed: %v", err)
	}
	if client.Credentials.AuthString() != "alice:SECRET" {
		t.Errorf("Expected auth string alice:SECRET, got %s", client.Credentials.AuthString())
	}
	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %s", client.HTTPClient.Timeout)
	}

	cfg.Pinboard.Passphrase = "wrong"
	if _, err := NewPinboardClient(cfg, testLogger); err == nil {
		t.Error("Expected an error with the wrong passphrase")
	}
}

func TestNewLoginClientIgnoresStoredToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.Pinboard.Host = "https://api.pinboard.in/v1"
	cfg.Pinboard.User = "alice"
	cfg.Pinboard.EncryptedToken = "bm90IGEgcmVhbCB0b2tlbg=="
	cfg.Pinboard.Passphrase = "wrong"

	client, err := NewLoginClient(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewLoginClient failed: %v", err)
	}
	if client.Credentials.User != "alice" || client.Credentials.Token != "" {
		t.Errorf("Expected user-only credentials, got %+v", client.Credentials)
	}
}
