package pinboard

import (
	"context"
	"time"
)

// ClientInterface defines the interface for the Pinboard API client.
type ClientInterface interface {
	LastUpdate(ctx context.Context) (time.Time, error)
	AddBookmark(ctx context.Context, bookmarkURL, title string, opts AddOptions) error
	DeleteBookmark(ctx context.Context, bookmarkURL string) error
	Recent(ctx context.Context, opts RecentOptions) (*PostList, error)
	All(ctx context.Context, opts AllOptions) ([]Post, error)
	GetPosts(ctx context.Context, opts GetOptions) (*PostList, error)
	Dates(ctx context.Context, opts DatesOptions) ([]DateCount, error)
	Suggest(ctx context.Context, bookmarkURL string) (*Suggestion, error)
	Tags(ctx context.Context) ([]Tag, error)
	DeleteTag(ctx context.Context, tag string) error
	RenameTag(ctx context.Context, oldName, newName string) error
	AccessToken(ctx context.Context, login Login) (string, error)
	Secret(ctx context.Context) (string, error)
	Notes(ctx context.Context) (*NoteList, error)
	Note(ctx context.Context, id string) (*Note, error)
}

var _ ClientInterface = (*Client)(nil)
