package pinboard

import (
	"context"
	"fmt"
	"time"
)

// LastUpdate returns the most recent time a bookmark was added, updated or
// deleted. Check it before calling All to see whether anything changed.
func (c *Client) LastUpdate(ctx context.Context) (time.Time, error) {
	var resp struct {
		UpdateTime time.Time `json:"update_time"`
	}
	if err := c.call(ctx, OpLastUpdate, nil, &resp); err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch last update: %w", err)
	}
	return resp.UpdateTime, nil
}

// AddBookmark adds a bookmark, replacing any existing one with the same URL
// unless opts.Replace is set to no.
func (c *Client) AddBookmark(ctx context.Context, bookmarkURL, title string, opts AddOptions) error {
	opts.Time = utc(opts.Time)
	params := addParams{URL: bookmarkURL, Title: title, AddOptions: opts}
	if err := c.call(ctx, OpAddPost, params, nil); err != nil {
		return fmt.Errorf("failed to add bookmark %s: %w", bookmarkURL, err)
	}
	return nil
}

// DeleteBookmark deletes the bookmark for bookmarkURL.
func (c *Client) DeleteBookmark(ctx context.Context, bookmarkURL string) error {
	if err := c.call(ctx, OpDeletePost, urlParams{URL: bookmarkURL}, nil); err != nil {
		return fmt.Errorf("failed to delete bookmark %s: %w", bookmarkURL, err)
	}
	return nil
}

// Recent returns the user's most recent posts, newest first.
func (c *Client) Recent(ctx context.Context, opts RecentOptions) (*PostList, error) {
	var list PostList
	if err := c.call(ctx, OpRecentPosts, opts, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch recent bookmarks: %w", err)
	}
	return &list, nil
}

// All returns every bookmark in the account matching opts.
func (c *Client) All(ctx context.Context, opts AllOptions) ([]Post, error) {
	opts.From = utc(opts.From)
	opts.To = utc(opts.To)
	var posts []Post
	if err := c.call(ctx, OpAllPosts, opts, &posts); err != nil {
		return nil, fmt.Errorf("failed to fetch all bookmarks: %w", err)
	}
	return posts, nil
}

// GetPosts returns posts from a single day. Without a date or URL the API uses
// the day of the most recent bookmark.
func (c *Client) GetPosts(ctx context.Context, opts GetOptions) (*PostList, error) {
	var list PostList
	if err := c.call(ctx, OpGetPosts, opts, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch bookmarks: %w", err)
	}
	return &list, nil
}

// Dates returns the number of posts per day, in the order the API lists them.
func (c *Client) Dates(ctx context.Context, opts DatesOptions) ([]DateCount, error) {
	var resp struct {
		Dates orderedCounts `json:"dates"`
	}
	if err := c.call(ctx, OpDates, opts, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch post dates: %w", err)
	}

	dates := make([]DateCount, 0, len(resp.Dates))
	for _, d := range resp.Dates {
		dates = append(dates, DateCount{Date: d.Name, Count: d.Count})
	}
	return dates, nil
}

// Suggest returns popular and recommended tags for bookmarkURL.
func (c *Client) Suggest(ctx context.Context, bookmarkURL string) (*Suggestion, error) {
	// The body is [{"popular": [...]}, {"recommended": [...]}].
	var parts []map[string][]string
	if err := c.call(ctx, OpSuggest, urlParams{URL: bookmarkURL}, &parts); err != nil {
		return nil, fmt.Errorf("failed to fetch tag suggestions for %s: %w", bookmarkURL, err)
	}

	s := &Suggestion{Popular: []string{}, Recommended: []string{}}
	for _, part := range parts {
		s.Popular = append(s.Popular, part["popular"]...)
		s.Recommended = append(s.Recommended, part["recommended"]...)
	}
	return s, nil
}
