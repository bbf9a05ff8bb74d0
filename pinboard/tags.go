package pinboard

import (
	"context"
	"fmt"
)

// Tags returns the user's tags with their use counts, in the order the API
// lists them.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	body, err := c.Call(ctx, OpListTags, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	tags, err := decodeCounts(body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w: %s: %w", ErrDecode, OpListTags, err)
	}
	return tags, nil
}

// DeleteTag removes tag from every bookmark.
func (c *Client) DeleteTag(ctx context.Context, tag string) error {
	if err := c.call(ctx, OpDeleteTag, tagParams{Tag: tag}, nil); err != nil {
		return fmt.Errorf("failed to delete tag %s: %w", tag, err)
	}
	return nil
}

// RenameTag renames oldName, or folds it into newName if that already exists.
// The API matches oldName case-insensitively.
func (c *Client) RenameTag(ctx context.Context, oldName, newName string) error {
	if err := c.call(ctx, OpRenameTag, renameParams{Old: oldName, New: newName}, nil); err != nil {
		return fmt.Errorf("failed to rename tag %s to %s: %w", oldName, newName, err)
	}
	return nil
}
