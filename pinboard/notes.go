package pinboard

import (
	"context"
	"fmt"
)

type noteParams struct {
	ID string `validate:"required,alphanum"`
}

// Notes lists the user's notes without their text.
func (c *Client) Notes(ctx context.Context) (*NoteList, error) {
	var list NoteList
	if err := c.call(ctx, OpListNotes, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	return &list, nil
}

// Note fetches a single note, text included.
func (c *Client) Note(ctx context.Context, id string) (*Note, error) {
	if err := validate.Struct(noteParams{ID: id}); err != nil {
		return nil, fmt.Errorf("failed to fetch note %s: %w: %v", id, ErrInvalidRequest, err)
	}

	var note Note
	if err := c.call(ctx, opNote+Operation(id), nil, &note); err != nil {
		return nil, fmt.Errorf("failed to fetch note %s: %w", id, err)
	}
	return &note, nil
}
