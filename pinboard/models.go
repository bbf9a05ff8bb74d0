package pinboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const noteTimeLayout = "2006-01-02 15:04:05"

type Post struct {
	Href        string    `json:"href"`
	Description string    `json:"description"` // the title
	Extended    string    `json:"extended"`
	Meta        string    `json:"meta"`
	Hash        string    `json:"hash"`
	Time        time.Time `json:"time"`
	Shared      YesNo     `json:"shared"`
	ToRead      YesNo     `json:"toread"`
	Tags        TagList   `json:"tags"`
}

// TagList is sent by the API as one space-separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("invalid tag list %s", data)
		}
		*t = list
		return nil
	}
	*t = strings.Fields(s)
	return nil
}

func (t TagList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// PostList is the envelope of posts/recent and posts/get.
type PostList struct {
	Date  time.Time `json:"date"`
	User  string    `json:"user"`
	Posts []Post    `json:"posts"`
}

type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Suggestion struct {
	Popular     []string `json:"popular"`
	Recommended []string `json:"recommended"`
}

type NoteList struct {
	Count int    `json:"count"`
	Notes []Note `json:"notes"`
}

// Note is a user note. Text is only filled in by Client.Note.
type Note struct {
	ID        string    `json:"id"`
	Hash      string    `json:"hash"`
	Title     string    `json:"title"`
	Text      string    `json:"text,omitempty"`
	Length    int       `json:"length"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Note) UnmarshalJSON(data []byte) error {
	type alias Note
	aux := struct {
		*alias
		Length    flexInt `json:"length"`
		CreatedAt string  `json:"created_at"`
		UpdatedAt string  `json:"updated_at"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Length = int(aux.Length)

	var err error
	if n.CreatedAt, err = parseNoteTime(aux.CreatedAt); err != nil {
		return err
	}
	if n.UpdatedAt, err = parseNoteTime(aux.UpdatedAt); err != nil {
		return err
	}
	return nil
}

func parseNoteTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(noteTimeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339, s)
	}
	return t, nil
}

// flexInt accepts both 5 and "5"; the API is not consistent about counts.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid count %s", data)
	}
	*i = flexInt(n)
	return nil
}

// decodeCounts reads a {"name": count, ...} object and keeps the order in
// which the keys appear in the document. An empty array is read as no entries.
func decodeCounts(data []byte) ([]Tag, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok {
	case json.Delim('{'):
	case json.Delim('['):
		if dec.More() {
			return nil, fmt.Errorf("expected an object, got a non-empty array")
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		if err := endOfInput(dec); err != nil {
			return nil, err
		}
		return []Tag{}, nil
	default:
		return nil, fmt.Errorf("expected an object, got %v", tok)
	}

	counts := []Tag{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a key, got %v", tok)
		}
		var n flexInt
		if err := dec.Decode(&n); err != nil {
			return nil, fmt.Errorf("count of %q: %w", name, err)
		}
		counts = append(counts, Tag{Name: name, Count: int(n)})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if err := endOfInput(dec); err != nil {
		return nil, err
	}
	return counts, nil
}

// endOfInput fails when anything but whitespace follows the decoded value.
func endOfInput(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after the closing delimiter")
	}
	return nil
}

// orderedCounts is a decodeCounts-backed JSON field.
type orderedCounts []Tag

func (o *orderedCounts) UnmarshalJSON(data []byte) error {
	counts, err := decodeCounts(data)
	if err != nil {
		return err
	}
	*o = counts
	return nil
}
