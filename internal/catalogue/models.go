// Package catalogue is the poem, author and category data service: a
// Postgres repository, a service that logs and wraps its failures, and
// presigned avatar URLs from S3-compatible storage.
package catalogue

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPoem = errors.New("invalid poem")
)

type Poem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Dynasty     string    `json:"dynasty"`
	Category    string    `json:"category"`
	Content     string    `json:"content"`
	Translation string    `json:"translation,omitempty"`
	Annotation  string    `json:"annotation,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy,omitempty"`
}

// NewPoem is the input of AddPoem; ID, CreatedAt and CreatedBy are
// assigned on insert.
type NewPoem struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Dynasty     string   `json:"dynasty"`
	Category    string   `json:"category"`
	Content     string   `json:"content"`
	Translation string   `json:"translation,omitempty"`
	Annotation  string   `json:"annotation,omitempty"`
	Tags        []string `json:"tags"`
}

func (p NewPoem) Validate() error {
	switch {
	case p.Title == "":
		return errors.Join(ErrInvalidPoem, errors.New("title is required"))
	case p.Author == "":
		return errors.Join(ErrInvalidPoem, errors.New("author is required"))
	case p.Content == "":
		return errors.Join(ErrInvalidPoem, errors.New("content is required"))
	}
	return nil
}

type Author struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Dynasty     string `json:"dynasty"`
	Birth       string `json:"birth,omitempty"`
	Death       string `json:"death,omitempty"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SearchParams narrows a poem list. Empty fields do not filter.
type SearchParams struct {
	Keyword  string `json:"keyword,omitempty" form:"keyword"`
	Category string `json:"category,omitempty" form:"category"`
	Author   string `json:"author,omitempty" form:"author"`
	Dynasty  string `json:"dynasty,omitempty" form:"dynasty"`
}

func (p SearchParams) IsZero() bool {
	return p == SearchParams{}
}

type Stats struct {
	Poems      int64 `json:"poems"`
	Authors    int64 `json:"authors"`
	Categories int64 `json:"categories"`
}
