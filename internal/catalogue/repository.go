package catalogue

import "context"

type Repository interface {
	ListPoems(ctx context.Context) ([]Poem, error)
	GetPoem(ctx context.Context, id string) (*Poem, error)
	SearchPoems(ctx context.Context, keyword string) ([]Poem, error)
	PoemsByAuthor(ctx context.Context, author string) ([]Poem, error)
	PoemsByCategory(ctx context.Context, category string) ([]Poem, error)
	AddPoem(ctx context.Context, p NewPoem, createdBy string) (*Poem, error)
	PoemOwner(ctx context.Context, id string) (string, error)

	ListAuthors(ctx context.Context) ([]Author, error)
	GetAuthor(ctx context.Context, id string) (*Author, error)
	AuthorsByDynasty(ctx context.Context, dynasty string) ([]Author, error)

	ListCategories(ctx context.Context) ([]Category, error)

	CountPoems(ctx context.Context) (int64, error)
	CountAuthors(ctx context.Context) (int64, error)
	CountCategories(ctx context.Context) (int64, error)
}
