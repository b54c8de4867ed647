package catalogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/logging"
)

// Service is the catalogue API used by the front ends. Failures are logged
// once here and returned wrapped with the operation name.
type Service struct {
	repo    Repository
	avatars AvatarSigner
	logger  logging.Logger
}

type ServiceOption func(*Service)

func WithAvatarSigner(s AvatarSigner) ServiceOption {
	return func(svc *Service) { svc.avatars = s }
}

func NewService(repo Repository, logger logging.Logger, opts ...ServiceOption) *Service {
	svc := &Service{repo: repo, logger: logger}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	if !errors.Is(err, ErrNotFound) {
		s.logger.Error(ctx, "catalogue request failed", "op", op, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) Poems(ctx context.Context) ([]Poem, error) {
	poems, err := s.repo.ListPoems(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list poems", err)
	}
	return poems, nil
}

func (s *Service) Poem(ctx context.Context, id string) (*Poem, error) {
	p, err := s.repo.GetPoem(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get poem", err)
	}
	return p, nil
}

// Search narrows the catalogue by params. The keyword goes to the
// database; the equality filters are applied to its result.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]Poem, error) {
	var (
		poems []Poem
		err   error
	)
	switch kw := strings.TrimSpace(params.Keyword); {
	case kw != "":
		poems, err = s.repo.SearchPoems(ctx, kw)
	case params.Author != "":
		poems, err = s.repo.PoemsByAuthor(ctx, params.Author)
	case params.Category != "":
		poems, err = s.repo.PoemsByCategory(ctx, params.Category)
	default:
		poems, err = s.repo.ListPoems(ctx)
	}
	if err != nil {
		return nil, s.fail(ctx, "search poems", err)
	}
	params.Keyword = ""
	return Filter(poems, params), nil
}

func (s *Service) PoemsByAuthor(ctx context.Context, author string) ([]Poem, error) {
	poems, err := s.repo.PoemsByAuthor(ctx, author)
	if err != nil {
		return nil, s.fail(ctx, "poems by author", err)
	}
	return poems, nil
}

func (s *Service) PoemsByCategory(ctx context.Context, category string) ([]Poem, error) {
	poems, err := s.repo.PoemsByCategory(ctx, category)
	if err != nil {
		return nil, s.fail(ctx, "poems by category", err)
	}
	return poems, nil
}

// AddPoem stores a poem on behalf of user, who must be signed in.
func (s *Service) AddPoem(ctx context.Context, user *auth.Identity, in NewPoem) (*Poem, error) {
	if user == nil {
		return nil, fmt.Errorf("add poem: %w", auth.ErrPermissionDenied)
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("add poem: %w", err)
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}

	p, err := s.repo.AddPoem(ctx, in, user.ID)
	if err != nil {
		return nil, s.fail(ctx, "add poem", err)
	}
	s.logger.Info(ctx, "poem added", "id", p.ID, "user", user.ID)
	return p, nil
}

func (s *Service) Authors(ctx context.Context) ([]Author, error) {
	authors, err := s.repo.ListAuthors(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list authors", err)
	}
	return authors, nil
}

func (s *Service) Author(ctx context.Context, id string) (*Author, error) {
	a, err := s.repo.GetAuthor(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get author", err)
	}
	return a, nil
}

func (s *Service) AuthorsByDynasty(ctx context.Context, dynasty string) ([]Author, error) {
	authors, err := s.repo.AuthorsByDynasty(ctx, dynasty)
	if err != nil {
		return nil, s.fail(ctx, "authors by dynasty", err)
	}
	return authors, nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list categories", err)
	}
	return categories, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Poems, err = s.repo.CountPoems(ctx); err != nil {
		return Stats{}, s.fail(ctx, "count poems", err)
	}
	if st.Authors, err = s.repo.CountAuthors(ctx); err != nil {
		return Stats{}, s.fail(ctx, "count authors", err)
	}
	if st.Categories, err = s.repo.CountCategories(ctx); err != nil {
		return Stats{}, s.fail(ctx, "count categories", err)
	}
	return st, nil
}

// AvatarURL resolves the author's avatar for display. Without a signer,
// or when signing fails, the stored value is returned as is.
func (s *Service) AvatarURL(ctx context.Context, a *Author) string {
	if a == nil {
		return ""
	}
	if a.Avatar == "" || s.avatars == nil {
		return a.Avatar
	}
	u, err := s.avatars.SignAvatar(ctx, a.Avatar)
	if err != nil {
		s.logger.Warn(ctx, "avatar signing failed", "author", a.ID, "error", err)
		return a.Avatar
	}
	return u
}

// CanEdit reports whether user may edit the poem: admins edit anything,
// users edit what they added.
func (s *Service) CanEdit(ctx context.Context, user *auth.Identity, poemID string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() {
		return true, nil
	}

	owner, err := s.repo.PoemOwner(ctx, poemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, s.fail(ctx, "poem owner", err)
	}
	return owner != "" && owner == user.ID, nil
}

// Filter applies params to poems in memory. The keyword matches title,
// author or content case-insensitively; the other fields must match
// exactly.
func Filter(poems []Poem, params SearchParams) []Poem {
	kw := strings.ToLower(strings.TrimSpace(params.Keyword))
	out := make([]Poem, 0, len(poems))
	for _, p := range poems {
		if kw != "" &&
			!strings.Contains(strings.ToLower(p.Title), kw) &&
			!strings.Contains(strings.ToLower(p.Author), kw) &&
			!strings.Contains(strings.ToLower(p.Content), kw) {
			continue
		}
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		if params.Author != "" && p.Author != params.Author {
			continue
		}
		if params.Dynasty != "" && p.Dynasty != params.Dynasty {
			continue
		}
		out = append(out, p)
	}
	return out
}
