package catalogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/logging"
)

var samplePoems = []Poem{
	{ID: "1", Title: "静夜思", Author: "李白", Dynasty: "唐", Category: "唐诗", Content: "床前明月光"},
	{ID: "2", Title: "水调歌头", Author: "苏轼", Dynasty: "宋", Category: "宋词", Content: "明月几时有"},
	{ID: "3", Title: "春晓", Author: "孟浩然", Dynasty: "唐", Category: "唐诗", Content: "春眠不觉晓"},
}

// fakeRepo serves samplePoems; only the calls a test cares about are
// recorded.
type fakeRepo struct {
	Repository

	err      error
	owners   map[string]string
	searched string
	added    *NewPoem
	addedBy  string
}

func (r *fakeRepo) ListPoems(context.Context) ([]Poem, error) {
	return samplePoems, r.err
}

func (r *fakeRepo) GetPoem(_ context.Context, id string) (*Poem, error) {
	for _, p := range samplePoems {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) SearchPoems(_ context.Context, kw string) ([]Poem, error) {
	r.searched = kw
	return Filter(samplePoems, SearchParams{Keyword: kw}), r.err
}

func (r *fakeRepo) PoemsByAuthor(_ context.Context, a string) ([]Poem, error) {
	return Filter(samplePoems, SearchParams{Author: a}), r.err
}

func (r *fakeRepo) PoemsByCategory(_ context.Context, c string) ([]Poem, error) {
	return Filter(samplePoems, SearchParams{Category: c}), r.err
}

func (r *fakeRepo) AddPoem(_ context.Context, p NewPoem, by string) (*Poem, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.added, r.addedBy = &p, by
	return &Poem{ID: "10", Title: p.Title, Tags: p.Tags, CreatedBy: by}, nil
}

func (r *fakeRepo) PoemOwner(_ context.Context, id string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	owner, ok := r.owners[id]
	if !ok {
		return "", ErrNotFound
	}
	return owner, nil
}

func (r *fakeRepo) CountPoems(context.Context) (int64, error)      { return 3, nil }
func (r *fakeRepo) CountAuthors(context.Context) (int64, error)    { return 2, nil }
func (r *fakeRepo) CountCategories(context.Context) (int64, error) { return 5, r.err }

type fakeSigner struct{ err error }

func (s fakeSigner) SignAvatar(_ context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://signed/" + key, nil
}

func titles(poems []Poem) []string {
	out := make([]string, len(poems))
	for i, p := range poems {
		out[i] = p.Title
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		params SearchParams
		want   []string
	}{
		{"zero params keep all", SearchParams{}, []string{"静夜思", "水调歌头", "春晓"}},
		{"keyword in content", SearchParams{Keyword: "明月"}, []string{"静夜思", "水调歌头"}},
		{"keyword in author", SearchParams{Keyword: " 苏轼 "}, []string{"水调歌头"}},
		{"category", SearchParams{Category: "唐诗"}, []string{"静夜思", "春晓"}},
		{"keyword and category", SearchParams{Keyword: "明月", Category: "唐诗"}, []string{"静夜思"}},
		{"dynasty", SearchParams{Dynasty: "宋"}, []string{"水调歌头"}},
		{"author no match", SearchParams{Author: "杜甫"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Filter(samplePoems, tt.params)))
		})
	}
}

func TestFilter_KeywordIgnoresCase(t *testing.T) {
	poems := []Poem{{Title: "Ode to the West Wind"}, {Title: "Sonnet"}}
	assert.Equal(t, []string{"Ode to the West Wind"}, titles(Filter(poems, SearchParams{Keyword: "WEST"})))
}

func TestService_Search(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, logging.Discard())

	got, err := svc.Search(context.Background(), SearchParams{Keyword: " 明月 ", Dynasty: "宋"})
	require.NoError(t, err)
	assert.Equal(t, "明月", repo.searched)
	assert.Equal(t, []string{"水调歌头"}, titles(got))

	got, err = svc.Search(context.Background(), SearchParams{Author: "李白"})
	require.NoError(t, err)
	assert.Equal(t, []string{"静夜思"}, titles(got))

	got, err = svc.Search(context.Background(), SearchParams{Category: "唐诗", Dynasty: "唐"})
	require.NoError(t, err)
	assert.Equal(t, []string{"静夜思", "春晓"}, titles(got))

	got, err = svc.Search(context.Background(), SearchParams{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestService_WrapsErrors(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&fakeRepo{err: boom}, logging.Discard())

	_, err := svc.Poems(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "list poems")

	_, err = svc.Stats(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "count categories")

	_, err = svc.Poem(context.Background(), "404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Stats(t *testing.T) {
	st, err := NewService(&fakeRepo{}, logging.Discard()).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Poems: 3, Authors: 2, Categories: 5}, st)
}

func TestService_AddPoem(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, logging.Discard())
	in := NewPoem{Title: "登鹳雀楼", Author: "王之涣", Content: "白日依山尽"}

	_, err := svc.AddPoem(context.Background(), nil, in)
	require.ErrorIs(t, err, auth.ErrPermissionDenied)
	assert.Nil(t, repo.added)

	_, err = svc.AddPoem(context.Background(), &auth.Identity{ID: "u1"}, NewPoem{Title: "无题"})
	require.ErrorIs(t, err, ErrInvalidPoem)
	assert.Nil(t, repo.added)

	p, err := svc.AddPoem(context.Background(), &auth.Identity{ID: "u1"}, in)
	require.NoError(t, err)
	assert.Equal(t, "u1", repo.addedBy)
	assert.Equal(t, []string{}, repo.added.Tags)
	assert.Equal(t, "10", p.ID)
}

func TestService_CanEdit(t *testing.T) {
	repo := &fakeRepo{owners: map[string]string{"1": "", "10": "u1"}}
	svc := NewService(repo, logging.Discard())
	ctx := context.Background()

	user := &auth.Identity{ID: "u1", Role: auth.RoleUser}
	other := &auth.Identity{ID: "u2", Role: auth.RoleUser}
	admin := &auth.Identity{ID: "a1", Role: auth.RoleAdmin}

	tests := []struct {
		name string
		user *auth.Identity
		poem string
		want bool
	}{
		{"anonymous", nil, "10", false},
		{"owner", user, "10", true},
		{"other user", other, "10", false},
		{"seeded poem", user, "1", false},
		{"missing poem", user, "404", false},
		{"admin any", admin, "1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.CanEdit(ctx, tt.user, tt.poem)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	repo.err = errors.New("db down")
	ok, err := svc.CanEdit(ctx, user, "10")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestService_AvatarURL(t *testing.T) {
	ctx := context.Background()
	a := &Author{ID: "1", Avatar: "authors/libai.jpg"}

	plain := NewService(&fakeRepo{}, logging.Discard())
	assert.Equal(t, "authors/libai.jpg", plain.AvatarURL(ctx, a))
	assert.Equal(t, "", plain.AvatarURL(ctx, nil))

	signed := NewService(&fakeRepo{}, logging.Discard(), WithAvatarSigner(fakeSigner{}))
	assert.Equal(t, "https://signed/authors/libai.jpg", signed.AvatarURL(ctx, a))
	assert.Equal(t, "", signed.AvatarURL(ctx, &Author{}))

	failing := NewService(&fakeRepo{}, logging.Discard(), WithAvatarSigner(fakeSigner{err: errors.New("x")}))
	assert.Equal(t, "authors/libai.jpg", failing.AvatarURL(ctx, a))
}
