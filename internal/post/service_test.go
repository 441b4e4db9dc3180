// AngelaMos | 2026
// service_test.go

package post_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
	"github.com/carterperez-dev/templates/go-microblog/internal/post"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
)

type memRepo struct {
	mu    sync.Mutex
	seq   int64
	posts []post.Post
}

func (m *memRepo) Create(ctx context.Context, p *post.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.posts {
		if existing.CreatedAt.After(p.CreatedAt) {
			p.CreatedAt = existing.CreatedAt
		}
	}
	m.seq++
	p.Seq = m.seq
	m.posts = append(m.posts, *p)
	return nil
}

func (m *memRepo) sorted(keep func(post.Post) bool) []post.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []post.Post{}
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}

func (m *memRepo) List(ctx context.Context) ([]post.Post, error) {
	return m.sorted(func(post.Post) bool { return true }), nil
}

func (m *memRepo) ListByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	return m.sorted(func(p post.Post) bool { return p.AuthorID == authorID }), nil
}

func (m *memRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts), nil
}

type writer struct {
	id, name string
	perms    role.Permission
}

func (w writer) UserID() string { return w.id }
func (w writer) Handle() string { return w.name }
func (w writer) IsAuthenticated() bool { return true }
func (w writer) Can(p role.Permission) bool { return w.perms.Has(p) }
func (w writer) IsAdmin() bool { return false }

var alice = writer{id: "alice-id", name: "alice", perms: role.Of(role.Follow, role.Write)}

type stepClock struct {
	times []time.Time
}

func (c *stepClock) now() time.Time {
	t := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return t
}

func TestCreatePersistsOnePost(t *testing.T) {
	repo := &memRepo{}
	svc := post.NewService(repo)

	p, err := svc.Create(context.Background(), alice, "hello")
	require.NoError(t, err)

	assert.Equal(t, "hello", p.Body)
	assert.Equal(t, alice.id, p.AuthorID)
	assert.NotEmpty(t, p.ID)

	n, _ := repo.Count(context.Background())
	assert.Equal(t, 1, n)
}

func TestCreateRejectsEmptyBody(t *testing.T) {
	repo := &memRepo{}
	svc := post.NewService(repo)

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := svc.Create(context.Background(), alice, body)
		assert.ErrorIs(t, err, core.ErrValidation)
		assert.ErrorIs(t, err, post.ErrEmptyBody)
	}

	n, _ := repo.Count(context.Background())
	assert.Zero(t, n)
}

func TestCreateRejectsOversizedBody(t *testing.T) {
	svc := post.NewService(&memRepo{})

	_, err := svc.Create(context.Background(), alice, strings.Repeat("é", post.MaxBodyLength+1))
	assert.ErrorIs(t, err, post.ErrBodyTooLong)

	_, err = svc.Create(context.Background(), alice, strings.Repeat("é", post.MaxBodyLength))
	assert.NoError(t, err)
}

func TestAnonymousCannotCreate(t *testing.T) {
	repo := &memRepo{}
	svc := post.NewService(repo)

	_, err := svc.Create(context.Background(), identity.Anonymous, "hello")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	n, _ := repo.Count(context.Background())
	assert.Zero(t, n)
}

func TestGuardedCreateWithoutWritePersistsNothing(t *testing.T) {
	repo := &memRepo{}
	svc := post.NewService(repo)
	reader := writer{id: "bob-id", name: "bob", perms: role.Follow}

	_, err := identity.PermissionRequired(reader, role.Write, func() (*post.Post, error) {
		return svc.Create(context.Background(), reader, "hello")
	})
	assert.ErrorIs(t, err, core.ErrForbidden)

	n, _ := repo.Count(context.Background())
	assert.Zero(t, n)
}

func TestListNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &stepClock{times: []time.Time{
		base,
		base.Add(time.Minute),
		base.Add(2 * time.Minute),
	}}
	svc := post.NewService(&memRepo{}, post.WithClock(clock.now))
	ctx := context.Background()

	for _, body := range []string{"t1", "t2", "t3"} {
		_, err := svc.Create(ctx, alice, body)
		require.NoError(t, err)
	}

	posts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, bodies(posts))
}

func TestListBreaksTiesByInsertionOrder(t *testing.T) {
	same := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := post.NewService(&memRepo{}, post.WithClock(func() time.Time { return same }))
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		_, err := svc.Create(ctx, alice, body)
		require.NoError(t, err)
	}

	posts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, bodies(posts))
}

func TestTimestampsNeverGoBackwards(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &stepClock{times: []time.Time{base, base.Add(-time.Hour)}}
	svc := post.NewService(&memRepo{}, post.WithClock(clock.now))
	ctx := context.Background()

	first, err := svc.Create(ctx, alice, "before skew")
	require.NoError(t, err)
	second, err := svc.Create(ctx, alice, "after skew")
	require.NoError(t, err)

	assert.False(t, second.CreatedAt.Before(first.CreatedAt))

	posts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"after skew", "before skew"}, bodies(posts))
}

func TestListByAuthor(t *testing.T) {
	svc := post.NewService(&memRepo{})
	ctx := context.Background()
	bob := writer{id: "bob-id", name: "bob", perms: role.Write}

	_, err := svc.Create(ctx, alice, "from alice")
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, "from bob")
	require.NoError(t, err)

	posts, err := svc.ListByAuthor(ctx, bob.id)
	require.NoError(t, err)
	assert.Equal(t, []string{"from bob"}, bodies(posts))
}

func bodies(posts []post.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Body)
	}
	return out
}
