// AngelaMos | 2026
// service.go

package post

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
)

const tracerName = "microblog/post"

var (
	ErrEmptyBody   = fmt.Errorf("post body is required: %w", core.ErrValidation)
	ErrBodyTooLong = fmt.Errorf(
		"post body exceeds %d characters: %w", MaxBodyLength, core.ErrValidation,
	)
)

type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a post by author. The caller is responsible for checking
// that author may write.
func (s *Service) Create(
	ctx context.Context,
	author identity.Identity,
	body string,
) (*Post, error) {
	ctx, span := core.StartSpan(ctx, tracerName, "post.create",
		attribute.String("post.author_id", author.UserID()),
	)
	defer span.End()

	body = strings.TrimSpace(body)
	switch {
	case body == "":
		return nil, ErrEmptyBody
	case utf8.RuneCountInString(body) > MaxBodyLength:
		return nil, ErrBodyTooLong
	}

	if !author.IsAuthenticated() {
		return nil, fmt.Errorf("create post: %w", identity.ErrUnauthenticated)
	}

	p := &Post{
		ID:             uuid.New().String(),
		Body:           body,
		AuthorID:       author.UserID(),
		AuthorUsername: author.Handle(),
		CreatedAt:      s.now().UTC(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	core.AddSpanEvent(ctx, "post.created", attribute.Int64("post.seq", p.Seq))

	return p, nil
}

func (s *Service) List(ctx context.Context) ([]Post, error) {
	ctx, span := core.StartSpan(ctx, tracerName, "post.list")
	defer span.End()

	posts, err := s.repo.List(ctx)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("post.count", len(posts)))
	return posts, nil
}

func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	return s.repo.ListByAuthor(ctx, authorID)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
