// AngelaMos | 2026
// repository.go

package post

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

type Repository interface {
	Create(ctx context.Context, post *Post) error
	List(ctx context.Context) ([]Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Post, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Create never stores a timestamp older than the newest post, so feed
// order agrees with insertion order even if the clock steps back.
func (r *repository) Create(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO posts (id, body, author_id, created_at)
		SELECT $1, $2, $3, GREATEST($4::timestamptz, COALESCE(MAX(created_at), $4::timestamptz))
		FROM posts
		RETURNING seq, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		post.ID,
		post.Body,
		post.AuthorID,
		post.CreatedAt,
	).Scan(&post.Seq, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

const feedSelect = `
		SELECT p.id, p.seq, p.body, p.author_id, u.username AS author_username, p.created_at
		FROM posts p
		JOIN users u ON u.id = p.author_id`

const feedOrder = `
		ORDER BY p.created_at DESC, p.seq DESC`

func (r *repository) List(ctx context.Context) ([]Post, error) {
	posts := []Post{}
	if err := r.db.SelectContext(ctx, &posts, feedSelect+feedOrder); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *repository) ListByAuthor(
	ctx context.Context,
	authorID string,
) ([]Post, error) {
	query := feedSelect + `
		WHERE p.author_id = $1` + feedOrder

	posts := []Post{}
	if err := r.db.SelectContext(ctx, &posts, query, authorID); err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return posts, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts`); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}
