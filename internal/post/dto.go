// AngelaMos | 2026
// dto.go

package post

import (
	"time"

	"github.com/carterperez-dev/templates/go-microblog/internal/session"
)

type CreatePostRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Response struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

type FeedResponse struct {
	Posts    []Response      `json:"posts"`
	Flashes  []session.Flash `json:"flashes,omitempty"`
	CanWrite bool            `json:"can_write"`
}

func ToResponse(p *Post) Response {
	return Response{
		ID:   p.ID,
		Body: p.Body,
		Author: Author{
			ID:       p.AuthorID,
			Username: p.AuthorUsername,
		},
		CreatedAt: p.CreatedAt,
	}
}

func ToResponseList(posts []Post) []Response {
	out := make([]Response, 0, len(posts))
	for i := range posts {
		out = append(out, ToResponse(&posts[i]))
	}
	return out
}
