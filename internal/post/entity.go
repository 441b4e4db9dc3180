// AngelaMos | 2026
// entity.go

package post

import (
	"time"
)

const MaxBodyLength = 5000

type Post struct {
	ID             string    `db:"id"`
	Seq            int64     `db:"seq"`
	Body           string    `db:"body"`
	AuthorID       string    `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	CreatedAt      time.Time `db:"created_at"`
}
