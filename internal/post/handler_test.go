// AngelaMos | 2026
// handler_test.go

package post_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
	"github.com/carterperez-dev/templates/go-microblog/internal/post"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
)

func newRouter(repo *memRepo, who identity.Identity) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(identity.WithIdentity(req.Context(), who)))
		})
	})

	passthrough := func(next http.Handler) http.Handler { return next }
	post.NewHandler(post.NewService(repo)).RegisterRoutes(r, passthrough)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandlerCreateAndFeed(t *testing.T) {
	repo := &memRepo{}
	router := newRouter(repo, alice)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"body":"hello"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created post.Response
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "hello", created.Body)
	assert.Equal(t, "alice", created.Author.Username)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var feed post.FeedResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &feed))
	require.Len(t, feed.Posts, 1)
	assert.True(t, feed.CanWrite)
}

func TestHandlerCreateForbiddenWithoutWrite(t *testing.T) {
	repo := &memRepo{}
	reader := writer{id: "bob-id", name: "bob", perms: role.Follow}
	router := newRouter(repo, reader)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"body":"hello"}`)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, rec).Error.Code)
	n, _ := repo.Count(context.Background())
	assert.Zero(t, n)
}

func TestHandlerCreateEmptyBody(t *testing.T) {
	repo := &memRepo{}
	router := newRouter(repo, alice)

	for _, body := range []string{`{"body":""}`, `{"body":"   "}`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, rec).Error.Code)
	}

	n, _ := repo.Count(context.Background())
	assert.Zero(t, n)
}

func TestHandlerMalformedJSON(t *testing.T) {
	router := newRouter(&memRepo{}, alice)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
