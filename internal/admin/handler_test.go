// AngelaMos | 2026
// handler_test.go

package admin_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/go-microblog/internal/admin"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
	"github.com/carterperez-dev/templates/go-microblog/internal/middleware"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
)

type viewer struct {
	perms role.Permission
	admin bool
}

func (v viewer) UserID() string { return "v1" }
func (v viewer) Handle() string { return "viewer" }
func (v viewer) IsAuthenticated() bool { return true }
func (v viewer) Can(p role.Permission) bool { return v.admin || v.perms&p == p }
func (v viewer) IsAdmin() bool { return v.admin }

func router(h *admin.Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r,
		middleware.RequireAdmin("/auth/login"),
		middleware.RequirePermission("/auth/login", role.Moderate),
	)
	return r
}

func get(h http.Handler, id identity.Identity, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(identity.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminPageAccess(t *testing.T) {
	r := router(admin.NewHandler(admin.HandlerConfig{}))

	assert.Equal(t, http.StatusSeeOther, get(r, identity.Anonymous, "/admin").Code)
	assert.Equal(t, http.StatusForbidden, get(r, viewer{perms: role.Moderate}, "/admin").Code)

	rec := get(r, viewer{admin: true}, "/admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "For administrators!")
}

func TestModeratePageAccess(t *testing.T) {
	r := router(admin.NewHandler(admin.HandlerConfig{}))

	assert.Equal(t, http.StatusForbidden, get(r, viewer{perms: role.Write}, "/moderate").Code)

	rec := get(r, viewer{perms: role.Moderate}, "/moderate")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "For comment moderators!")
}

type backend struct {
	err error
}

func (b backend) Ping(ctx context.Context) error { return b.err }
func (b backend) Stats() sql.DBStats { return sql.DBStats{MaxOpenConnections: 25} }
func (b backend) PoolStats() *redis.PoolStats { return &redis.PoolStats{Hits: 7} }

type count struct {
	n   int
	err error
}

func (c count) Count(ctx context.Context) (int, error) { return c.n, c.err }

func TestSystemStats(t *testing.T) {
	r := router(admin.NewHandler(admin.HandlerConfig{
		Database: backend{},
		Redis:    backend{err: errors.New("down")},
		Users:    count{n: 3},
		Posts:    count{n: 12},
	}))

	rec := get(r, viewer{admin: true}, "/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data admin.StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Database.Healthy)
	assert.EqualValues(t, 25, body.Data.Database.Pool["max_open"])
	assert.False(t, body.Data.Redis.Healthy)
	assert.EqualValues(t, 7, body.Data.Redis.Pool["hits"])
	assert.Equal(t, 3, body.Data.Content.Users)
	assert.Equal(t, 12, body.Data.Content.Posts)
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}

func TestSystemStatsWithoutBackends(t *testing.T) {
	r := router(admin.NewHandler(admin.HandlerConfig{}))

	rec := get(r, viewer{admin: true}, "/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy":false`)
}

func TestSystemStatsCountFailure(t *testing.T) {
	r := router(admin.NewHandler(admin.HandlerConfig{
		Users: count{err: errors.New("boom")},
		Posts: count{n: 1},
	}))

	rec := get(r, viewer{admin: true}, "/admin/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}
