// AngelaMos | 2026
// remember_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/go-microblog/internal/config"
	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

var testRememberConfig = config.RememberConfig{
	CookieName: "remember_token",
	Expire:     24 * time.Hour,
	Issuer:     "microblog",
	Audience:   "microblog-web",
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestRemember(t *testing.T, opts ...RememberOption) (*RememberManager, *fakeClock, *miniredis.Miniredis) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]RememberOption{withClock(clock.now), WithRevocation(client)}, opts...)

	m, err := NewRememberManagerFromKey(key, testRememberConfig, opts...)
	require.NoError(t, err)
	return m, clock, mr
}

func TestRememberIssueVerify(t *testing.T) {
	m, _, _ := newTestRemember(t)

	token, expires, err := m.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), expires)

	userID, err := m.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestRememberExpired(t *testing.T) {
	m, clock, _ := newTestRemember(t)

	token, _, err := m.Issue("user-1")
	require.NoError(t, err)

	clock.t = clock.t.Add(25 * time.Hour)

	_, err = m.Verify(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestRememberRevoked(t *testing.T) {
	m, clock, mr := newTestRemember(t)
	ctx := context.Background()

	token, _, err := m.Issue("user-1")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, token))

	_, err = m.Verify(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, 24*time.Hour, mr.TTL(keys[0]))

	clock.t = clock.t.Add(time.Hour)
	other, _, err := m.Issue("user-1")
	require.NoError(t, err)
	_, err = m.Verify(ctx, other)
	assert.NoError(t, err)
}

func TestRememberRejectsForeignSignature(t *testing.T) {
	m, _, _ := newTestRemember(t)
	other, _, _ := newTestRemember(t)

	token, _, err := other.Issue("user-1")
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = m.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRevokeIgnoresGarbage(t *testing.T) {
	m, _, mr := newTestRemember(t)

	assert.NoError(t, m.Revoke(context.Background(), "garbage"))
	assert.NoError(t, m.Revoke(context.Background(), ""))
	assert.Empty(t, mr.Keys())
}

func TestVerifyRequestWithoutCookie(t *testing.T) {
	m, _, _ := newTestRemember(t)

	_, err := m.VerifyRequest(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestRememberCookieRoundTrip(t *testing.T) {
	m, _, _ := newTestRemember(t, WithSecureCookie(true))

	token, expires, err := m.Issue("user-1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.SetCookie(rec, token, expires)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	userID, err := m.VerifyRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestEnsureKeyPair(t *testing.T) {
	dir := t.TempDir()
	cfg := testRememberConfig
	cfg.PrivateKeyPath = filepath.Join(dir, "keys", "private.pem")
	cfg.PublicKeyPath = filepath.Join(dir, "keys", "public.pem")

	assert.Error(t, EnsureKeyPair(cfg))

	cfg.GenerateKeys = true
	require.NoError(t, EnsureKeyPair(cfg))

	m, err := NewRememberManager(cfg)
	require.NoError(t, err)

	token, _, err := m.Issue("user-1")
	require.NoError(t, err)
	userID, err := m.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}
