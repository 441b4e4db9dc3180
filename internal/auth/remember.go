// AngelaMos | 2026
// remember.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/go-microblog/internal/config"
	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

const (
	rememberTokenType = "remember"
	revokedKeyPrefix  = "remember:revoked:"
)

// RememberManager signs long-lived "remember me" tokens that restore a
// login once the server-side session has expired.
type RememberManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	config     config.RememberConfig
	secure     bool
	revoked    *redis.Client
	now        func() time.Time
}

type RememberOption func(*RememberManager)

func WithSecureCookie(secure bool) RememberOption {
	return func(m *RememberManager) {
		m.secure = secure
	}
}

// WithRevocation keeps revoked token IDs in Redis until they would have
// expired anyway.
func WithRevocation(client *redis.Client) RememberOption {
	return func(m *RememberManager) {
		m.revoked = client
	}
}

func withClock(now func() time.Time) RememberOption {
	return func(m *RememberManager) {
		m.now = now
	}
}

func NewRememberManager(
	cfg config.RememberConfig,
	opts ...RememberOption,
) (*RememberManager, error) {
	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return newRememberManager(privateKey, cfg, opts...)
}

func NewRememberManagerFromKey(
	key *ecdsa.PrivateKey,
	cfg config.RememberConfig,
	opts ...RememberOption,
) (*RememberManager, error) {
	privateKey, err := jwk.Import(key)
	if err != nil {
		return nil, fmt.Errorf("import private key: %w", err)
	}

	return newRememberManager(privateKey, cfg, opts...)
}

func newRememberManager(
	privateKey jwk.Key,
	cfg config.RememberConfig,
	opts ...RememberOption,
) (*RememberManager, error) {
	if err := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return nil, fmt.Errorf("set algorithm: %w", err)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	m := &RememberManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		config:     cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// EnsureKeyPair creates the signing key pair when it is missing and
// generation is enabled.
func EnsureKeyPair(cfg config.RememberConfig) error {
	if _, err := os.Stat(cfg.PrivateKeyPath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat private key: %w", err)
	}

	if !cfg.GenerateKeys {
		return fmt.Errorf("remember-me key %s not found", cfg.PrivateKeyPath)
	}

	return GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath)
}

func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	jwkPrivate, err := jwk.Import(privateKey)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	if setErr := jwkPrivate.Set(jwk.KeyIDKey, uuid.New().String()[:8]); setErr != nil {
		return fmt.Errorf("set key id: %w", setErr)
	}

	privatePEM, err := jwk.Pem(jwkPrivate)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}

	jwkPublic, err := jwkPrivate.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	publicPEM, err := jwk.Pem(jwkPublic)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	for _, path := range []string{privateKeyPath, publicKeyPath} {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o700); mkErr != nil {
			return fmt.Errorf("create key dir: %w", mkErr)
		}
	}

	if writeErr := os.WriteFile(privateKeyPath, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	//nolint:gosec // G306: public key is intentionally world-readable
	if writeErr := os.WriteFile(publicKeyPath, publicPEM, 0o644); writeErr != nil {
		return fmt.Errorf("write public key: %w", writeErr)
	}

	return nil
}

// Issue signs a remember token for userID and returns it with its expiry.
func (m *RememberManager) Issue(userID string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.config.Expire)

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(userID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(expires).
		Claim("type", rememberTokenType).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return string(signed), expires, nil
}

// Verify returns the user ID carried by a valid, unrevoked remember token.
func (m *RememberManager) Verify(ctx context.Context, raw string) (string, error) {
	token, err := m.parse(raw, true)
	if err != nil {
		return "", err
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return "", fmt.Errorf("verify remember token: missing subject: %w", core.ErrTokenInvalid)
	}

	if m.revoked != nil {
		jti, _ := token.JwtID()
		n, err := m.revoked.Exists(ctx, revokedKeyPrefix+jti).Result()
		if err != nil {
			return "", fmt.Errorf("check remember revocation: %w", err)
		}
		if n > 0 {
			return "", fmt.Errorf("verify remember token: %w", core.ErrTokenRevoked)
		}
	}

	return subject, nil
}

// Revoke blacklists raw until its natural expiry. Tokens that are already
// invalid or expired need no entry.
func (m *RememberManager) Revoke(ctx context.Context, raw string) error {
	if m.revoked == nil || raw == "" {
		return nil
	}

	token, err := m.parse(raw, false)
	if err != nil {
		return nil //nolint:nilerr // nothing to revoke
	}

	jti, _ := token.JwtID()
	exp, _ := token.Expiration()
	ttl := exp.Sub(m.now())
	if jti == "" || ttl <= 0 {
		return nil
	}

	if err := m.revoked.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke remember token: %w", err)
	}

	return nil
}

func (m *RememberManager) parse(raw string, validate bool) (jwt.Token, error) {
	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(validate),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify remember token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify remember token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil || tokenType != rememberTokenType {
		return nil, fmt.Errorf("verify remember token: wrong type: %w", core.ErrTokenInvalid)
	}

	return token, nil
}

func isTokenExpiredError(err error) bool {
	if errors.Is(err, jwt.TokenExpiredError()) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}

func (m *RememberManager) CookieName() string {
	return m.config.CookieName
}

func (m *RememberManager) FromRequest(r *http.Request) string {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// VerifyRequest resolves the remember cookie on r, if any, to a user ID.
func (m *RememberManager) VerifyRequest(ctx context.Context, r *http.Request) (string, error) {
	raw := m.FromRequest(r)
	if raw == "" {
		return "", fmt.Errorf("no remember cookie: %w", core.ErrUnauthorized)
	}
	return m.Verify(ctx, raw)
}

func (m *RememberManager) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *RememberManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
