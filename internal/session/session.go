// AngelaMos | 2026
// session.go

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/go-microblog/internal/config"
	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

const (
	keyPrefix = "session:"
	idBytes   = 32
)

type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Manager keeps session state in Redis and only the opaque ID in the
// cookie.
type Manager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

type Session struct {
	ID string

	userID    string
	flashes   []Flash
	staleID   string
	stored    bool
	dirty     bool
	destroyed bool
}

type payload struct {
	UserID  string  `json:"user_id,omitempty"`
	Flashes []Flash `json:"flashes,omitempty"`
}

func NewManager(client *redis.Client, cfg config.SessionConfig) *Manager {
	return &Manager{
		client:     client,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Load returns the session named by the request cookie. An unknown or
// expired ID is never adopted: the caller gets a fresh session instead.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}, nil
	}

	data, err := m.client.Get(ctx, m.key(cookie.Value)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var stored payload
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &Session{
		ID:      cookie.Value,
		userID:  stored.UserID,
		flashes: stored.Flashes,
		stored:  true,
	}, nil
}

// Commit writes the session back and sets or clears the cookie. A session
// that was never stored and carries nothing is left alone so anonymous
// visitors do not get a cookie.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := m.delete(ctx, sess.ID, sess.staleID); err != nil {
			return err
		}
		m.clearCookie(w)
		return nil
	}

	if sess.staleID != "" {
		if err := m.delete(ctx, sess.staleID); err != nil {
			return err
		}
		sess.staleID = ""
	}

	if !sess.dirty && !sess.stored {
		return nil
	}

	if sess.ID == "" {
		id, err := core.GenerateSecureToken(idBytes)
		if err != nil {
			return fmt.Errorf("generate session id: %w", err)
		}
		sess.ID = id
	}

	if sess.dirty {
		data, err := json.Marshal(payload{UserID: sess.userID, Flashes: sess.flashes})
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		if err := m.client.Set(ctx, m.key(sess.ID), data, m.ttl).Err(); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		sess.dirty = false
	} else if err := m.client.Expire(ctx, m.key(sess.ID), m.ttl).Err(); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	sess.stored = true

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})

	return nil
}

// Destroy marks the session for removal on the next Commit.
func (m *Manager) Destroy(sess *Session) {
	if sess != nil {
		sess.destroyed = true
	}
}

// Renew moves the session to a fresh ID, keeping its contents. Call it
// whenever the privilege level changes so a planted ID is worthless.
func (m *Manager) Renew(sess *Session) {
	if sess == nil {
		return
	}
	if sess.stored && sess.staleID == "" {
		sess.staleID = sess.ID
	}
	sess.ID = ""
	sess.stored = false
	sess.dirty = true
}

func (m *Manager) delete(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			keys = append(keys, m.key(id))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) key(id string) string {
	return keyPrefix + id
}

func (s *Session) SetUser(id string) {
	s.userID = id
	s.dirty = true
}

func (s *Session) User() string {
	return s.userID
}

func (s *Session) AddFlash(kind, message string) {
	s.flashes = append(s.flashes, Flash{Kind: kind, Message: message})
	s.dirty = true
}

// PopFlashes returns every pending flash and clears them.
func (s *Session) PopFlashes() []Flash {
	if len(s.flashes) == 0 {
		return nil
	}
	out := s.flashes
	s.flashes = nil
	s.dirty = true
	return out
}

type contextKey struct{}

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns nil outside the session middleware.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}

// AddFlash queues a message on the request's session, if there is one.
func AddFlash(ctx context.Context, kind, message string) {
	if sess := FromContext(ctx); sess != nil {
		sess.AddFlash(kind, message)
	}
}

func PopFlashes(ctx context.Context) []Flash {
	if sess := FromContext(ctx); sess != nil {
		return sess.PopFlashes()
	}
	return nil
}
