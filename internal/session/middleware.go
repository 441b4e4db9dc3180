// AngelaMos | 2026
// middleware.go

package session

import (
	"log/slog"
	"net/http"
)

type commitWriter struct {
	http.ResponseWriter
	r         *http.Request
	manager   *Manager
	sess      *Session
	committed bool
}

func (w *commitWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	if err := w.manager.Commit(w.r.Context(), w.ResponseWriter, w.sess); err != nil {
		slog.ErrorContext(w.r.Context(), "commit session", "error", err)
	}
}

func (w *commitWriter) WriteHeader(status int) {
	w.commit()
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Middleware loads the session into the request context and commits it
// just before the response headers go out.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Load(r.Context(), r)
		if err != nil {
			slog.ErrorContext(r.Context(), "load session", "error", err)
			sess = &Session{}
		}

		r = r.WithContext(WithSession(r.Context(), sess))
		cw := &commitWriter{ResponseWriter: w, r: r, manager: m, sess: sess}

		next.ServeHTTP(cw, r)
		cw.commit()
	})
}
