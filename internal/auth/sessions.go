package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// DefaultSessionName is the cookie carrying the admin session.
const DefaultSessionName = "mdpages-session"

const sessionUserKey = "user_id"

type userContextKey struct{}

// Sessions keeps the signed-in admin in a gorilla cookie session.
type Sessions struct {
	store *sessions.CookieStore
	name  string
	users UserStore
}

// SessionOption configures Sessions.
type SessionOption func(*Sessions)

// WithSessionName overrides DefaultSessionName.
func WithSessionName(name string) SessionOption {
	return func(s *Sessions) {
		if name != "" {
			s.name = name
		}
	}
}

// WithMaxAge sets the cookie lifetime in seconds.
func WithMaxAge(seconds int) SessionOption {
	return func(s *Sessions) {
		s.store.MaxAge(seconds)
	}
}

// NewSessions builds a cookie store keyed by key, which must be at least
// 32 bytes.
func NewSessions(key string, users UserStore, opts ...SessionOption) (*Sessions, error) {
	if len(key) < 32 {
		return nil, ErrSessionKeyTooShort
	}
	store := sessions.NewCookieStore([]byte(key))
	store.Options.HttpOnly = true
	store.Options.Path = "/"
	store.Options.SameSite = http.SameSiteLaxMode

	s := &Sessions{store: store, name: DefaultSessionName, users: users}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Login records user in the session cookie.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, user *User) error {
	session, _ := s.store.Get(r, s.name)
	session.Values[sessionUserKey] = user.ID.String()
	session.Options.Secure = isSecure(r)
	return session.Save(r, w)
}

// Logout clears the session.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, s.name)
	delete(session.Values, sessionUserKey)
	session.Options.Secure = isSecure(r)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// CurrentUser loads the signed-in user, or returns ErrUnauthenticated.
func (s *Sessions) CurrentUser(r *http.Request) (*User, error) {
	if user, ok := r.Context().Value(userContextKey{}).(*User); ok && user != nil {
		return user, nil
	}
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	raw, _ := session.Values[sessionUserKey].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// RequireAdmin rejects requests without a valid session with 401 JSON and
// puts the user in the request context otherwise.
func (s *Sessions) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.CurrentUser(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "unauthorized",
				"message": "admin session required",
			})
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the admin placed by RequireAdmin.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.URL.Scheme == "https" || r.Header.Get("X-Forwarded-Proto") == "https"
}
