package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"

	"github.com/hongminglow/recruit-portal/internal/account"
	"github.com/hongminglow/recruit-portal/internal/http/respond"
)

// SessionCookieName is the cookie that carries the session token for browsers.
const SessionCookieName = "recruit-session"

const (
	tokenValue  = "token"
	clientValue = "client"
)

type sessionContextKey struct{}

// Resumer turns a presented token back into an active session.
type Resumer interface {
	Resume(ctx context.Context, token string) (account.Session, error)
}

// Sessions resolves the caller's session from a Bearer token or the session cookie.
type Sessions struct {
	store   *sessions.CookieStore
	resumer Resumer
	log     *slog.Logger
}

// NewSessions creates a cookie-backed session resolver. The cookie lives as long as the token.
func NewSessions(secret string, ttl time.Duration, resumer Resumer, logger *slog.Logger) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store, resumer: resumer, log: logger}
}

// Middleware places the resolved account.Session in the request context.
// Requests without a usable token continue with an empty session.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = s.cookieToken(r)
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.resumer.Resume(r.Context(), token)
		if err != nil {
			if !errors.Is(err, account.ErrUnauthenticated) {
				s.log.ErrorContext(r.Context(), "resume session failed", slog.Any("error", err))
				respond.Error(w, http.StatusInternalServerError, "failed to resolve session")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// Save stores the token and the client it was issued to in the session cookie.
func (s *Sessions) Save(w http.ResponseWriter, r *http.Request, signedIn account.Session) error {
	sess, _ := s.store.Get(r, SessionCookieName)
	sess.Values[tokenValue] = signedIn.Token
	sess.Values[clientValue] = signedIn.ClientID
	return sess.Save(r, w)
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, SessionCookieName)
	delete(sess.Values, tokenValue)
	delete(sess.Values, clientValue)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// ClientID names the client making the request: the active session's client,
// else the one remembered in the cookie. Empty means a client not seen before.
func (s *Sessions) ClientID(r *http.Request) string {
	if id := SessionFrom(r.Context()).ClientID; id != "" {
		return id
	}
	sess, err := s.store.Get(r, SessionCookieName)
	if err != nil {
		return ""
	}
	id, _ := sess.Values[clientValue].(string)
	return id
}

func (s *Sessions) cookieToken(r *http.Request) string {
	// A cookie signed with a rotated secret fails to decode; treat it as absent.
	sess, err := s.store.Get(r, SessionCookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenValue].(string)
	return token
}

// RequireSession rejects requests that carry no active session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()).UserID == "" {
			respond.Error(w, http.StatusUnauthorized, account.ErrUnauthenticated.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess account.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFrom returns the session stored by the middleware, or the zero Session.
func SessionFrom(ctx context.Context) account.Session {
	sess, _ := ctx.Value(sessionContextKey{}).(account.Session)
	return sess
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
