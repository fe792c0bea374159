package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/recruit-portal/internal/account"
)

var quiet = slog.New(slog.NewJSONHandler(io.Discard, nil))

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSReflectsAllowedOrigin(t *testing.T) {
	h := CORS([]string{"https://portal.example"}, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://portal.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://portal.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSWildcardAndPreflight(t *testing.T) {
	called := false
	h := CORS([]string{"*"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://anywhere.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req = req.WithContext(WithSession(req.Context(), account.Session{UserID: "u1"}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http_request", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.EqualValues(t, 404, line["status"])
	assert.Equal(t, "/missing", line["path"])
	assert.Equal(t, "u1", line["user_id"])
}

func TestRecoveryReturns500(t *testing.T) {
	h := Recovery(quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimiterPerClient(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRateLimiter(2, time.Minute, slog.New(slog.NewJSONHandler(&buf, nil)))
	defer rl.Stop()
	h := rl.Middleware(okHandler())

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:2222").Code)
	limited := send("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rate limit exceeded", line["msg"])
	assert.Equal(t, "10.0.0.1", line["client_ip"])

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111").Code)
	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(5, time.Hour, quiet)
	defer rl.Stop()
	rl.limiterFor("10.0.0.1")

	rl.evictIdle(time.Now(), time.Minute)
	assert.Equal(t, 1, rl.Clients())

	rl.evictIdle(time.Now().Add(2*time.Minute), time.Minute)
	assert.Equal(t, 0, rl.Clients())
}

type fakeResumer struct {
	sessions map[string]account.Session
	err      error
}

func (f fakeResumer) Resume(_ context.Context, token string) (account.Session, error) {
	if f.err != nil {
		return account.Session{}, f.err
	}
	sess, ok := f.sessions[token]
	if !ok {
		return account.Session{}, account.ErrUnauthenticated
	}
	return sess, nil
}

func captureSession(got *account.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = SessionFrom(r.Context())
	})
}

func TestSessionsFromBearer(t *testing.T) {
	s := NewSessions("cookie-secret", time.Hour, fakeResumer{sessions: map[string]account.Session{
		"good": {UserID: "u1", Token: "good"},
	}}, quiet)

	var got account.Session
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	s.Middleware(captureSession(&got)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u1", got.UserID)

	got = account.Session{}
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer stale")
	s.Middleware(captureSession(&got)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, got.UserID)
}

func TestSessionsCookieRoundTrip(t *testing.T) {
	s := NewSessions("cookie-secret", time.Hour, fakeResumer{sessions: map[string]account.Session{
		"good": {ClientID: "c1", UserID: "u1", Token: "good"},
	}}, quiet)

	saved := httptest.NewRecorder()
	require.NoError(t, s.Save(saved, httptest.NewRequest(http.MethodPost, "/login", nil),
		account.Session{ClientID: "c1", UserID: "u1", Token: "good"}))
	cookies := saved.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	var got account.Session
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	s.Middleware(captureSession(&got)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "c1", got.ClientID)

	cleared := httptest.NewRecorder()
	require.NoError(t, s.Clear(cleared, req))
	expired := cleared.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Less(t, expired[0].MaxAge, 0)
}

func TestSessionsClientID(t *testing.T) {
	s := NewSessions("cookie-secret", time.Hour, fakeResumer{}, quiet)

	assert.Empty(t, s.ClientID(httptest.NewRequest(http.MethodPost, "/login", nil)))

	saved := httptest.NewRecorder()
	require.NoError(t, s.Save(saved, httptest.NewRequest(http.MethodPost, "/login", nil),
		account.Session{ClientID: "c1", UserID: "u1", Token: "revoked"}))

	// The token no longer resolves but the browser is still the same client.
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(saved.Result().Cookies()[0])
	assert.Equal(t, "c1", s.ClientID(req))

	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req = req.WithContext(WithSession(req.Context(), account.Session{ClientID: "c2", UserID: "u2"}))
	assert.Equal(t, "c2", s.ClientID(req))
}

func TestSessionsStoreFailure(t *testing.T) {
	s := NewSessions("cookie-secret", time.Hour, fakeResumer{err: errors.New("redis down")}, quiet)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	s.Middleware(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireSession(t *testing.T) {
	h := RequireSession(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/requests", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req = req.WithContext(WithSession(req.Context(), account.Session{UserID: "u1"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
