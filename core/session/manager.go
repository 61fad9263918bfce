package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager ties the session store to the HTTP layer. The cookie value is an
// HS256 JWT wrapping the session id, so a tampered cookie fails signature
// verification before the store is ever consulted.
type Manager struct {
	store      Store
	secret     []byte
	cookieName string
}

// NewManager creates a session manager signing cookies with secret.
func NewManager(store Store, secret, cookieName string) *Manager {
	return &Manager{
		store:      store,
		secret:     []byte(secret),
		cookieName: cookieName,
	}
}

// signSID wraps a session id in a signed token.
func (m *Manager) signSID(sid string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: sid,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// parseSID extracts the session id from a signed cookie value.
func (m *Manager) parseSID(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid session cookie: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("session cookie has no subject")
	}
	return claims.Subject, nil
}

// sid returns the session id carried by the request, if a valid cookie exists.
func (m *Manager) sid(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	sid, err := m.parseSID(cookie.Value)
	if err != nil {
		return "", false
	}
	return sid, true
}

// issue creates a fresh session id and sets its cookie on the response.
func (m *Manager) issue(w http.ResponseWriter) (string, error) {
	sid := uuid.NewString()
	value, err := m.signSID(sid)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}

// Ensure returns the request's session id, issuing a new session when the
// request carries none. Anonymous visitors get a session too, so flash
// notices work before login.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if sid, ok := m.sid(r); ok {
		return sid, nil
	}
	return m.issue(w)
}

// Login binds a user to a fresh session. The session id is rotated so a
// pre-login cookie cannot be replayed as an authenticated one.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int64) error {
	if old, ok := m.sid(r); ok {
		if err := m.store.Clear(ctx, old); err != nil {
			return err
		}
	}
	sid, err := m.issue(w)
	if err != nil {
		return err
	}
	return m.store.SetUser(ctx, sid, userID)
}

// Logout clears the session state and expires the cookie.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if sid, ok := m.sid(r); ok {
		if err := m.store.Clear(ctx, sid); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// UserID returns the user bound to the request's session, if any.
func (m *Manager) UserID(ctx context.Context, r *http.Request) (int64, bool, error) {
	sid, ok := m.sid(r)
	if !ok {
		return 0, false, nil
	}
	return m.store.User(ctx, sid)
}

// Flash queues a one-time notice for the request's session.
func (m *Manager) Flash(ctx context.Context, w http.ResponseWriter, r *http.Request, message string) error {
	sid, err := m.Ensure(w, r)
	if err != nil {
		return err
	}
	return m.store.AddFlash(ctx, sid, message)
}

// Flashes returns and clears the notices queued for the request's session.
func (m *Manager) Flashes(ctx context.Context, r *http.Request) ([]string, error) {
	sid, ok := m.sid(r)
	if !ok {
		return nil, nil
	}
	return m.store.PopFlashes(ctx, sid)
}
