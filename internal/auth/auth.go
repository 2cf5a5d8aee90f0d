// Package auth implements shared-token login with cookie sessions for
// the outreach API.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/voicehouse/outreach/internal/config"
	"github.com/voicehouse/outreach/internal/pkg/httputil"
	"github.com/voicehouse/outreach/internal/pkg/logger"
)

// Session represents an authenticated session
type Session struct {
	ID        string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager validates the shared access token and tracks sessions
type Manager struct {
	config    config.AuthConfig
	sessions  map[string]*Session
	sessionMu sync.RWMutex
	done      chan struct{}
}

// NewManager creates an authentication manager
func NewManager(cfg config.AuthConfig) *Manager {
	return &Manager{
		config:   cfg,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
}

// generateSessionID creates a random session ID
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

type loginRequest struct {
	AccessToken string `json:"access_token"`
}

// HandleLogin exchanges the shared access token for a session cookie.
// The comparison is constant-time so the token cannot be probed
// byte-by-byte through response timing.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.AccessToken), []byte(m.config.AccessToken)) != 1 {
		logger.Warn("login rejected", "remote", r.RemoteAddr)
		httputil.Error(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	sessionID, err := generateSessionID()
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	now := time.Now()
	session := &Session{
		ID:        sessionID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.SessionTTL()),
	}
	m.sessionMu.Lock()
	m.sessions[sessionID] = session
	m.sessionMu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   m.config.CookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.OK(w, map[string]any{"authenticated": true, "expires_at": session.ExpiresAt})
}

// HandleLogout invalidates the current session
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(m.config.CookieName); err == nil {
		m.sessionMu.Lock()
		delete(m.sessions, cookie.Value)
		m.sessionMu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:   m.config.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	httputil.OK(w, map[string]any{"authenticated": false})
}

// GetSession returns the session for the current request, or nil if
// not authenticated
func (m *Manager) GetSession(r *http.Request) *Session {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return nil
	}

	m.sessionMu.RLock()
	session, exists := m.sessions[cookie.Value]
	m.sessionMu.RUnlock()

	if !exists {
		return nil
	}
	if time.Now().After(session.ExpiresAt) {
		m.sessionMu.Lock()
		delete(m.sessions, cookie.Value)
		m.sessionMu.Unlock()
		return nil
	}
	return session
}

// IsAuthenticated checks if the request carries a live session
func (m *Manager) IsAuthenticated(r *http.Request) bool {
	return m.GetSession(r) != nil
}

// RequireAuth is middleware that rejects unauthenticated API requests.
// Auth and health endpoints stay open; everything else under /api
// needs a session. Disabled auth passes everything through.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/auth/") || strings.HasPrefix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") && !m.IsAuthenticated(r) {
			httputil.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartCleanup removes expired sessions periodically until Stop is
// called.
func (m *Manager) StartCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sessionMu.Lock()
				now := time.Now()
				for id, session := range m.sessions {
					if now.After(session.ExpiresAt) {
						delete(m.sessions, id)
					}
				}
				m.sessionMu.Unlock()
			case <-m.done:
				return
			}
		}
	}()
}

// Stop terminates the cleanup loop.
func (m *Manager) Stop() { close(m.done) }
