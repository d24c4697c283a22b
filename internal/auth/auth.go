// Package auth gates the catalog editor behind a single admin account.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

// CookieName is the admin session cookie.
const CookieName = "overo_session"

const loginBurst = 5

var (
	ErrBadCredentials = errors.New("invalid email or password")
	ErrRateLimited    = errors.New("too many login attempts")
)

// HashPassword returns a bcrypt hash suitable for admin.password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticator checks admin credentials and tracks logged-in sessions in
// memory. Sessions do not survive a restart.
type Authenticator struct {
	email     string
	hash      []byte
	ttl       time.Duration
	loginRate rate.Limit
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time
	limiters map[string]*rate.Limiter
}

// New creates an authenticator for one admin. An empty hash disables login.
// loginRate is the sustained number of login attempts per second allowed
// from one client address.
func New(email, passwordHash string, ttl time.Duration, loginRate float64) *Authenticator {
	return &Authenticator{
		email:     strings.ToLower(strings.TrimSpace(email)),
		hash:      []byte(passwordHash),
		ttl:       ttl,
		loginRate: rate.Limit(loginRate),
		now:       time.Now,
		sessions:  make(map[string]time.Time),
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (a *Authenticator) limiter(client string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.limiters[client]
	if !ok {
		l = rate.NewLimiter(a.loginRate, loginBurst)
		a.limiters[client] = l
	}
	return l
}

// Login checks credentials and opens a session, returning its token.
func (a *Authenticator) Login(client, email, password string) (string, error) {
	if !a.limiter(client).Allow() {
		klog.Warningf("login throttled for %s", client)
		return "", ErrRateLimited
	}
	if len(a.hash) == 0 {
		return "", ErrBadCredentials
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(a.email)) == 1
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil || !emailOK {
		klog.V(1).Infof("failed login for %q from %s", email, client)
		return "", ErrBadCredentials
	}

	token := uuid.NewString()
	a.mu.Lock()
	a.sessions[token] = a.now().Add(a.ttl)
	a.mu.Unlock()
	klog.Infof("admin logged in from %s", client)
	return token, nil
}

// Logout ends a session.
func (a *Authenticator) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// Valid reports whether token belongs to a live session.
func (a *Authenticator) Valid(token string) bool {
	if token == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	exp, ok := a.sessions[token]
	if !ok {
		return false
	}
	if a.now().After(exp) {
		delete(a.sessions, token)
		return false
	}
	return true
}

// Sweep drops expired sessions and idle login limiters.
func (a *Authenticator) Sweep() {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	for tok, exp := range a.sessions {
		if now.After(exp) {
			delete(a.sessions, tok)
		}
	}
	for client, l := range a.limiters {
		if l.Tokens() >= loginBurst {
			delete(a.limiters, client)
		}
	}
}

// SetCookie stores token in the response.
func (a *Authenticator) SetCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.ttl.Seconds()),
	})
}

// ClearCookie removes the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", HttpOnly: true, MaxAge: -1})
}

// TokenFromRequest returns the session token sent by the client.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

type tokenKey struct{}

// Token returns the session token stored by Require.
func Token(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// IsAdmin reports whether the request carries a live admin session.
func (a *Authenticator) IsAdmin(r *http.Request) bool {
	return a.Valid(TokenFromRequest(r))
}

// Require rejects requests without a live admin session with 401.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if !a.Valid(token) {
			http.Error(w, "admin login required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey{}, token)))
	})
}

// ClientAddr is the address used to throttle logins.
func ClientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
