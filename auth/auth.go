// Package auth issues and verifies the signed tokens that identify a user
// across requests. A token is "<uid>.<unix expiry>.<hmac>" and travels either
// as an Authorization bearer token or as the session cookie.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/apperr"
	"github.com/mycoll/marketplace/internal/clock"
)

type ctxKey string

const (
	// SessionCookieName is the cookie carrying the token for browser clients.
	SessionCookieName = "session"
	userIDCtxKey      = ctxKey("userID")
)

// ErrUnauthorized is returned for a missing, malformed, forged or expired token.
var ErrUnauthorized = apperr.Unauthorized("unauthorized", "authentication required")

// Token is an issued credential.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Signer issues and verifies tokens with an HMAC-SHA256 secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	secure bool
}

// NewSigner creates a signer. Tokens expire ttl after issue, measured on c.
func NewSigner(secret string, ttl time.Duration, c clock.Clock) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, clock: c}
}

// WithSecureCookie marks session cookies Secure, for deployments behind TLS.
func (s *Signer) WithSecureCookie(secure bool) *Signer {
	s.secure = secure
	return s
}

// Issue creates a token for userID.
func (s *Signer) Issue(userID uint) Token {
	exp := s.clock.Now().Add(s.ttl).Truncate(time.Second)
	payload := strconv.FormatUint(uint64(userID), 10) + "." + strconv.FormatInt(exp.Unix(), 10)
	return Token{Value: payload + "." + s.sign(payload), ExpiresAt: exp}
}

// Verify checks the signature and expiry of value and returns its user id.
func (s *Signer) Verify(value string) (uint, error) {
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return 0, ErrUnauthorized
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(s.sign(payload))) {
		return 0, ErrUnauthorized
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || !s.clock.Now().Before(time.Unix(exp, 0)) {
		return 0, ErrUnauthorized.Withf("token expired")
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id64 == 0 {
		return 0, ErrUnauthorized
	}
	return uint(id64), nil
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SetCookie stores tok as the session cookie.
func (s *Signer) SetCookie(w http.ResponseWriter, tok Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    tok.Value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  tok.ExpiresAt,
	})
}

// ClearCookie deletes the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// TokenFromRequest returns the bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint)
	return id, ok && id != 0
}

// Middleware attaches the user id to the request context when a valid token
// is present. Invalid tokens are ignored here; RequireAuth rejects them.
func (s *Signer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := TokenFromRequest(r); tok != "" {
			if uid, err := s.Verify(tok); err == nil {
				r = r.WithContext(WithUserID(r.Context(), uid))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth returns 401 JSON when the request carries no valid token.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			httpx.WriteError(w, ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
