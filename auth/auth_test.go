package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycoll/marketplace/internal/clock"
)

func newSigner() (*Signer, *clock.Fixed) {
	c := clock.NewFixed(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	return NewSigner("test-secret", time.Hour, c), c
}

func TestIssueAndVerify(t *testing.T) {
	s, _ := newSigner()
	tok := s.Issue(42)

	uid, err := s.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)
	assert.Equal(t, time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), tok.ExpiresAt.UTC())
}

func TestVerifyRejectsExpired(t *testing.T) {
	s, c := newSigner()
	tok := s.Issue(1)
	c.Advance(time.Hour)

	_, err := s.Verify(tok.Value)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestVerifyRejectsTampered(t *testing.T) {
	s, _ := newSigner()
	tok := s.Issue(1)
	forged := "2" + strings.TrimPrefix(tok.Value, "1")

	for _, v := range []string{"", "garbage", "1.2", forged} {
		_, err := s.Verify(v)
		assert.Error(t, err, v)
	}

	other := NewSigner("other", time.Hour, clock.NewFixed(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	_, err := other.Verify(tok.Value)
	assert.Error(t, err)
}

func TestMiddlewareBearerAndCookie(t *testing.T) {
	s, _ := newSigner()
	tok := s.Issue(7)

	var got uint
	h := s.Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), got)

	setRec := httptest.NewRecorder()
	s.SetCookie(setRec, tok)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range setRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	s, _ := newSigner()
	h := s.Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized","message":"authentication required"}`, rec.Body.String())
}
