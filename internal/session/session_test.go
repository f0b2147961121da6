package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Zaiqa/internal/session"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	tm := session.NewTokenMaker(secret)

	scope, tok, err := tm.NewScope(time.Hour)
	if err != nil {
		t.Fatalf("new scope: %v", err)
	}

	c, err := tm.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Scope != scope {
		t.Fatalf("scope=%s want %s", c.Scope, scope)
	}
}

func TestParseRejects(t *testing.T) {
	tm := session.NewTokenMaker(secret)

	expired, _ := tm.New("6b0b8a4e-4b8e-4f0e-9a59-2f1d6f0e1a11", -time.Minute)
	other, _, _ := session.NewTokenMaker("ffffffffffffffffffffffffffffffff").NewScope(time.Hour)
	notUUID, _ := tm.New("visitor-1", time.Hour)

	for name, tok := range map[string]string{
		"expired":    expired,
		"foreign":    other,
		"not a uuid": notUUID,
		"garbage":    "abc.def.ghi",
	} {
		if _, err := tm.Parse(tok); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
}

func TestMiddleware_IssuesAndReusesScope(t *testing.T) {
	tm := session.NewTokenMaker(secret)

	var seen []string
	h := session.Middleware(tm, session.Options{TTL: time.Hour})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, ok := session.ScopeFromContext(r.Context())
		if !ok {
			t.Fatalf("no scope in context")
		}
		seen = append(seen, scope)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/page", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName || !cookies[0].HttpOnly {
		t.Fatalf("cookies=%+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("valid cookie was replaced")
	}
	if len(seen) != 2 || seen[0] != seen[1] {
		t.Fatalf("scopes=%v", seen)
	}
}

func TestMiddleware_ReplacesTamperedCookie(t *testing.T) {
	tm := session.NewTokenMaker(secret)
	h := session.Middleware(tm, session.Options{TTL: time.Hour})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "tampered"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if len(rec.Result().Cookies()) != 1 {
		t.Fatalf("expected a fresh cookie")
	}
}
