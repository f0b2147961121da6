package session

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"Zaiqa/pkg/kit"
)

const CookieName = "zaiqa_session"

type ctxKey string

const scopeKey ctxKey = "scope"

func ScopeFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(scopeKey).(string)
	return v, ok && v != ""
}

func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

type Options struct {
	TTL    time.Duration
	Secure bool
	Log    *zap.Logger
}

// Middleware attaches the visitor scope to the request. A missing or
// invalid cookie starts a new scope: the previous cart is then out of reach,
// the same as a browser whose storage was cleared.
func Middleware(tm *TokenMaker, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(CookieName); err == nil {
				if claims, err := tm.Parse(c.Value); err == nil {
					next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), claims.Scope)))
					return
				}
			}

			scope, token, err := tm.NewScope(opts.TTL)
			if err != nil {
				if opts.Log != nil {
					opts.Log.Error("session token issue", zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}
