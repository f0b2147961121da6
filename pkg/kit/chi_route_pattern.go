package kit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiRoutePattern labels a request by its matched route so that paths
// carrying item names do not explode metric cardinality.
func ChiRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if rp := rctx.RoutePattern(); rp != "" {
		return rp
	}
	return "unmatched"
}
