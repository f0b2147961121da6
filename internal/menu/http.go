package menu

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Zaiqa/internal/handoff"
	"Zaiqa/pkg/kit"
)

type Server struct {
	Store   Store
	Contact handoff.Contact
	Log     *zap.Logger
}

func (s *Server) ListHandler() http.HandlerFunc { return s.list }
func (s *Server) GetHandler() http.HandlerFunc  { return s.get }

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.List(r.Context())
	if err != nil {
		if s.Log != nil {
			s.Log.Error("list menu failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	q := r.URL.Query()
	kit.WriteJSON(w, http.StatusOK, Sections(items, q.Get("filter"), q.Get("q")))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, d)
}

// Lookup resolves the {id} URL param into a Detail, writing the error
// response itself when it cannot.
func (s *Server) Lookup(w http.ResponseWriter, r *http.Request) (Detail, bool) {
	return s.lookup(w, r)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (Detail, bool) {
	id := chi.URLParam(r, "id")

	it, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("get menu item failed", zap.Error(err), zap.String("id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return Detail{}, false
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return Detail{}, false
	}
	return NewDetail(it, s.Contact), true
}
