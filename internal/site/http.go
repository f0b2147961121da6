package site

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Zaiqa/internal/cart"
	"Zaiqa/internal/handoff"
	"Zaiqa/internal/menu"
	"Zaiqa/internal/page"
	"Zaiqa/internal/reservation"
	"Zaiqa/internal/session"
	"Zaiqa/pkg/kit"
)

const maxBodyBytes = 16 << 10

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Pages   *page.Registry
	Menu    *menu.Server
	Contact handoff.Contact
	Metrics *CartMetrics
	Log     *zap.Logger

	// Ready lists the dependencies /readyz pings, by name.
	Ready map[string]Pinger
}

type addItemRequest struct {
	Name  string         `json:"name"`
	Price cart.PriceAttr `json:"price"`
}

type closeRequest struct {
	Reason string `json:"reason"`
}

type lightboxRequest struct {
	Src string `json:"src"`
}

type navRequest struct {
	Open bool `json:"open"`
}

type reservationResponse struct {
	HandoffURL string `json:"handoff_url"`
}

func (s *Server) loadPage(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	p := s.Pages.Load(r.Context(), scope)
	kit.WriteJSON(w, http.StatusOK, p.State())
}

func (s *Server) pageState(w http.ResponseWriter, r *http.Request) {
	p, ok := s.current(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, p.State())
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid json", nil)
		return
	}

	p, ok := s.current(w, r)
	if !ok {
		return
	}

	// Bad add triggers are skipped, the page keeps its state.
	in, err := cart.ParseAddInput(req.Name, req.Price)
	if err != nil {
		s.Log.Debug("add item skipped", zap.Error(err), zap.String("name", req.Name))
		kit.WriteJSON(w, http.StatusOK, p.State())
		return
	}

	st := p.AddItem(r.Context(), in)
	s.Metrics.mutation("add")
	kit.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) increase(w http.ResponseWriter, r *http.Request) {
	s.changeQuantity(w, r, 1, "increase")
}

func (s *Server) decrease(w http.ResponseWriter, r *http.Request) {
	s.changeQuantity(w, r, -1, "decrease")
}

func (s *Server) changeQuantity(w http.ResponseWriter, r *http.Request, delta int, op string) {
	name, ok := itemName(w, r)
	if !ok {
		return
	}
	p, ok := s.current(w, r)
	if !ok {
		return
	}

	st := p.ChangeQuantity(r.Context(), name, delta)
	s.Metrics.mutation(op)
	kit.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	name, ok := itemName(w, r)
	if !ok {
		return
	}
	p, ok := s.current(w, r)
	if !ok {
		return
	}

	st := p.RemoveItem(r.Context(), name)
	s.Metrics.mutation("remove")
	kit.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) openCart(w http.ResponseWriter, r *http.Request) {
	p, ok := s.current(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, p.OpenCart())
}

func (s *Server) closeCart(w http.ResponseWriter, r *http.Request) {
	reason, ok := closeReason(w, r)
	if !ok {
		return
	}
	p, ok := s.current(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, p.CloseCart(reason))
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := s.current(w, r)
	if !ok {
		return
	}

	st, sent := p.Checkout()
	if sent {
		s.Metrics.checkout("sent")
	} else {
		s.Metrics.checkout("empty")
	}
	kit.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) openProduct(w http.ResponseWriter, r *http.Request) {
	d, ok := s.Menu.Lookup(w, r)
	if !ok {
		return
	}
	p, ok := s.current(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, p.ShowProduct(d))
}

func (s *Server) openLightbox(w http.ResponseWriter, r *http.Request) {
	var req lightboxRequest
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil || req.Src == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "src is required", nil)
		return
	}
	p, ok := s.current(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, p.ShowLightbox(req.Src))
}

func (s *Server) setNav(w http.ResponseWriter, r *http.Request) {
	var req navRequest
	if r.ContentLength != 0 {
		if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid json", nil)
			return
		}
	}
	p, ok := s.current(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, p.SetNav(req.Open))
}

func (s *Server) closeOverlay(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid overlay", nil)
		return
	}
	reason, ok := closeReason(w, r)
	if !ok {
		return
	}
	p, ok := s.current(w, r)
	if !ok {
		return
	}

	st, err := p.CloseOverlay(name, reason)
	if errors.Is(err, page.ErrUnknownOverlay) {
		kit.WriteError(w, r, http.StatusNotFound, "unknown overlay", map[string]any{"name": name})
		return
	}
	kit.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) reserve(w http.ResponseWriter, r *http.Request) {
	var req reservation.Request
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid json", nil)
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		var fe reservation.FieldErrors
		if errors.As(err, &fe) {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid reservation", fe)
			return
		}
		kit.WriteError(w, r, http.StatusBadRequest, "invalid reservation", nil)
		return
	}

	s.Metrics.reservation()
	kit.WriteJSON(w, http.StatusOK, reservationResponse{HandoffURL: s.Contact.Link(req.Message())})
}

func (s *Server) toggleTheme(w http.ResponseWriter, r *http.Request) {
	p, ok := s.current(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, p.ToggleTheme(r.Context()))
}

func (s *Server) current(w http.ResponseWriter, r *http.Request) (*page.Page, bool) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return nil, false
	}
	return s.Pages.Current(r.Context(), scope), true
}

func scopeOf(w http.ResponseWriter, r *http.Request) (string, bool) {
	scope, ok := session.ScopeFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return "", false
	}
	return scope, true
}

func itemName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid item name", nil)
		return "", false
	}
	return name, true
}

// closeReason reads the optional {reason} body. No body means explicit.
func closeReason(w http.ResponseWriter, r *http.Request) (cart.CloseReason, bool) {
	var req closeRequest
	if r.ContentLength != 0 {
		if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid json", nil)
			return "", false
		}
	}

	reason, ok := cart.ParseCloseReason(req.Reason)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid close reason", map[string]any{"reason": req.Reason})
		return "", false
	}
	return reason, true
}
