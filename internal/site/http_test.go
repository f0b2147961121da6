package site_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"Zaiqa/internal/handoff"
	"Zaiqa/internal/menu"
	"Zaiqa/internal/page"
	"Zaiqa/internal/session"
	"Zaiqa/internal/site"
	"Zaiqa/internal/storage"
	"Zaiqa/pkg/kit"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	ts      *httptest.Server
	metrics *site.CartMetrics
}

type options struct {
	checkoutLimit int
	kv            storage.KV
	metricsHash   string
}

func newSiteTS(t *testing.T, opt options) testEnv {
	t.Helper()

	kv := opt.kv
	if kv == nil {
		kv = storage.NewMemKV()
	}
	contact := handoff.DefaultContact()
	reg := prometheus.NewRegistry()
	metrics := site.NewCartMetrics(reg)

	pages := page.NewRegistry(page.Deps{
		KV:        kv,
		Contact:   contact,
		Log:       zap.NewNop(),
		OnDegrade: metrics.Degraded,
	}, time.Hour)
	site.RegisterPageGauge(reg, pages)

	menuStore := menu.NewMemStore()
	s := &site.Server{
		Pages:   pages,
		Menu:    &menu.Server{Store: menuStore, Contact: contact},
		Contact: contact,
		Metrics: metrics,
		Ready:   map[string]site.Pinger{"kv": kv, "menu": menuStore},
	}

	var checkoutLimiter *kit.IPRateLimiter
	if opt.checkoutLimit > 0 {
		checkoutLimiter = kit.NewIPRateLimiter(opt.checkoutLimit, time.Minute)
	}

	h := site.NewHandler(s, site.HTTPDeps{
		Log:              zap.NewNop(),
		Service:          "site",
		Registry:         reg,
		MetricsEnabled:   opt.metricsHash != "",
		MetricsTokenHash: opt.metricsHash,
		Sessions:         session.NewTokenMaker(testSecret),
		SessionOptions:   session.Options{TTL: time.Hour},
		CheckoutLimiter:  checkoutLimiter,
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return testEnv{ts: ts, metrics: metrics}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func doState(t *testing.T, c *http.Client, method, url string, body any) page.State {
	t.Helper()

	resp, raw := doJSON(t, c, method, url, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s %s status=%d body=%s", method, url, resp.StatusCode, string(raw))
	}

	var st page.State
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("decode state: %v body=%s", err, string(raw))
	}
	return st
}

func itemURL(base, name, action string) string {
	u := base + "/api/cart/items/" + url.PathEscape(name)
	if action != "" {
		u += "/" + action
	}
	return u
}

func TestSite_CartHappyPath(t *testing.T) {
	env := newSiteTS(t, options{})
	base := env.ts.URL
	c := newClient(t)

	st := doState(t, c, http.MethodGet, base+"/api/page", nil)
	if st.Cart.Count != 0 || st.Cart.BadgeVisible || st.Cart.TotalText != "Rs. 0" {
		t.Fatalf("fresh page cart=%+v", st.Cart)
	}

	st = doState(t, c, http.MethodPost, base+"/api/cart/items", map[string]any{"name": "Chicken Biryani", "price": "500"})
	if len(st.Notices) != 1 || st.Notices[0] != "Added Chicken Biryani to cart!" {
		t.Fatalf("notices=%v", st.Notices)
	}
	doState(t, c, http.MethodPost, base+"/api/cart/items", map[string]any{"name": "Chicken Biryani", "price": 500})

	st = doState(t, c, http.MethodPost, base+"/api/menu/pulao/open", nil)
	if st.Overlays.Product == nil || st.Overlays.Product.AddToCart.Price != "650" || !st.ScrollLocked {
		t.Fatalf("product overlay=%+v locked=%v", st.Overlays.Product, st.ScrollLocked)
	}
	add := st.Overlays.Product.AddToCart
	doState(t, c, http.MethodPost, base+"/api/cart/items", map[string]any{"name": add.Name, "price": add.Price})
	doState(t, c, http.MethodPost, base+"/api/overlays/product/close", map[string]any{"reason": "cancel_key"})

	st = doState(t, c, http.MethodPost, base+"/api/cart/open", nil)
	if !st.Cart.Open || !st.ScrollLocked {
		t.Fatalf("cart not open: %+v", st.Cart)
	}
	if st.Cart.Count != 3 || st.Cart.Total != 1650 || st.Cart.TotalText != "Rs. 1650" {
		t.Fatalf("cart=%+v", st.Cart)
	}
	if len(st.Cart.Rows) != 2 || st.Cart.Rows[0].Name != "Chicken Biryani" || st.Cart.Rows[0].Qty != 2 || st.Cart.Rows[0].PriceText != "Rs. 1000" {
		t.Fatalf("rows=%+v", st.Cart.Rows)
	}

	st = doState(t, c, http.MethodPost, itemURL(base, "Chicken Biryani", "decrease"), nil)
	if st.Cart.Count != 2 || st.Cart.Rows[0].Qty != 1 {
		t.Fatalf("after decrease=%+v", st.Cart)
	}
	st = doState(t, c, http.MethodPost, itemURL(base, "Beef Pulao", "increase"), nil)
	if st.Cart.Total != 1800 {
		t.Fatalf("total after increase=%d", st.Cart.Total)
	}

	st, _ = doCheckout(t, c, base)
	want := "https://wa.me/923272591778?text=Hi%2C%20I%20would%20like%20to%20place%20an%20order%3A"
	if !strings.HasPrefix(st.HandoffURL, want) {
		t.Fatalf("handoff=%s", st.HandoffURL)
	}
	if !strings.Contains(st.HandoffURL, "Chicken%20Biryani%20x1%20(Rs.%20500)") {
		t.Fatalf("handoff missing biryani line: %s", st.HandoffURL)
	}

	st = doState(t, c, http.MethodDelete, itemURL(base, "Chicken Biryani", ""), nil)
	if st.Cart.Count != 2 || len(st.Cart.Rows) != 1 {
		t.Fatalf("after remove=%+v", st.Cart)
	}

	st = doState(t, c, http.MethodPost, base+"/api/cart/close", map[string]any{"reason": "outside_click"})
	if st.Cart.Open || st.ScrollLocked {
		t.Fatalf("close left cart=%+v locked=%v", st.Cart, st.ScrollLocked)
	}

	if got := testutil.ToFloat64(env.metrics.Checkouts.WithLabelValues("sent")); got != 1 {
		t.Fatalf("sent checkouts=%v", got)
	}
	if got := testutil.ToFloat64(env.metrics.Mutations.WithLabelValues("add")); got != 3 {
		t.Fatalf("add mutations=%v", got)
	}
}

func doCheckout(t *testing.T, c *http.Client, base string) (page.State, int) {
	t.Helper()

	resp, raw := doJSON(t, c, http.MethodPost, base+"/api/cart/checkout", nil)
	if resp.StatusCode != http.StatusOK {
		return page.State{}, resp.StatusCode
	}
	var st page.State
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("decode checkout: %v body=%s", err, string(raw))
	}
	return st, resp.StatusCode
}

func TestSite_CartSurvivesPageLoadPerVisitor(t *testing.T) {
	env := newSiteTS(t, options{kv: storage.NewMemKV()})
	base := env.ts.URL

	alice := newClient(t)
	doState(t, alice, http.MethodGet, base+"/api/page", nil)
	doState(t, alice, http.MethodPost, base+"/api/cart/items", map[string]any{"name": "Seekh Kebab", "price": "300"})
	doState(t, alice, http.MethodPost, base+"/api/cart/items", map[string]any{"name": "Seekh Kebab", "price": "300"})

	st := doState(t, alice, http.MethodGet, base+"/api/page", nil)
	if st.Cart.Count != 2 || !st.Cart.BadgeVisible || st.Cart.Total != 600 || st.Cart.Open {
		t.Fatalf("reloaded cart=%+v", st.Cart)
	}

	bob := newClient(t)
	st = doState(t, bob, http.MethodGet, base+"/api/page", nil)
	if st.Cart.Count != 0 {
		t.Fatalf("other visitor sees cart=%+v", st.Cart)
	}
}

func TestSite_InvalidAddKeepsState(t *testing.T) {
	env := newSiteTS(t, options{})
	base := env.ts.URL
	c := newClient(t)

	doState(t, c, http.MethodPost, base+"/api/cart/items", map[string]any{"name": "Garlic Naan", "price": "60"})

	for _, body := range []map[string]any{
		{"name": "", "price": "60"},
		{"name": "Garlic Naan", "price": "abc"},
		{"name": "Garlic Naan", "price": "-5"},
		{"name": "Garlic Naan"},
	} {
		st := doState(t, c, http.MethodPost, base+"/api/cart/items", body)
		if st.Cart.Count != 1 || len(st.Notices) != 0 {
			t.Fatalf("body=%v cart=%+v notices=%v", body, st.Cart, st.Notices)
		}
	}

	resp, raw := doJSON(t, c, http.MethodPost, base+"/api/cart/items", map[string]any{"name": "x", "price": "1", "extra": true})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestSite_EmptyCheckoutAlerts(t *testing.T) {
	env := newSiteTS(t, options{})
	c := newClient(t)

	st, code := doCheckout(t, c, env.ts.URL)
	if code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if st.HandoffURL != "" || len(st.Alerts) != 1 || st.Alerts[0] != "Your cart is empty!" {
		t.Fatalf("state=%+v", st)
	}
	if got := testutil.ToFloat64(env.metrics.Checkouts.WithLabelValues("empty")); got != 1 {
		t.Fatalf("empty checkouts=%v", got)
	}
}

func TestSite_CheckoutRateLimited(t *testing.T) {
	env := newSiteTS(t, options{checkoutLimit: 1})
	c := newClient(t)

	if _, code := doCheckout(t, c, env.ts.URL); code != http.StatusOK {
		t.Fatalf("first status=%d", code)
	}
	if _, code := doCheckout(t, c, env.ts.URL); code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", code)
	}
}

func TestSite_CloseReasons(t *testing.T) {
	env := newSiteTS(t, options{})
	base := env.ts.URL
	c := newClient(t)

	for _, reason := range []string{"explicit", "outside_click", "cancel_key", "navigate_away", ""} {
		doState(t, c, http.MethodPost, base+"/api/cart/open", nil)

		var body any
		if reason != "" {
			body = map[string]any{"reason": reason}
		}
		st := doState(t, c, http.MethodPost, base+"/api/cart/close", body)
		if st.Cart.Open || st.ScrollLocked {
			t.Fatalf("reason %q left cart=%+v locked=%v", reason, st.Cart, st.ScrollLocked)
		}
	}

	resp, _ := doJSON(t, c, http.MethodPost, base+"/api/cart/close", map[string]any{"reason": "swipe"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad reason status=%d", resp.StatusCode)
	}
}

func TestSite_OverlaysShareScrollLock(t *testing.T) {
	env := newSiteTS(t, options{})
	base := env.ts.URL
	c := newClient(t)

	doState(t, c, http.MethodPost, base+"/api/cart/open", nil)
	st := doState(t, c, http.MethodPost, base+"/api/lightbox", map[string]any{"src": "/images/karahi.jpg"})
	if st.Overlays.Lightbox != "/images/karahi.jpg" || !st.ScrollLocked {
		t.Fatalf("lightbox=%+v", st.Overlays)
	}

	st = doState(t, c, http.MethodPost, base+"/api/overlays/lightbox/close", nil)
	if !st.ScrollLocked {
		t.Fatalf("cart still open, lock released")
	}
	st = doState(t, c, http.MethodPost, base+"/api/overlays/cart/close", map[string]any{"reason": "cancel_key"})
	if st.ScrollLocked || st.Cart.Open {
		t.Fatalf("locked=%v cart=%+v", st.ScrollLocked, st.Cart)
	}

	st = doState(t, c, http.MethodPost, base+"/api/nav", map[string]any{"open": true})
	if !st.Overlays.Nav || !st.ScrollLocked {
		t.Fatalf("nav=%+v", st.Overlays)
	}
	st = doState(t, c, http.MethodPost, base+"/api/nav", map[string]any{"open": false})
	if st.Overlays.Nav || st.ScrollLocked {
		t.Fatalf("nav=%+v locked=%v", st.Overlays, st.ScrollLocked)
	}

	resp, _ := doJSON(t, c, http.MethodPost, base+"/api/overlays/popup/close", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown overlay status=%d", resp.StatusCode)
	}
	resp, _ = doJSON(t, c, http.MethodPost, base+"/api/menu/nope/open", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown item status=%d", resp.StatusCode)
	}
}

func TestSite_Menu(t *testing.T) {
	env := newSiteTS(t, options{})
	c := newClient(t)

	resp, raw := doJSON(t, c, http.MethodGet, env.ts.URL+"/api/menu?filter=bbq&q=tikka", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	var sections []menu.Section
	if err := json.Unmarshal(raw, &sections); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sections) != 1 || sections[0].Title != "BBQ" || len(sections[0].Items) != 1 || sections[0].Items[0].ID != "tikka" {
		t.Fatalf("sections=%+v", sections)
	}

	resp, raw = doJSON(t, c, http.MethodGet, env.ts.URL+"/api/menu/karahi", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail status=%d", resp.StatusCode)
	}
	var d menu.Detail
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if d.PriceText != "Rs. 1200" || !strings.Contains(d.InquiryURL, "*Chicken%20Karahi*") {
		t.Fatalf("detail=%+v", d)
	}
}

func TestSite_Reservation(t *testing.T) {
	env := newSiteTS(t, options{})
	c := newClient(t)

	resp, raw := doJSON(t, c, http.MethodPost, env.ts.URL+"/api/reservations", map[string]any{
		"name": "Ayesha", "phone": "03001234567", "date": "2026-12-01", "time": "19:30", "type": "Family Hall", "guests": 0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}
	var er kit.ErrorResponse
	if err := json.Unmarshal(raw, &er); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	details, _ := er.Details.(map[string]any)
	if _, ok := details["guests"]; !ok {
		t.Fatalf("details=%v", er.Details)
	}

	resp, raw = doJSON(t, c, http.MethodPost, env.ts.URL+"/api/reservations", map[string]any{
		"name": "Ayesha", "phone": "03001234567", "date": "2026-12-01", "time": "19:30", "type": "Family Hall", "guests": 4,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}
	var out struct {
		HandoffURL string `json:"handoff_url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(out.HandoffURL, "https://wa.me/923272591778?text=*New%20Reservation%20Request*") {
		t.Fatalf("handoff=%s", out.HandoffURL)
	}
	if got := testutil.ToFloat64(env.metrics.Reservations); got != 1 {
		t.Fatalf("reservations=%v", got)
	}
}

func TestSite_ThemePersists(t *testing.T) {
	env := newSiteTS(t, options{})
	base := env.ts.URL
	c := newClient(t)

	st := doState(t, c, http.MethodGet, base+"/api/theme", nil)
	if st.Theme != "dark" {
		t.Fatalf("default theme=%s", st.Theme)
	}
	st = doState(t, c, http.MethodPost, base+"/api/theme", nil)
	if st.Theme != "light" {
		t.Fatalf("toggled theme=%s", st.Theme)
	}
	st = doState(t, c, http.MethodGet, base+"/api/page", nil)
	if st.Theme != "light" {
		t.Fatalf("reloaded theme=%s", st.Theme)
	}
}

func TestSite_ProbesAndMetrics(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("scrape-token"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	env := newSiteTS(t, options{metricsHash: string(hash)})
	c := &http.Client{}

	for _, p := range []string{"/healthz", "/readyz"} {
		resp, _ := doJSON(t, c, http.MethodGet, env.ts.URL+p, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status=%d", p, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, c, http.MethodGet, env.ts.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("metrics without token status=%d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, env.ts.URL+"/metrics", nil)
	req.Header.Set("Authorization", "Bearer scrape-token")
	mresp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer mresp.Body.Close()
	raw, _ := io.ReadAll(mresp.Body)
	if mresp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "zaiqa_live_pages") {
		t.Fatalf("metrics status=%d", mresp.StatusCode)
	}
}

func TestSite_SessionCookieIssued(t *testing.T) {
	env := newSiteTS(t, options{})

	resp, _ := doJSON(t, &http.Client{}, http.MethodGet, env.ts.URL+"/api/cart", nil)
	var found bool
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName && ck.HttpOnly && ck.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no session cookie: %v", resp.Cookies())
	}
}
