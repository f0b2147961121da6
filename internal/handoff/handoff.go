// Package handoff builds the messaging-app links the site uses to pass
// orders, enquiries and reservations to the restaurant. Nothing here waits
// for delivery: a link is built and handed to the client to open.
package handoff

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

const (
	DefaultBaseURL = "https://wa.me/"
	DefaultPhone   = "923272591778"
)

var (
	ErrBadPhone   = errors.New("contact phone must be digits only")
	ErrBadBaseURL = errors.New("contact base url must be absolute")
)

type Contact struct {
	BaseURL string
	Phone   string
}

func DefaultContact() Contact {
	return Contact{BaseURL: DefaultBaseURL, Phone: DefaultPhone}
}

func (c Contact) Validate() error {
	if c.Phone == "" || strings.TrimLeft(c.Phone, "0123456789") != "" {
		return fmt.Errorf("%w: %q", ErrBadPhone, c.Phone)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrBadBaseURL, c.BaseURL)
	}
	return nil
}

// Link returns the URI that opens a chat with the contact and pre-fills text.
func (c Contact) Link(text string) string {
	base := c.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + c.Phone + "?text=" + EncodeComponent(text)
}

// componentUnreserved undoes QueryEscape for the marks encodeURIComponent
// leaves alone, and spells spaces as %20.
var componentUnreserved = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s the way browsers' encodeURIComponent
// does.
func EncodeComponent(s string) string {
	return componentUnreserved.Replace(url.QueryEscape(s))
}

// Recorder keeps the last link handed off. The HTTP layer returns it to the
// client, which opens it in a new window.
type Recorder struct {
	mu   sync.Mutex
	last string
}

func (r *Recorder) Deliver(uri string) {
	r.mu.Lock()
	r.last = uri
	r.mu.Unlock()
}

// Take returns the pending link and clears it.
func (r *Recorder) Take() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	uri := r.last
	r.last = ""
	return uri
}
