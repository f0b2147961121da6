package page

import "Zaiqa/internal/menu"

const (
	OverlayProduct  = "product"
	OverlayLightbox = "lightbox"
	OverlayNav      = "nav"
)

// Overlay is a one-flag surface that holds the scroll lock while open.
type Overlay struct {
	name string
	lock *ScrollLock
	open bool
}

func (o *Overlay) Open() {
	o.open = true
	o.lock.Lock(o.name)
}

func (o *Overlay) Close() {
	o.open = false
	o.lock.Unlock(o.name)
}

func (o *Overlay) IsOpen() bool { return o.open }

type ProductModal struct {
	Overlay
	Detail *menu.Detail
}

func (m *ProductModal) Show(d menu.Detail) {
	m.Detail = &d
	m.Open()
}

func (m *ProductModal) Close() {
	m.Overlay.Close()
	m.Detail = nil
}

type Lightbox struct {
	Overlay
	Src string
}

func (l *Lightbox) Show(src string) {
	l.Src = src
	l.Open()
}

func (l *Lightbox) Close() {
	l.Overlay.Close()
	l.Src = ""
}
