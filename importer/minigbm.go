package importer

import (
	"strings"

	"github.com/NeowayLabs/drmhwc/egl"
	"github.com/NeowayLabs/drmhwc/gralloc"
	"github.com/sirupsen/logrus"
)

// minigbm only wires plane 0 of a buffer, the layout minigbm uses for
// every single-planar format.
type minigbm struct {
	base
	warning error
}

func (m *minigbm) checkModule(author string) {
	if strings.EqualFold(m.mod.Author(), author) {
		return
	}
	m.warning = ErrVendorMismatch
	m.log.WithFields(logrus.Fields{
		"name":     m.mod.Name(),
		"author":   m.mod.Author(),
		"expected": author,
	}).Warn("Using non-minigbm gralloc module")
}

func (m *minigbm) Variant() Variant { return Minigbm }

func (m *minigbm) Warning() error { return m.warning }

func (m *minigbm) ImportBuffer(h *gralloc.Handle) (*BufferObject, error) {
	if !h.Valid() {
		return nil, ErrInvalidHandle
	}
	if h.NumPlanes > 1 {
		m.log.WithField("buffer", h.String()).Error("multi-planar buffer not supported")
		return nil, ErrMultiPlanar
	}
	return m.importBuffer(h, 1)
}

func (m *minigbm) ImportImage(dpy egl.Display, h *gralloc.Handle) (egl.Image, error) {
	if !validImage(dpy, h) {
		return egl.NoImage, ErrInvalidHandle
	}
	if h.NumPlanes > 1 {
		return egl.NoImage, ErrMultiPlanar
	}
	return m.importImage(dpy, h, 1)
}
