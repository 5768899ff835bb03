package importer

import (
	"github.com/NeowayLabs/drmhwc/egl"
	"github.com/NeowayLabs/drmhwc/gralloc"
)

type generic struct {
	base
}

func (g *generic) Variant() Variant { return Generic }

func (g *generic) Warning() error { return nil }

func (g *generic) ImportBuffer(h *gralloc.Handle) (*BufferObject, error) {
	if !h.Valid() {
		return nil, ErrInvalidHandle
	}
	return g.importBuffer(h, h.NumPlanes)
}

func (g *generic) ImportImage(dpy egl.Display, h *gralloc.Handle) (egl.Image, error) {
	if !validImage(dpy, h) {
		return egl.NoImage, ErrInvalidHandle
	}
	return g.importImage(dpy, h, h.NumPlanes)
}
