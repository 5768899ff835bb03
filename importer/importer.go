// Package importer turns allocator buffer handles into framebuffers the
// display controller can scan out, and into EGL images for layers that
// are composited on the GPU. Both reference the buffer memory without
// copying it.
//
// Importers do no locking. Calls against the same Device must be
// serialized by the caller.
package importer

import (
	"fmt"
	"strings"

	"github.com/NeowayLabs/drmhwc/egl"
	"github.com/NeowayLabs/drmhwc/gralloc"
	"github.com/NeowayLabs/drmhwc/mode"
	"github.com/sirupsen/logrus"
)

// Device is the kernel side of an import.
type Device interface {
	// PrimeFDToHandle takes a GEM handle reference on the buffer
	// behind a dma-buf fd.
	PrimeFDToHandle(fd int) (uint32, error)
	AddFB2(fb *mode.FB2) (uint32, error)
	RmFB(id uint32) error
	// CloseHandle drops one reference taken by PrimeFDToHandle.
	CloseHandle(handle uint32) error
}

// Variant selects an importer implementation.
type Variant int

const (
	// Generic works with any allocator that fills gralloc.Handle and
	// imports every plane of the buffer.
	Generic Variant = iota
	// Minigbm expects the Chrome OS minigbm allocator and imports plane
	// 0 only.
	Minigbm
)

func (v Variant) String() string {
	switch v {
	case Generic:
		return "generic"
	case Minigbm:
		return "minigbm"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "generic", "":
		return Generic, nil
	case "minigbm":
		return Minigbm, nil
	}
	return 0, fmt.Errorf("importer: unknown variant %q", s)
}

// Importer imports allocator buffers for display and for the GPU.
type Importer interface {
	// ImportBuffer registers h as a framebuffer. Each call creates new
	// kernel objects; the caller owns the result and must release it.
	ImportBuffer(h *gralloc.Handle) (*BufferObject, error)
	// ImportImage creates an EGL image over h. No kernel objects are
	// created and the display owns the image.
	ImportImage(dpy egl.Display, h *gralloc.Handle) (egl.Image, error)
	// ReleaseBuffer is bo.Release for objects imported on the same
	// device.
	ReleaseBuffer(bo *BufferObject) error
	Variant() Variant
	// Warning returns a non-fatal problem found at construction, such
	// as ErrVendorMismatch, or nil.
	Warning() error
}

type options struct {
	author string
	log    logrus.FieldLogger
}

type Option func(*options)

// WithExpectedAuthor overrides the allocator author the Minigbm
// variant checks for.
func WithExpectedAuthor(author string) Option {
	return func(o *options) { o.author = author }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// New builds the importer variant v over dev, bound to the allocator
// module mod. A nil device or module is an *InitError and no importer
// is returned.
func New(v Variant, dev Device, mod gralloc.Module, opts ...Option) (Importer, error) {
	o := options{
		author: gralloc.Minigbm.Author(),
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.WithField("importer", v.String())

	var err error
	switch {
	case dev == nil:
		err = &InitError{Reason: "no device"}
	case mod == nil:
		err = &InitError{Reason: "no allocator module"}
	}
	if err != nil {
		log.WithError(err).Errorf("Failed to initialize the %s importer", v)
		return nil, err
	}

	b := base{dev: dev, mod: mod, log: log}
	switch v {
	case Generic:
		return &generic{base: b}, nil
	case Minigbm:
		im := &minigbm{base: b}
		im.checkModule(o.author)
		return im, nil
	}
	err = &InitError{Reason: fmt.Sprintf("unknown variant %d", int(v))}
	log.WithError(err).Error("Failed to initialize importer")
	return nil, err
}

type base struct {
	dev Device
	mod gralloc.Module
	log logrus.FieldLogger
}

// ReleaseBuffer releases bo, which must have been imported through the
// same device.
func (b *base) ReleaseBuffer(bo *BufferObject) error {
	if bo == nil || bo.dev != b.dev {
		return ErrInvalidHandle
	}
	return bo.Release()
}

// importBuffer takes a GEM reference for each of the first n planes of
// h and registers the framebuffer. On failure every reference taken
// here is dropped again.
func (b *base) importBuffer(h *gralloc.Handle, n int) (*BufferObject, error) {
	bo := &BufferObject{
		Width:  h.Width,
		Height: h.Height,
		Format: h.Format,
		Usage:  h.Usage,
		dev:    b.dev,
	}

	for i := 0; i < n; i++ {
		p := h.Planes[i]
		gem, err := b.dev.PrimeFDToHandle(p.FD)
		if err != nil {
			b.log.WithFields(logrus.Fields{
				"fd":    p.FD,
				"plane": i,
			}).WithError(err).Error("failed to import prime fd")
			derr := driverError("prime fd to handle", err)
			if cerr := bo.closeHandles(); cerr != nil {
				b.log.WithError(cerr).Error("failed to drop gem handles")
			}
			return nil, derr
		}
		bo.GemHandles[i] = gem
		bo.Pitches[i] = p.Stride
		bo.Offsets[i] = p.Offset
		bo.planes = i + 1
	}

	fb := &mode.FB2{
		Width:   bo.Width,
		Height:  bo.Height,
		Format:  uint32(bo.Format),
		Handles: bo.GemHandles,
		Pitches: bo.Pitches,
		Offsets: bo.Offsets,
	}
	id, err := b.dev.AddFB2(fb)
	if err != nil {
		b.log.WithField("buffer", h.String()).WithError(err).Error("could not create drm fb")
		derr := driverError("add framebuffer", err)
		if cerr := bo.closeHandles(); cerr != nil {
			b.log.WithError(cerr).Error("failed to drop gem handles")
		}
		return nil, derr
	}
	bo.FbID = id
	return bo, nil
}

// importImage creates a dma-buf EGL image over the first n planes of h.
func (b *base) importImage(dpy egl.Display, h *gralloc.Handle, n int) (egl.Image, error) {
	planes := make([]egl.PlaneAttrib, n)
	for i := range planes {
		p := h.Planes[i]
		planes[i] = egl.PlaneAttrib{FD: p.FD, Pitch: p.Stride, Offset: p.Offset}
	}
	attr := egl.DMABufAttribs(int32(h.Width), int32(h.Height), uint32(h.Format), planes...)
	img, err := dpy.CreateImage(egl.LinuxDMABuf, attr)
	if err != nil || img == egl.NoImage {
		b.log.WithField("buffer", h.String()).WithError(err).Warn("failed to create egl image")
		return egl.NoImage, &ImageError{Err: err}
	}
	return img, nil
}

// validImage rejects handles whose geometry or plane layout does not
// fit EGLint.
func validImage(dpy egl.Display, h *gralloc.Handle) bool {
	const maxInt32 = 1<<31 - 1
	if dpy == nil || !h.Valid() || h.Width > maxInt32 || h.Height > maxInt32 {
		return false
	}
	for _, p := range h.Planes[:h.NumPlanes] {
		if p.FD > maxInt32 || p.Stride > maxInt32 || p.Offset > maxInt32 {
			return false
		}
	}
	return true
}
