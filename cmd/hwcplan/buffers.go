package main

import (
	"os"

	drm "github.com/NeowayLabs/drmhwc"
	"github.com/NeowayLabs/drmhwc/config"
	"github.com/NeowayLabs/drmhwc/gralloc"
	"github.com/NeowayLabs/drmhwc/mode"
	"github.com/NeowayLabs/drmhwc/planner"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"launchpad.net/gommap"
)

// bufferPool stands in for the platform allocator. It owns its own
// file description so that its GEM handles are independent of the
// ones the importer creates.
type bufferPool struct {
	file *os.File
	bufs []*dumbBuffer
}

type dumbBuffer struct {
	fb   *mode.FB
	fd   int
	data gommap.MMap
}

func openBufferPool(path string) (*bufferPool, error) {
	file, err := drm.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "allocator device")
	}
	if !drm.HasDumbBuffer(file) {
		file.Close()
		return nil, errors.NotSupportedf("dumb buffers on %s", path)
	}
	return &bufferPool{file: file}, nil
}

// Allocate creates a dumb buffer for l, fills it with a test pattern
// and returns its handle as the allocator would.
func (p *bufferPool) Allocate(l config.TestLayer) (*gralloc.Handle, error) {
	bpp := uint32(l.Format.BytesPerPixel() * 8)
	fb, err := mode.CreateDumb(p.file, uint16(l.Width), uint16(l.Height), bpp)
	if err != nil {
		return nil, errors.Annotate(err, "create dumb buffer")
	}
	buf := &dumbBuffer{fb: fb, fd: -1}
	p.bufs = append(p.bufs, buf)

	offset, err := mode.MapDumb(p.file, fb.Handle)
	if err != nil {
		return nil, errors.Annotate(err, "map dumb buffer")
	}
	buf.data, err = gommap.MapAt(0, p.file.Fd(), int64(offset), int64(fb.Size),
		gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		return nil, errors.Annotate(err, "mmap")
	}

	alpha := uint8(0xff)
	if l.Format.HasAlpha() {
		alpha = 0xc0
	}
	im := pattern(l.Width, l.Height, l.ID, layerLabel(l.ID, l.Z, l.Format), alpha)
	if err := pack(buf.data, int(fb.Pitch), im, l.Format); err != nil {
		return nil, err
	}

	buf.fd, err = drm.PrimeHandleToFD(p.file, fb.Handle)
	if err != nil {
		return nil, errors.Annotate(err, "export dumb buffer")
	}

	h := &gralloc.Handle{
		Width:     uint32(l.Width),
		Height:    uint32(l.Height),
		Format:    l.Format,
		Usage:     gralloc.UsageHWComposer | gralloc.UsageSWWriteOften,
		NumPlanes: 1,
	}
	if l.Kind == planner.CursorLayer {
		h.Usage |= gralloc.UsageCursor
	}
	h.Planes[0] = gralloc.Plane{FD: buf.fd, Stride: fb.Pitch}
	return h, nil
}

// Close unmaps, closes and destroys every buffer, then the device.
func (p *bufferPool) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	for _, b := range p.bufs {
		if b.data != nil {
			keep(b.data.UnsafeUnmap())
		}
		if b.fd >= 0 {
			keep(unix.Close(b.fd))
		}
		keep(mode.DestroyDumb(p.file, b.fb.Handle))
	}
	p.bufs = nil
	keep(p.file.Close())
	if first != nil {
		logrus.WithError(first).Warn("releasing test buffers")
	}
	return first
}
