// Package kms is the kernel side of the composer: a Device that the
// importer registers framebuffers through, and the plane inventory the
// planner assigns layers to.
package kms

import (
	"os"

	drm "github.com/NeowayLabs/drmhwc"
	"github.com/NeowayLabs/drmhwc/mode"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Device wraps an open DRM file.
//
// The kernel returns the same GEM handle every time one dma-buf is
// imported on a file, and a single GEM_CLOSE drops it for everyone.
// Device counts PrimeFDToHandle calls per handle and only closes a
// handle when the last CloseHandle for it comes in, so each import can
// be released on its own.
//
// Device is not safe for concurrent use.
type Device struct {
	file *os.File
	refs map[uint32]int
	log  logrus.FieldLogger
}

// Open opens a DRM node and enables universal planes so primary and
// cursor planes are listed.
func Open(path string) (*Device, error) {
	file, err := drm.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", path)
	}
	d := NewDevice(file)
	if err := drm.SetClientCap(file, drm.ClientCapUniversalPlanes, 1); err != nil {
		// only overlay planes will be listed
		d.log.WithError(err).Warn("DRM_CLIENT_CAP_UNIVERSAL_PLANES failed")
	}
	if !drm.HasPrimeImport(file) {
		d.log.WithField("path", path).Warn("device cannot import prime buffers")
	}
	return d, nil
}

// NewDevice wraps an already open DRM file. The Device does not take
// ownership of other references to file.
func NewDevice(file *os.File) *Device {
	return &Device{
		file: file,
		refs: make(map[uint32]int),
		log:  logrus.WithField("device", file.Name()),
	}
}

func (d *Device) File() *os.File { return d.file }

// Close drops every handle still referenced and closes the file.
func (d *Device) Close() error {
	for h := range d.refs {
		if err := drm.CloseHandle(d.file, h); err != nil {
			d.log.WithField("handle", h).WithError(err).Warn("leaked gem handle")
		}
	}
	clear(d.refs)
	return d.file.Close()
}

func (d *Device) PrimeFDToHandle(fd int) (uint32, error) {
	h, err := drm.PrimeFDToHandle(d.file, fd)
	if err != nil {
		return 0, err
	}
	d.refs[h]++
	return h, nil
}

func (d *Device) CloseHandle(h uint32) error {
	n, ok := d.refs[h]
	if !ok {
		return unix.ENOENT
	}
	if n > 1 {
		d.refs[h] = n - 1
		return nil
	}
	delete(d.refs, h)
	return drm.CloseHandle(d.file, h)
}

// Handles returns the number of references held on h.
func (d *Device) Handles(h uint32) int {
	return d.refs[h]
}

func (d *Device) AddFB2(fb *mode.FB2) (uint32, error) {
	return mode.AddFB2(d.file, fb)
}

func (d *Device) RmFB(id uint32) error {
	return mode.RmFB(d.file, id)
}
