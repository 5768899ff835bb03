package importer

import (
	"errors"

	"github.com/NeowayLabs/drmhwc/fourcc"
	"github.com/NeowayLabs/drmhwc/gralloc"
)

// BufferObject is a buffer registered with the display controller. It
// holds one GEM handle reference per imported plane and a framebuffer
// id, all of which stay alive in the kernel until Release.
type BufferObject struct {
	Width, Height uint32
	Format        fourcc.Format
	Usage         uint64

	GemHandles [gralloc.MaxPlanes]uint32
	Pitches    [gralloc.MaxPlanes]uint32
	Offsets    [gralloc.MaxPlanes]uint32
	FbID       uint32

	planes   int
	dev      Device
	released bool
}

// NumPlanes returns the number of planes wired into the framebuffer.
func (bo *BufferObject) NumPlanes() int { return bo.planes }

// Released reports whether Release was called.
func (bo *BufferObject) Released() bool { return bo.released }

// Release removes the framebuffer and drops every GEM handle reference
// taken at import. It must be called exactly once; later calls return
// ErrReleased and touch nothing. Objects that did not come from an
// importer are rejected with ErrInvalidHandle.
func (bo *BufferObject) Release() error {
	if bo.released {
		return ErrReleased
	}
	if bo.dev == nil {
		return ErrInvalidHandle
	}
	bo.released = true

	var errs []error
	if bo.FbID != 0 {
		if err := bo.dev.RmFB(bo.FbID); err != nil {
			errs = append(errs, driverError("remove framebuffer", err))
		}
		bo.FbID = 0
	}
	errs = append(errs, bo.closeHandles())
	return errors.Join(errs...)
}

// closeHandles drops the GEM references taken so far, in reverse.
func (bo *BufferObject) closeHandles() error {
	var errs []error
	for i := bo.planes - 1; i >= 0; i-- {
		if bo.GemHandles[i] == 0 {
			continue
		}
		if err := bo.dev.CloseHandle(bo.GemHandles[i]); err != nil {
			errs = append(errs, driverError("close gem handle", err))
		}
		bo.GemHandles[i] = 0
	}
	bo.planes = 0
	return errors.Join(errs...)
}
