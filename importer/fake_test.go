package importer_test

import (
	"github.com/NeowayLabs/drmhwc/egl"
	"github.com/NeowayLabs/drmhwc/fourcc"
	"github.com/NeowayLabs/drmhwc/mode"
	"golang.org/x/sys/unix"
)

// fakeDevice behaves like a DRM file: the same dma-buf fd always maps
// to the same GEM handle and every import takes a reference.
type fakeDevice struct {
	handles map[int]uint32 // fd -> gem handle
	refs    map[uint32]int // gem handle -> references
	fbs     map[uint32]mode.FB2
	nextGem uint32
	nextFB  uint32
	calls   int

	failPrime map[int]unix.Errno
	failAddFB unix.Errno
	formats   map[uint32]bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		handles:   map[int]uint32{},
		refs:      map[uint32]int{},
		fbs:       map[uint32]mode.FB2{},
		failPrime: map[int]unix.Errno{},
		formats: map[uint32]bool{
			uint32(fourcc.XRGB8888): true,
			uint32(fourcc.ARGB8888): true,
			uint32(fourcc.NV12):     true,
		},
	}
}

func (d *fakeDevice) PrimeFDToHandle(fd int) (uint32, error) {
	d.calls++
	if errno, ok := d.failPrime[fd]; ok {
		return 0, errno
	}
	if fd < 0 {
		return 0, unix.EBADF
	}
	h, ok := d.handles[fd]
	if !ok {
		d.nextGem++
		h = d.nextGem
		d.handles[fd] = h
	}
	d.refs[h]++
	return h, nil
}

func (d *fakeDevice) AddFB2(fb *mode.FB2) (uint32, error) {
	d.calls++
	if d.failAddFB != 0 {
		return 0, d.failAddFB
	}
	if !d.formats[fb.Format] {
		return 0, unix.EINVAL
	}
	if bpp := fourcc.Format(fb.Format).BytesPerPixel(); fb.Pitches[0] < fb.Width*uint32(bpp) {
		return 0, unix.EINVAL
	}
	for i, h := range fb.Handles {
		if h != 0 && d.refs[h] == 0 {
			return 0, unix.ENOENT
		}
		if i == 0 && h == 0 {
			return 0, unix.EINVAL
		}
	}
	d.nextFB++
	d.fbs[d.nextFB] = *fb
	return d.nextFB, nil
}

func (d *fakeDevice) RmFB(id uint32) error {
	d.calls++
	if _, ok := d.fbs[id]; !ok {
		return unix.ENOENT
	}
	delete(d.fbs, id)
	return nil
}

func (d *fakeDevice) CloseHandle(h uint32) error {
	d.calls++
	if d.refs[h] == 0 {
		return unix.EINVAL
	}
	d.refs[h]--
	return nil
}

// live returns the number of references and framebuffers held.
func (d *fakeDevice) live() (refs, fbs int) {
	for _, n := range d.refs {
		refs += n
	}
	return refs, len(d.fbs)
}

type fakeDisplay struct {
	attribs [][]int32
	reject  error
	next    egl.Image
}

func (d *fakeDisplay) CreateImage(target uint32, attribs []int32) (egl.Image, error) {
	d.attribs = append(d.attribs, attribs)
	if target != egl.LinuxDMABuf {
		return egl.NoImage, &egl.Error{Op: "eglCreateImageKHR", Code: egl.BadParameter}
	}
	if d.reject != nil {
		return egl.NoImage, d.reject
	}
	d.next++
	return d.next, nil
}

func (d *fakeDisplay) DestroyImage(img egl.Image) error { return nil }
