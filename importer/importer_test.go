package importer_test

import (
	"testing"

	"github.com/NeowayLabs/drmhwc/egl"
	"github.com/NeowayLabs/drmhwc/fourcc"
	"github.com/NeowayLabs/drmhwc/gralloc"
	"github.com/NeowayLabs/drmhwc/importer"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var variants = []importer.Variant{importer.Generic, importer.Minigbm}

func fullHD() *gralloc.Handle {
	return &gralloc.Handle{
		Width:     1920,
		Height:    1080,
		Format:    fourcc.XRGB8888,
		Usage:     gralloc.UsageHWComposer,
		NumPlanes: 1,
		Planes:    [gralloc.MaxPlanes]gralloc.Plane{{FD: 7, Stride: 7680}},
	}
}

func nv12() *gralloc.Handle {
	return &gralloc.Handle{
		Width:     640,
		Height:    480,
		Format:    fourcc.NV12,
		NumPlanes: 2,
		Planes: [gralloc.MaxPlanes]gralloc.Plane{
			{FD: 9, Stride: 640},
			{FD: 9, Stride: 640, Offset: 640 * 480},
		},
	}
}

func newImporter(t *testing.T, v importer.Variant, dev importer.Device) importer.Importer {
	t.Helper()
	log, _ := test.NewNullLogger()
	im, err := importer.New(v, dev, gralloc.Minigbm, importer.WithLogger(log))
	require.NoError(t, err)
	require.NotNil(t, im)
	return im
}

func TestNewInitError(t *testing.T) {
	log, hook := test.NewNullLogger()
	var initErr *importer.InitError

	im, err := importer.New(importer.Minigbm, newFakeDevice(), nil, importer.WithLogger(log))
	assert.Nil(t, im)
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	im, err = importer.New(importer.Generic, nil, gralloc.Minigbm, importer.WithLogger(log))
	assert.Nil(t, im)
	assert.ErrorAs(t, err, &initErr)

	im, err = importer.New(importer.Variant(42), newFakeDevice(), gralloc.Minigbm, importer.WithLogger(log))
	assert.Nil(t, im)
	assert.ErrorAs(t, err, &initErr)
}

func TestNewVendorCheck(t *testing.T) {
	log, hook := test.NewNullLogger()
	im, err := importer.New(importer.Minigbm, newFakeDevice(), gralloc.StaticModule{
		ModuleName:   "CrOS Gralloc",
		ModuleAuthor: "chrome os",
	}, importer.WithLogger(log))
	require.NoError(t, err)
	assert.NoError(t, im.Warning())
	assert.Empty(t, hook.AllEntries())

	im, err = importer.New(importer.Minigbm, newFakeDevice(), gralloc.StaticModule{
		ModuleName:   "Graphics Memory Allocator Module",
		ModuleAuthor: "ARM Ltd.",
	}, importer.WithLogger(log))
	require.NoError(t, err)
	require.NotNil(t, im)
	assert.ErrorIs(t, im.Warning(), importer.ErrVendorMismatch)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "ARM Ltd.", hook.LastEntry().Data["author"])

	// the generic importer takes any allocator
	im, err = importer.New(importer.Generic, newFakeDevice(), gralloc.StaticModule{ModuleAuthor: "ARM Ltd."},
		importer.WithLogger(log))
	require.NoError(t, err)
	assert.NoError(t, im.Warning())
}

func TestNewExpectedAuthor(t *testing.T) {
	log, _ := test.NewNullLogger()
	im, err := importer.New(importer.Minigbm, newFakeDevice(), gralloc.StaticModule{ModuleAuthor: "Vendor"},
		importer.WithLogger(log), importer.WithExpectedAuthor("vendor"))
	require.NoError(t, err)
	assert.NoError(t, im.Warning())
}

func TestImportBufferFullHD(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			dev := newFakeDevice()
			im := newImporter(t, v, dev)

			bo, err := im.ImportBuffer(fullHD())
			require.NoError(t, err)
			assert.Greater(t, bo.FbID, uint32(0))
			assert.Greater(t, bo.GemHandles[0], uint32(0))
			assert.Equal(t, uint32(7680), bo.Pitches[0])
			assert.Equal(t, uint32(0), bo.Offsets[0])
			assert.Equal(t, uint32(1920), bo.Width)
			assert.Equal(t, uint32(1080), bo.Height)
			assert.Equal(t, fourcc.XRGB8888, bo.Format)
			assert.Equal(t, uint64(gralloc.UsageHWComposer), bo.Usage)
			assert.Equal(t, 1, bo.NumPlanes())
			assert.Zero(t, bo.GemHandles[1])
		})
	}
}

func TestImportBufferInvalid(t *testing.T) {
	zero := fullHD()
	zero.Width = 0
	noPlanes := fullHD()
	noPlanes.NumPlanes = 0

	for _, v := range variants {
		for name, h := range map[string]*gralloc.Handle{
			"nil":       nil,
			"zero size": zero,
			"no planes": noPlanes,
		} {
			t.Run(v.String()+"/"+name, func(t *testing.T) {
				dev := newFakeDevice()
				im := newImporter(t, v, dev)
				bo, err := im.ImportBuffer(h)
				assert.Nil(t, bo)
				assert.ErrorIs(t, err, importer.ErrInvalidHandle)
				assert.Zero(t, dev.calls)
			})
		}
	}
}

func TestImportReleaseRoundTrip(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			dev := newFakeDevice()
			im := newImporter(t, v, dev)

			// someone else already holds a reference on fd 7
			_, err := dev.PrimeFDToHandle(7)
			require.NoError(t, err)
			refs, fbs := dev.live()

			bo, err := im.ImportBuffer(fullHD())
			require.NoError(t, err)
			r, f := dev.live()
			assert.Equal(t, refs+1, r)
			assert.Equal(t, fbs+1, f)

			require.NoError(t, im.ReleaseBuffer(bo))
			r, f = dev.live()
			assert.Equal(t, refs, r)
			assert.Equal(t, fbs, f)
			assert.True(t, bo.Released())
			assert.Zero(t, bo.FbID)

			calls := dev.calls
			assert.ErrorIs(t, bo.Release(), importer.ErrReleased)
			assert.Equal(t, calls, dev.calls)
		})
	}
}

func TestImportBufferTwice(t *testing.T) {
	dev := newFakeDevice()
	im := newImporter(t, importer.Minigbm, dev)

	a, err := im.ImportBuffer(fullHD())
	require.NoError(t, err)
	b, err := im.ImportBuffer(fullHD())
	require.NoError(t, err)

	assert.NotEqual(t, a.FbID, b.FbID)
	refs, fbs := dev.live()
	assert.Equal(t, 2, refs)
	assert.Equal(t, 2, fbs)

	require.NoError(t, a.Release())
	refs, fbs = dev.live()
	assert.Equal(t, 1, refs)
	assert.Equal(t, 1, fbs)
	require.NoError(t, b.Release())
	refs, fbs = dev.live()
	assert.Zero(t, refs)
	assert.Zero(t, fbs)
}

func TestImportBufferAddFBFails(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			dev := newFakeDevice()
			im := newImporter(t, v, dev)

			h := fullHD()
			h.Planes[0].Stride = 1920 // smaller than width * 4
			bo, err := im.ImportBuffer(h)
			assert.Nil(t, bo)

			var derr *importer.DriverError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, unix.EINVAL, derr.Errno)
			assert.ErrorIs(t, err, unix.EINVAL)

			refs, fbs := dev.live()
			assert.Zero(t, refs, "gem handle from the prime import must be dropped")
			assert.Zero(t, fbs)
		})
	}
}

func TestImportBufferPrimeFails(t *testing.T) {
	dev := newFakeDevice()
	dev.failPrime[7] = unix.EBADF
	im := newImporter(t, importer.Generic, dev)

	bo, err := im.ImportBuffer(fullHD())
	assert.Nil(t, bo)
	var derr *importer.DriverError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, unix.EBADF, derr.Errno)
	assert.Equal(t, "prime fd to handle", derr.Op)
}

func TestGenericMultiPlanar(t *testing.T) {
	dev := newFakeDevice()
	im := newImporter(t, importer.Generic, dev)

	bo, err := im.ImportBuffer(nv12())
	require.NoError(t, err)
	assert.Equal(t, 2, bo.NumPlanes())
	assert.Equal(t, bo.GemHandles[0], bo.GemHandles[1])
	assert.Equal(t, uint32(640*480), bo.Offsets[1])
	assert.Equal(t, uint32(640), bo.Pitches[1])
	refs, _ := dev.live()
	assert.Equal(t, 2, refs)

	require.NoError(t, bo.Release())
	refs, fbs := dev.live()
	assert.Zero(t, refs)
	assert.Zero(t, fbs)
}

func TestGenericMultiPlanarPartialFailure(t *testing.T) {
	dev := newFakeDevice()
	h := nv12()
	h.Planes[1].FD = 10
	dev.failPrime[10] = unix.EACCES
	im := newImporter(t, importer.Generic, dev)

	bo, err := im.ImportBuffer(h)
	assert.Nil(t, bo)
	assert.ErrorIs(t, err, unix.EACCES)
	refs, _ := dev.live()
	assert.Zero(t, refs, "plane 0 reference must be dropped")
}

func TestMinigbmMultiPlanar(t *testing.T) {
	dev := newFakeDevice()
	im := newImporter(t, importer.Minigbm, dev)

	bo, err := im.ImportBuffer(nv12())
	assert.Nil(t, bo)
	assert.ErrorIs(t, err, importer.ErrMultiPlanar)
	assert.Zero(t, dev.calls)

	img, err := im.ImportImage(&fakeDisplay{}, nv12())
	assert.Equal(t, egl.NoImage, img)
	assert.ErrorIs(t, err, importer.ErrMultiPlanar)
}

func TestReleaseBufferNil(t *testing.T) {
	im := newImporter(t, importer.Generic, newFakeDevice())
	assert.ErrorIs(t, im.ReleaseBuffer(nil), importer.ErrInvalidHandle)
}

func TestReleaseForeignBuffer(t *testing.T) {
	assert.ErrorIs(t, (&importer.BufferObject{FbID: 3}).Release(), importer.ErrInvalidHandle)

	dev := newFakeDevice()
	im := newImporter(t, importer.Minigbm, dev)
	other := newImporter(t, importer.Minigbm, newFakeDevice())

	bo, err := im.ImportBuffer(fullHD())
	require.NoError(t, err)
	assert.ErrorIs(t, other.ReleaseBuffer(bo), importer.ErrInvalidHandle)
	assert.False(t, bo.Released())

	require.NoError(t, im.ReleaseBuffer(bo))
	refs, fbs := dev.live()
	assert.Zero(t, refs)
	assert.Zero(t, fbs)
}

func TestImportImage(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			dev := newFakeDevice()
			dpy := &fakeDisplay{}
			im := newImporter(t, v, dev)

			img, err := im.ImportImage(dpy, fullHD())
			require.NoError(t, err)
			assert.NotEqual(t, egl.NoImage, img)
			require.Len(t, dpy.attribs, 1)
			assert.Equal(t, egl.DMABufAttribs(1920, 1080, uint32(fourcc.XRGB8888),
				egl.PlaneAttrib{FD: 7, Pitch: 7680}), dpy.attribs[0])
			assert.Zero(t, dev.calls, "image import must not touch the device")
		})
	}
}

func TestImportImageInvalid(t *testing.T) {
	noHeight := fullHD()
	noHeight.Height = 0
	hugePitch := fullHD()
	hugePitch.Planes[0].Stride = 1 << 31
	hugeOffset := fullHD()
	hugeOffset.Planes[0].Offset = 1<<32 - 1

	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			dpy := &fakeDisplay{}
			im := newImporter(t, v, newFakeDevice())

			for _, h := range []*gralloc.Handle{nil, noHeight, hugePitch, hugeOffset} {
				img, err := im.ImportImage(dpy, h)
				assert.Equal(t, egl.NoImage, img)
				assert.ErrorIs(t, err, importer.ErrInvalidHandle)
			}
			assert.Empty(t, dpy.attribs, "no image may be created")

			img, err := im.ImportImage(nil, fullHD())
			assert.Equal(t, egl.NoImage, img)
			assert.ErrorIs(t, err, importer.ErrInvalidHandle)
		})
	}
}

func TestImportImageRejected(t *testing.T) {
	rejected := &egl.Error{Op: "eglCreateImageKHR", Code: egl.BadMatch}
	dpy := &fakeDisplay{reject: rejected}
	im := newImporter(t, importer.Minigbm, newFakeDevice())

	img, err := im.ImportImage(dpy, fullHD())
	assert.Equal(t, egl.NoImage, img)
	var ierr *importer.ImageError
	require.ErrorAs(t, err, &ierr)
	assert.ErrorIs(t, err, rejected)
}

func TestGenericImportImageMultiPlanar(t *testing.T) {
	dpy := &fakeDisplay{}
	im := newImporter(t, importer.Generic, newFakeDevice())

	_, err := im.ImportImage(dpy, nv12())
	require.NoError(t, err)
	require.Len(t, dpy.attribs, 1)
	assert.Contains(t, dpy.attribs[0], int32(egl.DMABufPlane1Off))
}

func TestParseVariant(t *testing.T) {
	for _, v := range variants {
		got, err := importer.ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	got, err := importer.ParseVariant("MINIGBM")
	require.NoError(t, err)
	assert.Equal(t, importer.Minigbm, got)
	_, err = importer.ParseVariant("drm_gralloc")
	assert.Error(t, err)
}
