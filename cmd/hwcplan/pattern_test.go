package main

import (
	"image"
	"image/color"
	"testing"

	"github.com/NeowayLabs/drmhwc/fourcc"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackByteOrder(t *testing.T) {
	im := image.NewRGBA(image.Rect(0, 0, 2, 1))
	im.SetRGBA(0, 0, color.RGBA{0x11, 0x22, 0x33, 0xff})
	im.SetRGBA(1, 0, color.RGBA{0xff, 0xff, 0xff, 0xff})

	for _, tc := range []struct {
		format fourcc.Format
		want   []byte
	}{
		{fourcc.XRGB8888, []byte{0x33, 0x22, 0x11, 0xff}},
		{fourcc.ARGB8888, []byte{0x33, 0x22, 0x11, 0xff}},
		{fourcc.XBGR8888, []byte{0x11, 0x22, 0x33, 0xff}},
		{fourcc.RGB565, []byte{0x06, 0x11}},
	} {
		t.Run(tc.format.String(), func(t *testing.T) {
			dst := make([]byte, 16)
			require.NoError(t, pack(dst, 16, im, tc.format))
			assert.Equal(t, tc.want, dst[:len(tc.want)])
		})
	}
}

func TestPackPitch(t *testing.T) {
	im := image.NewRGBA(image.Rect(0, 0, 1, 2))
	im.SetRGBA(0, 1, color.RGBA{0x01, 0x02, 0x03, 0xff})

	dst := make([]byte, 16)
	require.NoError(t, pack(dst, 8, im, fourcc.XRGB8888))
	assert.Equal(t, []byte{0x03, 0x02, 0x01, 0xff}, dst[8:12])
	assert.Equal(t, make([]byte, 4), dst[4:8])
}

func TestPackErrors(t *testing.T) {
	im := image.NewRGBA(image.Rect(0, 0, 4, 4))

	err := pack(make([]byte, 8), 16, im, fourcc.XRGB8888)
	assert.True(t, errors.Is(err, errors.NotValid), "%v", err)

	err = pack(make([]byte, 64), 16, im, fourcc.RGB888)
	assert.True(t, errors.Is(err, errors.NotSupported), "%v", err)
}

func TestPattern(t *testing.T) {
	im := pattern(64, 32, 2, "x", 0xff)
	assert.Equal(t, image.Rect(0, 0, 64, 32), im.Bounds())
	// border
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, im.RGBAAt(1, 16))
	// fill
	assert.Equal(t, palette[2], im.RGBAAt(8, 4))
}
