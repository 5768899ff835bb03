// Package fourcc names the DRM pixel format codes handed around by
// allocators, KMS and EGL.
package fourcc

import "fmt"

// Format is a little endian four character code as defined by
// drm_fourcc.h.
type Format uint32

func Code(a, b, c, d byte) Format {
	return Format(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

var (
	RGB565   = Code('R', 'G', '1', '6')
	RGB888   = Code('R', 'G', '2', '4')
	BGR888   = Code('B', 'G', '2', '4')
	XRGB8888 = Code('X', 'R', '2', '4')
	ARGB8888 = Code('A', 'R', '2', '4')
	XBGR8888 = Code('X', 'B', '2', '4')
	ABGR8888 = Code('A', 'B', '2', '4')
	RGBX8888 = Code('R', 'X', '2', '4')
	RGBA8888 = Code('R', 'A', '2', '4')
	BGRX8888 = Code('B', 'X', '2', '4')
	BGRA8888 = Code('B', 'A', '2', '4')

	XRGB2101010 = Code('X', 'R', '3', '0')
	ARGB2101010 = Code('A', 'R', '3', '0')

	NV12   = Code('N', 'V', '1', '2')
	NV21   = Code('N', 'V', '2', '1')
	YUV420 = Code('Y', 'U', '1', '2')
	YVU420 = Code('Y', 'V', '1', '2')
)

type info struct {
	planes int
	cpp    [3]int // bytes per pixel of each plane
	opaque Format // alpha-less sibling, 0 if the format has no alpha
}

var formats = map[Format]info{
	RGB565:   {planes: 1, cpp: [3]int{2}},
	RGB888:   {planes: 1, cpp: [3]int{3}},
	BGR888:   {planes: 1, cpp: [3]int{3}},
	XRGB8888: {planes: 1, cpp: [3]int{4}},
	ARGB8888: {planes: 1, cpp: [3]int{4}, opaque: XRGB8888},
	XBGR8888: {planes: 1, cpp: [3]int{4}},
	ABGR8888: {planes: 1, cpp: [3]int{4}, opaque: XBGR8888},
	RGBX8888: {planes: 1, cpp: [3]int{4}},
	RGBA8888: {planes: 1, cpp: [3]int{4}, opaque: RGBX8888},
	BGRX8888: {planes: 1, cpp: [3]int{4}},
	BGRA8888: {planes: 1, cpp: [3]int{4}, opaque: BGRX8888},

	XRGB2101010: {planes: 1, cpp: [3]int{4}},
	ARGB2101010: {planes: 1, cpp: [3]int{4}, opaque: XRGB2101010},

	NV12:   {planes: 2, cpp: [3]int{1, 2}},
	NV21:   {planes: 2, cpp: [3]int{1, 2}},
	YUV420: {planes: 3, cpp: [3]int{1, 1, 1}},
	YVU420: {planes: 3, cpp: [3]int{1, 1, 1}},
}

// Known reports whether f is in the table of this package.
func (f Format) Known() bool {
	_, ok := formats[f]
	return ok
}

// NumPlanes returns how many memory planes f uses, 0 if unknown.
func (f Format) NumPlanes() int {
	return formats[f].planes
}

// BytesPerPixel returns the bytes per pixel of plane 0, 0 if unknown.
func (f Format) BytesPerPixel() int {
	return formats[f].cpp[0]
}

// HasAlpha reports whether f carries an alpha channel.
func (f Format) HasAlpha() bool {
	return formats[f].opaque != 0
}

// Opaque returns the alpha-less sibling of f, or f itself.
func (f Format) Opaque() Format {
	if o := formats[f].opaque; o != 0 {
		return o
	}
	return f
}

func (f Format) String() string {
	b := []byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(f))
		}
	}
	return string(b)
}

var names = map[string]Format{
	"RGB565":      RGB565,
	"RGB888":      RGB888,
	"BGR888":      BGR888,
	"XRGB8888":    XRGB8888,
	"ARGB8888":    ARGB8888,
	"XBGR8888":    XBGR8888,
	"ABGR8888":    ABGR8888,
	"RGBX8888":    RGBX8888,
	"RGBA8888":    RGBA8888,
	"BGRX8888":    BGRX8888,
	"BGRA8888":    BGRA8888,
	"XRGB2101010": XRGB2101010,
	"ARGB2101010": ARGB2101010,
	"NV12":        NV12,
	"NV21":        NV21,
	"YUV420":      YUV420,
	"YVU420":      YVU420,
}

// Parse accepts a format name such as "XRGB8888" or a four character
// code such as "XR24".
func Parse(s string) (Format, error) {
	if f, ok := names[s]; ok {
		return f, nil
	}
	if len(s) == 4 {
		f := Code(s[0], s[1], s[2], s[3])
		if f.Known() {
			return f, nil
		}
	}
	return 0, fmt.Errorf("fourcc: unknown format %q", s)
}
