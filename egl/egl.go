// Package egl builds EGL_EXT_image_dma_buf_import attribute lists and
// defines the display interface the importer creates images through.
//
// The libEGL binding is only compiled with the "egl" build tag so the
// rest of the module builds without EGL headers.
package egl

import "fmt"

// EGL enums used by dma-buf import.
const (
	None   = 0x3038
	Height = 0x3056
	Width  = 0x3057

	LinuxDMABuf       = 0x3270
	LinuxDRMFourcc    = 0x3271
	DMABufPlane0FD    = 0x3272
	DMABufPlane0Off   = 0x3273
	DMABufPlane0Pitch = 0x3274
	DMABufPlane1FD    = 0x3275
	DMABufPlane1Off   = 0x3276
	DMABufPlane1Pitch = 0x3277
	DMABufPlane2FD    = 0x3278
	DMABufPlane2Off   = 0x3279
	DMABufPlane2Pitch = 0x327A
	DMABufPlane3FD    = 0x3440
	DMABufPlane3Off   = 0x3441
	DMABufPlane3Pitch = 0x3442

	BadAlloc     = 0x3003
	BadParameter = 0x300C
	BadMatch     = 0x3009
)

// Image is an opaque EGLImageKHR. NoImage is the failure sentinel.
type Image uintptr

const NoImage Image = 0

// Display creates zero-copy images over foreign memory.
type Display interface {
	CreateImage(target uint32, attribs []int32) (Image, error)
	DestroyImage(img Image) error
}

// Error carries an eglGetError code.
type Error struct {
	Op   string
	Code int32
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: egl error %#x", e.Op, e.Code)
}

// PlaneAttrib is one dma-buf plane of an image.
type PlaneAttrib struct {
	FD     int
	Pitch  uint32
	Offset uint32
}

var planeKeys = [4][3]int32{
	{DMABufPlane0FD, DMABufPlane0Pitch, DMABufPlane0Off},
	{DMABufPlane1FD, DMABufPlane1Pitch, DMABufPlane1Off},
	{DMABufPlane2FD, DMABufPlane2Pitch, DMABufPlane2Off},
	{DMABufPlane3FD, DMABufPlane3Pitch, DMABufPlane3Off},
}

// DMABufAttribs returns the None terminated attribute list for an
// EGL_LINUX_DMA_BUF_EXT image. Planes past the fourth are ignored.
func DMABufAttribs(width, height int32, format uint32, planes ...PlaneAttrib) []int32 {
	attr := []int32{
		Width, width,
		Height, height,
		LinuxDRMFourcc, int32(format),
	}
	for i, p := range planes {
		if i >= len(planeKeys) {
			break
		}
		keys := planeKeys[i]
		attr = append(attr,
			keys[0], int32(p.FD),
			keys[1], int32(p.Pitch),
			keys[2], int32(p.Offset),
		)
	}
	return append(attr, None)
}
