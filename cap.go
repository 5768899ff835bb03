package drm

import (
	"os"
	"unsafe"

	"github.com/NeowayLabs/drmhwc/ioctl"
)

type (
	capability struct {
		cap uint64
		val uint64
	}
)

const (
	CapDumbBuffer = iota + 1
	CapVBlankHighCRTC
	CapDumbPreferredDepth
	CapDumbPreferShadow
	CapPrime
	CapTimestampMonotonic
	CapAsyncPageFlip
	CapCursorWidth
	CapCursorHeight

	CapAddFB2Modifiers = 0x10
)

// Bits reported by CapPrime.
const (
	PrimeCapImport = 0x1
	PrimeCapExport = 0x2
)

// Client capabilities, see SetClientCap.
const (
	ClientCapStereo3D = iota + 1
	ClientCapUniversalPlanes
	ClientCapAtomic
)

func GetCap(file *os.File, capid uint64) (uint64, error) {
	cap := &capability{}
	cap.cap = capid
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLGetCap), uintptr(unsafe.Pointer(cap)))
	if err != nil {
		return 0, err
	}
	return cap.val, nil
}

func HasDumbBuffer(file *os.File) bool {
	val, err := GetCap(file, CapDumbBuffer)
	if err != nil {
		return false
	}
	return val != 0
}

// HasPrimeImport reports whether the driver can turn dma-buf file
// descriptors into GEM handles.
func HasPrimeImport(file *os.File) bool {
	val, err := GetCap(file, CapPrime)
	if err != nil {
		return false
	}
	return val&PrimeCapImport != 0
}

// SetClientCap enables a client capability. Universal planes must be
// enabled before primary and cursor planes show up in the plane list.
func SetClientCap(file *os.File, capid, val uint64) error {
	return ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLSetClientCap),
		uintptr(unsafe.Pointer(&capability{cap: capid, val: val})))
}
