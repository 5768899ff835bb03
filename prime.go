package drm

import (
	"os"
	"unsafe"

	"github.com/NeowayLabs/drmhwc/ioctl"
	"golang.org/x/sys/unix"
)

type (
	primeHandle struct {
		handle uint32
		flags  uint32
		fd     int32
	}

	gemClose struct {
		handle uint32
		pad    uint32
	}
)

// PrimeFDToHandle exchanges a dma-buf file descriptor for a GEM handle
// local to file. Every successful call takes a reference on the
// underlying buffer that is only dropped by CloseHandle.
func PrimeFDToHandle(file *os.File, fd int) (uint32, error) {
	p := &primeHandle{fd: int32(fd)}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLPrimeFDToHandle),
		uintptr(unsafe.Pointer(p)))
	if err != nil {
		return 0, err
	}
	return p.handle, nil
}

// PrimeHandleToFD exports a GEM handle as a dma-buf file descriptor.
// The descriptor is created close-on-exec and read/write.
func PrimeHandleToFD(file *os.File, handle uint32) (int, error) {
	p := &primeHandle{
		handle: handle,
		flags:  unix.O_CLOEXEC | unix.O_RDWR,
	}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLPrimeHandleToFD),
		uintptr(unsafe.Pointer(p)))
	if err != nil {
		return -1, err
	}
	return int(p.fd), nil
}

// CloseHandle drops a GEM handle.
func CloseHandle(file *os.File, handle uint32) error {
	return ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLGemClose),
		uintptr(unsafe.Pointer(&gemClose{handle: handle})))
}
