package importer

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidHandle is returned for nil or malformed buffer handles.
	// Nothing was imported.
	ErrInvalidHandle = errors.New("importer: invalid buffer handle")

	// ErrMultiPlanar is returned by importers that only wire plane 0
	// when handed a buffer with more than one plane.
	ErrMultiPlanar = errors.New("importer: multi-planar buffer not supported")

	// ErrVendorMismatch is reported by Importer.Warning when the bound
	// allocator is not the one the importer expects.
	ErrVendorMismatch = errors.New("importer: allocator module is not the expected vendor")

	// ErrReleased is returned when a buffer object is released twice.
	ErrReleased = errors.New("importer: buffer object already released")
)

// InitError means no importer could be constructed.
type InitError struct {
	Reason string
}

func (e *InitError) Error() string {
	return "importer: init: " + e.Reason
}

// DriverError is a failed kernel call. Errno is the native error code,
// zero if the device did not report one.
type DriverError struct {
	Op    string
	Errno unix.Errno
	Err   error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("importer: %s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

func driverError(op string, err error) *DriverError {
	e := &DriverError{Op: op, Err: err}
	errors.As(err, &e.Errno)
	return e
}

// ImageError means the GPU layer rejected an image import.
type ImageError struct {
	Err error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("importer: create image: %v", e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }
