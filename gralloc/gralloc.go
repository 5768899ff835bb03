// Package gralloc describes buffers produced by a platform graphics
// allocator. The allocator itself lives outside this module; callers
// inject its identity as a Module and pass its buffers as Handles.
package gralloc

import (
	"fmt"

	"github.com/NeowayLabs/drmhwc/fourcc"
)

// MaxPlanes is the largest number of memory planes a handle carries.
const MaxPlanes = 4

// Usage bits, as in hardware/gralloc.h.
const (
	UsageSWReadOften    = 0x00000003
	UsageSWWriteOften   = 0x00000030
	UsageHWTexture      = 0x00000100
	UsageHWRender       = 0x00000200
	UsageHWComposer     = 0x00000800
	UsageHWFB           = 0x00001000
	UsageProtected      = 0x00004000
	UsageCursor         = 0x00008000
	UsageHWVideoEncoder = 0x00010000
	UsageHWCamera       = 0x00060000
)

// Plane is one memory plane of a buffer.
type Plane struct {
	FD     int    // dma-buf file descriptor, shareable across processes
	Stride uint32 // bytes per row
	Offset uint32 // bytes from the start of FD
}

// Handle is the allocator's description of a buffer. It is owned by
// the allocator and only read here. Planes[0] is populated on every
// valid handle; Planes[1:NumPlanes] only for multi-planar formats.
type Handle struct {
	Width, Height uint32
	Format        fourcc.Format
	Usage         uint64
	NumPlanes     int
	Planes        [MaxPlanes]Plane
}

// Valid reports whether h describes a non-empty buffer with a plane
// count that is in range and agrees with its format when the format
// is known.
func (h *Handle) Valid() bool {
	if h == nil || h.Width == 0 || h.Height == 0 {
		return false
	}
	if h.NumPlanes < 1 || h.NumPlanes > MaxPlanes {
		return false
	}
	if n := h.Format.NumPlanes(); n != 0 && n != h.NumPlanes {
		// several planes may share one fd, but every plane of the
		// format needs an entry
		return false
	}
	for _, p := range h.Planes[:h.NumPlanes] {
		if p.FD < 0 {
			return false
		}
	}
	return true
}

func (h *Handle) String() string {
	if h == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%dx%d %s usage=%#x planes=%d", h.Width, h.Height,
		h.Format, h.Usage, h.NumPlanes)
}

// Module is the identity of the bound allocator module.
type Module interface {
	Name() string
	Author() string
}

// StaticModule is a Module with fixed identity strings, for allocators
// whose identity is known up front and for tests.
type StaticModule struct {
	ModuleName   string
	ModuleAuthor string
}

func (m StaticModule) Name() string   { return m.ModuleName }
func (m StaticModule) Author() string { return m.ModuleAuthor }

// Minigbm is the identity reported by the Chrome OS minigbm allocator.
var Minigbm = StaticModule{
	ModuleName:   "CrOS Gralloc",
	ModuleAuthor: "Chrome OS",
}
