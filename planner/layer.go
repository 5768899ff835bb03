package planner

import (
	"fmt"
	"image"

	"github.com/NeowayLabs/drmhwc/fourcc"
)

// PlaneType follows the values of the KMS "type" plane property.
type PlaneType int

const (
	Overlay PlaneType = iota
	Primary
	Cursor
)

func (t PlaneType) String() string {
	switch t {
	case Overlay:
		return "overlay"
	case Primary:
		return "primary"
	case Cursor:
		return "cursor"
	}
	return fmt.Sprintf("PlaneType(%d)", int(t))
}

// LayerKind tells stages what a layer shows.
type LayerKind int

const (
	Normal LayerKind = iota
	Video
	CursorLayer
)

func (k LayerKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Video:
		return "video"
	case CursorLayer:
		return "cursor"
	}
	return fmt.Sprintf("LayerKind(%d)", int(k))
}

type Blend int

const (
	BlendNone Blend = iota
	BlendPremultiplied
	BlendCoverage
)

// Layer is a request to show one buffer for one frame.
type Layer struct {
	ID     int
	ZOrder int
	Format fourcc.Format
	Kind   LayerKind
	Blend  Blend

	Src image.Rectangle // crop of the buffer, in pixels; empty for the whole buffer
	Dst image.Rectangle // position on screen

	// Buffer is carried through the plan untouched.
	Buffer any
}

// NeedsScaling reports whether Src and Dst differ in size. A layer
// without a crop is shown at its own size.
func (l *Layer) NeedsScaling() bool {
	if l.Src.Empty() {
		return false
	}
	return l.Src.Dx() != l.Dst.Dx() || l.Src.Dy() != l.Dst.Dy()
}

// Opaque reports whether the alpha channel of the layer is ignored.
func (l *Layer) Opaque() bool {
	return l.Blend == BlendNone || !l.Format.HasAlpha()
}

func (l *Layer) String() string {
	return fmt.Sprintf("layer %d (z=%d %s %s %v)", l.ID, l.ZOrder, l.Kind, l.Format, l.Dst)
}

// Plane is a hardware plane as seen by the planner.
type Plane struct {
	ID      uint32
	Type    PlaneType
	Formats []fourcc.Format

	CanScale    bool
	CanPosition bool
	// Maximum Dst size, 0 for no limit.
	MaxWidth, MaxHeight uint32
	// Screen is the CRTC area. A plane that cannot position only
	// takes layers covering exactly this area. Empty means unknown
	// and positioning is not checked.
	Screen image.Rectangle
}

func (p *Plane) String() string {
	return fmt.Sprintf("plane %d (%s)", p.ID, p.Type)
}

func (p *Plane) supports(f fourcc.Format) bool {
	for _, pf := range p.Formats {
		if pf == f {
			return true
		}
	}
	return false
}

// Match rates how well p fits l. Zero means the plane cannot show the
// layer; higher is a better fit.
func Match(l *Layer, p *Plane) int {
	if p.Type == Cursor && l.Kind != CursorLayer {
		return 0
	}
	if l.Dst.Empty() {
		return 0
	}
	if p.MaxWidth != 0 && uint32(l.Dst.Dx()) > p.MaxWidth {
		return 0
	}
	if p.MaxHeight != 0 && uint32(l.Dst.Dy()) > p.MaxHeight {
		return 0
	}
	scaling := l.NeedsScaling()
	if scaling && !p.CanScale {
		return 0
	}
	if !p.CanPosition && !p.Screen.Empty() && l.Dst != p.Screen {
		return 0
	}

	score := 1
	switch {
	case p.supports(l.Format):
		score += 2
	case l.Opaque() && l.Format.Opaque() != l.Format && p.supports(l.Format.Opaque()):
		// scanned out as the alpha-less sibling
	default:
		return 0
	}
	if !scaling && !p.CanScale {
		// leave scalers to layers that need them
		score++
	}
	return score
}
