package kms

import (
	"cmp"
	"image"
	"slices"

	drm "github.com/NeowayLabs/drmhwc"
	"github.com/NeowayLabs/drmhwc/fourcc"
	"github.com/NeowayLabs/drmhwc/mode"
	"github.com/NeowayLabs/drmhwc/planner"
	"github.com/juju/errors"
)

const defaultCursorSize = 64

// Options select and describe the planes of one CRTC.
type Options struct {
	CrtcIndex int
	// Screen is the active area of the CRTC, see planner.Plane.
	Screen image.Rectangle
	// ScalingPlanes lists planes with a scaler. KMS does not report
	// scaling support, so it comes from configuration.
	ScalingPlanes []uint32
}

// Planes lists the planes usable on opts.CrtcIndex, ordered by id.
func (d *Device) Planes(opts Options) ([]*planner.Plane, error) {
	res, err := mode.GetResources(d.file)
	if err != nil {
		return nil, errors.Annotate(err, "get resources")
	}
	if opts.CrtcIndex < 0 || opts.CrtcIndex >= len(res.Crtcs) {
		return nil, errors.NotValidf("crtc index %d of %d", opts.CrtcIndex, len(res.Crtcs))
	}

	ids, err := mode.GetPlaneResources(d.file)
	if err != nil {
		return nil, errors.Annotate(err, "get plane resources")
	}

	cursorW, cursorH := d.cursorSize()
	var planes []*planner.Plane
	for _, id := range ids {
		p, err := mode.GetPlane(d.file, id)
		if err != nil {
			return nil, errors.Annotatef(err, "get plane %d", id)
		}
		if p.PossibleCrtcs&(1<<uint(opts.CrtcIndex)) == 0 {
			continue
		}
		typ, err := d.planeType(id)
		if err != nil {
			return nil, errors.Annotatef(err, "plane %d type", id)
		}
		planes = append(planes, convertPlane(p, typ, opts, cursorW, cursorH))
	}
	slices.SortFunc(planes, func(a, b *planner.Plane) int { return cmp.Compare(a.ID, b.ID) })
	return planes, nil
}

func (d *Device) planeType(id uint32) (planner.PlaneType, error) {
	props, values, err := mode.GetProperties(d.file, id, mode.ObjectPlane)
	if err != nil {
		return 0, err
	}
	for i, pid := range props {
		prop, err := mode.GetProperty(d.file, pid)
		if err != nil {
			return 0, err
		}
		if prop.Name == "type" {
			return planner.PlaneType(values[i]), nil
		}
	}
	// without universal planes only overlays are listed
	return planner.Overlay, nil
}

func (d *Device) cursorSize() (uint32, uint32) {
	w, err := drm.GetCap(d.file, drm.CapCursorWidth)
	if err != nil || w == 0 {
		w = defaultCursorSize
	}
	h, err := drm.GetCap(d.file, drm.CapCursorHeight)
	if err != nil || h == 0 {
		h = defaultCursorSize
	}
	return uint32(w), uint32(h)
}

func convertPlane(p *mode.Plane, typ planner.PlaneType, opts Options, cursorW, cursorH uint32) *planner.Plane {
	out := &planner.Plane{
		ID:       p.ID,
		Type:     typ,
		Formats:  make([]fourcc.Format, len(p.Formats)),
		CanScale: slices.Contains(opts.ScalingPlanes, p.ID),
		// primary planes have to cover the CRTC on most hardware
		CanPosition: typ != planner.Primary,
		Screen:      opts.Screen,
	}
	for i, f := range p.Formats {
		out.Formats[i] = fourcc.Format(f)
	}
	if typ == planner.Cursor {
		out.MaxWidth, out.MaxHeight = cursorW, cursorH
		out.CanScale = false
	}
	return out
}
