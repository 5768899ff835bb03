// Package hwc runs the per-frame part of a hardware composer: import
// every layer's buffer, plan which layers get planes, and prepare GPU
// images for the rest.
package hwc

import (
	"image"

	"github.com/NeowayLabs/drmhwc/egl"
	"github.com/NeowayLabs/drmhwc/gralloc"
	"github.com/NeowayLabs/drmhwc/importer"
	"github.com/NeowayLabs/drmhwc/planner"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

// LayerRequest is one layer the host wants on screen this frame.
type LayerRequest struct {
	ID     int
	ZOrder int
	Kind   planner.LayerKind
	Blend  planner.Blend
	Src    image.Rectangle // empty means the whole buffer
	Dst    image.Rectangle
	Handle *gralloc.Handle
}

// Composer ties an importer, a planner and an optional EGL display
// together. It is used from one goroutine at a time.
type Composer struct {
	Importer importer.Importer
	Planner  *planner.Planner
	// Display receives GPU images for composited layers. Without one
	// composited layers get no image.
	Display egl.Display
	Log     logrus.FieldLogger
}

func (c *Composer) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Prepare imports, plans and prepares one frame. Layers whose buffer
// cannot be imported are composited. It fails before importing
// anything when the composer is not set up or two requests share an
// ID, since the frame tracks its buffers by layer ID.
func (c *Composer) Prepare(reqs []LayerRequest, planes []*planner.Plane) (*Frame, error) {
	if c.Importer == nil || c.Planner == nil {
		return nil, errors.NotValidf("composer without importer or planner")
	}
	seen := make(map[int]bool, len(reqs))
	for _, req := range reqs {
		if seen[req.ID] {
			return nil, errors.NotValidf("duplicate layer id %d", req.ID)
		}
		seen[req.ID] = true
	}

	f := &Frame{
		Buffers: make(map[int]*importer.BufferObject),
		Images:  make(map[int]egl.Image),
		dpy:     c.Display,
		log:     c.log(),
	}

	layers := make([]*planner.Layer, len(reqs))
	var importable []*planner.Layer
	for i, req := range reqs {
		l := newLayer(req)
		layers[i] = l

		bo, err := c.Importer.ImportBuffer(req.Handle)
		if err != nil {
			c.log().WithFields(logrus.Fields{
				"layer":  req.ID,
				"buffer": req.Handle.String(),
			}).WithError(err).Warn("import failed, compositing layer")
			continue
		}
		l.Buffer = bo
		f.Buffers[req.ID] = bo
		importable = append(importable, l)
	}

	partial := c.Planner.Plan(importable, planes)
	f.Plan = merge(layers, partial)

	if c.Display == nil {
		return f, nil
	}
	for _, l := range f.Plan.Composited() {
		req := reqs[indexOf(layers, l)]
		img, err := c.Importer.ImportImage(c.Display, req.Handle)
		if err != nil {
			c.log().WithField("layer", req.ID).WithError(err).Warn("no gpu image for layer")
			continue
		}
		f.Images[req.ID] = img
	}
	return f, nil
}

func newLayer(req LayerRequest) *planner.Layer {
	l := &planner.Layer{
		ID:     req.ID,
		ZOrder: req.ZOrder,
		Kind:   req.Kind,
		Blend:  req.Blend,
		Src:    req.Src,
		Dst:    req.Dst,
	}
	if h := req.Handle; h != nil {
		l.Format = h.Format
		if l.Src.Empty() {
			l.Src = image.Rect(0, 0, int(h.Width), int(h.Height))
		}
		if l.Kind == planner.Normal {
			switch {
			case h.Usage&gralloc.UsageCursor != 0:
				l.Kind = planner.CursorLayer
			case h.NumPlanes > 1:
				l.Kind = planner.Video
			}
		}
	}
	return l
}

// merge puts the layers the planner never saw back into the plan as
// composited, keeping submission order.
func merge(layers []*planner.Layer, partial *planner.Plan) *planner.Plan {
	planned := make(map[*planner.Layer]*planner.Plane, len(partial.Assignments))
	for _, a := range partial.Assignments {
		planned[a.Layer] = a.Plane
	}
	plan := &planner.Plan{Assignments: make([]planner.Assignment, len(layers))}
	for i, l := range layers {
		plan.Assignments[i] = planner.Assignment{Layer: l, Plane: planned[l]}
	}
	return plan
}

func indexOf(layers []*planner.Layer, l *planner.Layer) int {
	for i := range layers {
		if layers[i] == l {
			return i
		}
	}
	return -1
}

// Frame is the result of Prepare. The host commits Plan and must call
// Release once the frame is off screen.
type Frame struct {
	Plan    *planner.Plan
	Buffers map[int]*importer.BufferObject // by layer id
	Images  map[int]egl.Image              // by layer id, composited layers only

	dpy      egl.Display
	log      logrus.FieldLogger
	released bool
}

// Release releases every buffer object and destroys the GPU images of
// the frame. Calling it again does nothing.
func (f *Frame) Release() error {
	if f.released {
		return nil
	}
	f.released = true

	var errs []error
	for id, bo := range f.Buffers {
		if err := bo.Release(); err != nil {
			f.log.WithField("layer", id).WithError(err).Error("release buffer")
			errs = append(errs, err)
		}
	}
	for id, img := range f.Images {
		if err := f.dpy.DestroyImage(img); err != nil {
			f.log.WithField("layer", id).WithError(err).Error("destroy image")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Annotatef(errs[0], "release frame (%d errors)", len(errs))
	}
	return nil
}
