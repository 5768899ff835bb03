package planner

import (
	"fmt"
	"strings"
)

// Assignment is the outcome for one layer. A nil Plane means the layer
// is composited on the GPU.
type Assignment struct {
	Layer *Layer
	Plane *Plane
}

func (a Assignment) Composited() bool { return a.Plane == nil }

// Plan holds one Assignment per layer, in submission order.
type Plan struct {
	Assignments []Assignment
}

// PlaneFor returns the plane claimed for the layer with the given id,
// or nil when it is composited or unknown.
func (p *Plan) PlaneFor(id int) *Plane {
	for _, a := range p.Assignments {
		if a.Layer.ID == id {
			return a.Plane
		}
	}
	return nil
}

// Composited returns the layers left for GPU composition.
func (p *Plan) Composited() []*Layer {
	var out []*Layer
	for _, a := range p.Assignments {
		if a.Composited() {
			out = append(out, a.Layer)
		}
	}
	return out
}

// Claimed returns the assignments that got a plane.
func (p *Plan) Claimed() []Assignment {
	var out []Assignment
	for _, a := range p.Assignments {
		if !a.Composited() {
			out = append(out, a)
		}
	}
	return out
}

func (p *Plan) String() string {
	var b strings.Builder
	for i, a := range p.Assignments {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Composited() {
			fmt.Fprintf(&b, "%d:gpu", a.Layer.ID)
		} else {
			fmt.Fprintf(&b, "%d:%d", a.Layer.ID, a.Plane.ID)
		}
	}
	return b.String()
}
