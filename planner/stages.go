package planner

import (
	"cmp"
	"slices"
)

// Greedy walks the layers bottom up, in submission order for equal
// z-order, and gives each the best matching plane left. Ties go to the
// plane listed first.
type Greedy struct{}

func (Greedy) Provision(layers []*Layer, planes []*Plane) []Claim {
	return greedy(layers, planes, func(*Layer) bool { return true }, func(*Plane) bool { return true })
}

// Reserve hands planes of one type to layers of one kind before the
// general stages run, e.g. cursor planes to cursor layers.
type Reserve struct {
	Kind LayerKind
	Type PlaneType
}

func (r Reserve) Provision(layers []*Layer, planes []*Plane) []Claim {
	return greedy(layers, planes,
		func(l *Layer) bool { return l.Kind == r.Kind },
		func(p *Plane) bool { return p.Type == r.Type })
}

func greedy(layers []*Layer, planes []*Plane, wantLayer func(*Layer) bool, wantPlane func(*Plane) bool) []Claim {
	ordered := slices.Clone(layers)
	slices.SortStableFunc(ordered, func(a, b *Layer) int {
		return cmp.Compare(a.ZOrder, b.ZOrder)
	})

	used := make([]bool, len(planes))
	var claims []Claim
	for _, l := range ordered {
		if !wantLayer(l) {
			continue
		}
		best, bestScore := -1, 0
		for i, p := range planes {
			if used[i] || !wantPlane(p) {
				continue
			}
			if s := Match(l, p); s > bestScore {
				best, bestScore = i, s
			}
		}
		if best < 0 {
			continue
		}
		used[best] = true
		claims = append(claims, Claim{Layer: l, Plane: planes[best]})
	}
	return claims
}
