// Package planner decides which layers of a frame are scanned out by
// hardware planes and which are composited on the GPU.
//
// A Planner runs an ordered list of stages. Each stage sees only the
// layers and planes earlier stages left unclaimed. Layers no stage
// claims are composited, so planning never fails.
package planner

import (
	"github.com/sirupsen/logrus"
)

// Claim pairs a layer with the plane that will scan it out.
type Claim struct {
	Layer *Layer
	Plane *Plane
}

// Stage claims planes for layers. Implementations must be
// deterministic and must not retain the slices.
type Stage interface {
	Provision(layers []*Layer, planes []*Plane) []Claim
}

// StageFunc adapts a function to Stage.
type StageFunc func(layers []*Layer, planes []*Plane) []Claim

func (f StageFunc) Provision(layers []*Layer, planes []*Plane) []Claim {
	return f(layers, planes)
}

type Planner struct {
	stages []Stage
	Log    logrus.FieldLogger
}

func New(stages ...Stage) *Planner {
	return &Planner{
		stages: stages,
		Log:    logrus.StandardLogger(),
	}
}

// NewDefault returns a planner with a single greedy stage.
func NewDefault() *Planner {
	return New(Greedy{})
}

// AddStage appends s to the pipeline.
func (p *Planner) AddStage(s Stage) {
	p.stages = append(p.stages, s)
}

// PrependStage puts s in front of the pipeline.
func (p *Planner) PrependStage(s Stage) {
	p.stages = append([]Stage{s}, p.stages...)
}

func (p *Planner) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Plan assigns planes to layers. planes must not change while Plan
// runs. Every layer gets exactly one outcome and every plane is
// claimed at most once. Claims naming layers or planes that are not
// left over are dropped.
func (p *Planner) Plan(layers []*Layer, planes []*Plane) *Plan {
	plan := &Plan{Assignments: make([]Assignment, 0, len(layers))}
	layerIdx := make(map[*Layer]int, len(layers))
	var residual []*Layer
	for _, l := range layers {
		if l == nil {
			continue
		}
		if _, dup := layerIdx[l]; dup {
			continue
		}
		layerIdx[l] = len(plan.Assignments)
		plan.Assignments = append(plan.Assignments, Assignment{Layer: l})
		residual = append(residual, l)
	}

	free := make(map[*Plane]bool, len(planes))
	var unclaimed []*Plane
	for _, pl := range planes {
		if pl == nil || free[pl] {
			continue
		}
		free[pl] = true
		unclaimed = append(unclaimed, pl)
	}

	for i, stage := range p.stages {
		if len(residual) == 0 || len(unclaimed) == 0 {
			break
		}
		claims := stage.Provision(
			append([]*Layer(nil), residual...),
			append([]*Plane(nil), unclaimed...),
		)
		taken := make(map[*Layer]bool, len(claims))
		for _, c := range claims {
			idx, ok := layerIdx[c.Layer]
			if !ok || taken[c.Layer] || plan.Assignments[idx].Plane != nil || !free[c.Plane] {
				p.log().WithField("stage", i).Warnf("dropping invalid claim %v -> %v", c.Layer, c.Plane)
				continue
			}
			taken[c.Layer] = true
			free[c.Plane] = false
			plan.Assignments[idx].Plane = c.Plane
			p.log().WithField("stage", i).Debugf("%v -> %v", c.Layer, c.Plane)
		}
		residual = filter(residual, func(l *Layer) bool { return !taken[l] })
		unclaimed = filter(unclaimed, func(pl *Plane) bool { return free[pl] })
	}

	for _, l := range residual {
		p.log().Debugf("%v -> gpu", l)
	}
	return plan
}

func (p *Planner) log() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

func filter[T any](s []T, keep func(T) bool) []T {
	out := s[:0]
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
