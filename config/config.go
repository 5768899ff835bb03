// Package config reads the TOML configuration of the hwcplan tool.
package config

import (
	"bytes"
	"image"
	"os"
	"strings"

	"github.com/NeowayLabs/drmhwc/fourcc"
	"github.com/NeowayLabs/drmhwc/gralloc"
	"github.com/NeowayLabs/drmhwc/importer"
	"github.com/NeowayLabs/drmhwc/planner"
	"github.com/juju/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Device   string `toml:"device"`
	LogLevel string `toml:"log_level"`

	Importer  Importer  `toml:"importer"`
	Allocator Allocator `toml:"allocator"`
	Display   Display   `toml:"display"`
	Planner   Planner   `toml:"planner"`

	Layers []Layer `toml:"layer"`
}

type Importer struct {
	Variant        string `toml:"variant"`
	ExpectedAuthor string `toml:"expected_author"`
}

// Allocator is the identity of the allocator module the buffers come
// from.
type Allocator struct {
	Name   string `toml:"name"`
	Author string `toml:"author"`
}

type Display struct {
	CrtcIndex int `toml:"crtc_index"`
	Width     int `toml:"width"`
	Height    int `toml:"height"`
	// Planes with a scaler, by KMS id.
	ScalingPlanes []uint32 `toml:"scaling_planes"`
}

type Planner struct {
	Reserve []Reservation `toml:"reserve"`
}

// Reservation runs a reserving stage before the greedy one.
type Reservation struct {
	Layer string `toml:"layer"` // normal, video or cursor
	Plane string `toml:"plane"` // overlay, primary or cursor
}

// Layer is a test layer backed by a dumb buffer.
type Layer struct {
	ID     int    `toml:"id"`
	Z      int    `toml:"z"`
	Format string `toml:"format"`
	Kind   string `toml:"kind"`
	Blend  string `toml:"blend"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	X      int    `toml:"x"`
	Y      int    `toml:"y"`
	// Size on screen, defaults to the buffer size.
	DstWidth  int `toml:"dst_width"`
	DstHeight int `toml:"dst_height"`
}

func Default() *Config {
	return &Config{
		Device:   "/dev/dri/card0",
		LogLevel: "info",
		Importer: Importer{
			Variant:        importer.Minigbm.String(),
			ExpectedAuthor: gralloc.Minigbm.Author(),
		},
		Allocator: Allocator{
			Name:   gralloc.Minigbm.Name(),
			Author: gralloc.Minigbm.Author(),
		},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "config %s", path)
	}
	return c, nil
}

// Parse decodes data over the defaults and validates the result.
// Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return nil, errors.Annotate(err, "decode")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.NotValidf("empty device")
	}
	if _, err := c.Variant(); err != nil {
		return errors.NewNotValid(err, "importer")
	}
	if _, err := c.Level(); err != nil {
		return errors.NewNotValid(err, "log_level")
	}
	if _, err := c.Stages(); err != nil {
		return err
	}
	if c.Display.CrtcIndex < 0 {
		return errors.NotValidf("crtc_index %d", c.Display.CrtcIndex)
	}
	ids := make(map[int]bool)
	for _, l := range c.Layers {
		if ids[l.ID] {
			return errors.NotValidf("duplicate layer id %d", l.ID)
		}
		ids[l.ID] = true
		if _, err := l.Request(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Variant() (importer.Variant, error) {
	return importer.ParseVariant(c.Importer.Variant)
}

func (c *Config) Module() gralloc.Module {
	return gralloc.StaticModule{ModuleName: c.Allocator.Name, ModuleAuthor: c.Allocator.Author}
}

func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

// Screen is the CRTC area, empty when width or height is unset.
func (c *Config) Screen() image.Rectangle {
	return image.Rect(0, 0, c.Display.Width, c.Display.Height)
}

// Stages returns the reserving stages followed by the greedy stage.
func (c *Config) Stages() ([]planner.Stage, error) {
	var stages []planner.Stage
	for _, r := range c.Planner.Reserve {
		kind, err := parseKind(r.Layer)
		if err != nil {
			return nil, err
		}
		typ, err := parsePlaneType(r.Plane)
		if err != nil {
			return nil, err
		}
		stages = append(stages, planner.Reserve{Kind: kind, Type: typ})
	}
	return append(stages, planner.Greedy{}), nil
}

// TestLayer is a validated Layer.
type TestLayer struct {
	ID, Z  int
	Format fourcc.Format
	Kind   planner.LayerKind
	Blend  planner.Blend
	Width  int
	Height int
	Dst    image.Rectangle
}

func (l Layer) Request() (TestLayer, error) {
	f, err := fourcc.Parse(l.Format)
	if err != nil {
		return TestLayer{}, errors.NewNotValid(err, "layer format")
	}
	if f.NumPlanes() != 1 {
		return TestLayer{}, errors.NotSupportedf("layer %d: multi-planar format %s", l.ID, f)
	}
	if l.Width <= 0 || l.Height <= 0 || l.Width > 0xffff || l.Height > 0xffff {
		return TestLayer{}, errors.NotValidf("layer %d size %dx%d", l.ID, l.Width, l.Height)
	}
	kind, err := parseKind(l.Kind)
	if err != nil {
		return TestLayer{}, err
	}
	blend, err := parseBlend(l.Blend)
	if err != nil {
		return TestLayer{}, err
	}
	dw, dh := l.DstWidth, l.DstHeight
	if dw == 0 {
		dw = l.Width
	}
	if dh == 0 {
		dh = l.Height
	}
	return TestLayer{
		ID:     l.ID,
		Z:      l.Z,
		Format: f,
		Kind:   kind,
		Blend:  blend,
		Width:  l.Width,
		Height: l.Height,
		Dst:    image.Rect(l.X, l.Y, l.X+dw, l.Y+dh),
	}, nil
}

func parseKind(s string) (planner.LayerKind, error) {
	for _, k := range []planner.LayerKind{planner.Normal, planner.Video, planner.CursorLayer} {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	if s == "" {
		return planner.Normal, nil
	}
	return 0, errors.NotValidf("layer kind %q", s)
}

func parsePlaneType(s string) (planner.PlaneType, error) {
	for _, t := range []planner.PlaneType{planner.Overlay, planner.Primary, planner.Cursor} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, errors.NotValidf("plane type %q", s)
}

func parseBlend(s string) (planner.Blend, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return planner.BlendNone, nil
	case "premultiplied":
		return planner.BlendPremultiplied, nil
	case "coverage":
		return planner.BlendCoverage, nil
	}
	return 0, errors.NotValidf("blend %q", s)
}
