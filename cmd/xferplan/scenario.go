package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/tilexfer"
	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/rcl"
)

// errScenario is wrapped by every scenario validation error.
var errScenario = errors.New("invalid scenario")

// scenario is a YAML description of resources and the transfers recorded
// against them.
type scenario struct {
	Device  deviceSpec   `yaml:"device"`
	Images  []imageSpec  `yaml:"images"`
	Buffers []bufferSpec `yaml:"buffers"`
	Ops     []opSpec     `yaml:"ops"`
}

type deviceSpec struct {
	TFUVersion        int    `yaml:"tfu_version"`
	MaxImageDimension uint32 `yaml:"max_image_dimension"`
	SkipTLBLoad       bool   `yaml:"skip_tlb_load"`
}

type imageSpec struct {
	Name    string `yaml:"name"`
	Format  string `yaml:"format"`
	Dim     string `yaml:"dim"`
	Width   uint32 `yaml:"width"`
	Height  uint32 `yaml:"height"`
	Layers  uint32 `yaml:"layers"`
	Levels  uint32 `yaml:"levels"`
	Samples uint32 `yaml:"samples"`
	Linear  bool   `yaml:"linear"`
}

type bufferSpec struct {
	Name string `yaml:"name"`
	Size uint32 `yaml:"size"`
}

// opSpec is one transfer. Which fields apply depends on Op.
type opSpec struct {
	Op     string `yaml:"op"`
	Src    string `yaml:"src"`
	Dst    string `yaml:"dst"`
	Aspect string `yaml:"aspect"`

	Level     uint32   `yaml:"level"`
	DstLevel  uint32   `yaml:"dst_level"`
	Layer     uint32   `yaml:"layer"`
	Layers    uint32   `yaml:"layers"`
	SrcOffset []uint32 `yaml:"src_offset"`
	DstOffset []uint32 `yaml:"dst_offset"`
	Extent    []uint32 `yaml:"extent"`

	SrcBox []int32 `yaml:"src_box"`
	DstBox []int32 `yaml:"dst_box"`
	Filter string  `yaml:"filter"`

	RowLength    uint32 `yaml:"row_length"`
	ImageHeight  uint32 `yaml:"image_height"`
	BufferOffset uint32 `yaml:"buffer_offset"`

	Color        []float32 `yaml:"color"`
	UintColor    []uint32  `yaml:"uint_color"`
	Depth        float32   `yaml:"depth"`
	Stencil      uint8     `yaml:"stencil"`
	Rect         []uint32  `yaml:"rect"`
	InRenderPass bool      `yaml:"in_render_pass"`

	Size uint32 `yaml:"size"`
	Data uint32 `yaml:"data"`
}

// parseScenario decodes a scenario, rejecting unknown keys.
func parseScenario(r io.Reader) (*scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

func (s *scenario) options() []tilexfer.DeviceOption {
	var opts []tilexfer.DeviceOption
	if s.Device.TFUVersion != 0 {
		opts = append(opts, tilexfer.WithTFUVersion(s.Device.TFUVersion))
	}
	if s.Device.MaxImageDimension != 0 {
		opts = append(opts, tilexfer.WithMaxImageDimension(s.Device.MaxImageDimension))
	}
	if s.Device.SkipTLBLoad {
		opts = append(opts, tilexfer.WithTLBLoadSkip(true))
	}
	return opts
}

func (s imageSpec) desc() (tilexfer.ImageDesc, error) {
	f, ok := format.Parse(s.Format)
	if !ok {
		return tilexfer.ImageDesc{}, fmt.Errorf("%w: image %q: unknown format %q", errScenario, s.Name, s.Format)
	}
	d := tilexfer.ImageDesc{
		Label:   s.Name,
		Format:  f,
		Size:    gputypes.Extent3D{Width: s.Width, Height: max(s.Height, 1), DepthOrArrayLayers: max(s.Layers, 1)},
		Levels:  s.Levels,
		Samples: s.Samples,
		Linear:  s.Linear,
	}
	switch s.Dim {
	case "", "2d":
		d.Dim = gputypes.TextureDimension2D
	case "1d":
		d.Dim = gputypes.TextureDimension1D
	case "3d":
		d.Dim = gputypes.TextureDimension3D
	default:
		return d, fmt.Errorf("%w: image %q: unknown dim %q", errScenario, s.Name, s.Dim)
	}
	return d, nil
}

var aspects = map[string]format.Aspect{
	"":              format.AspectColor,
	"color":         format.AspectColor,
	"depth":         format.AspectDepth,
	"stencil":       format.AspectStencil,
	"depth_stencil": format.AspectDepthStencil,
	"plane0":        format.AspectPlane0,
	"plane1":        format.AspectPlane1,
	"plane2":        format.AspectPlane2,
}

func parseAspect(name string) (format.Aspect, error) {
	a, ok := aspects[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown aspect %q", errScenario, name)
	}
	return a, nil
}

func parseFilter(name string) (gputypes.FilterMode, error) {
	switch name {
	case "", "nearest":
		return gputypes.FilterModeNearest, nil
	case "linear":
		return gputypes.FilterModeLinear, nil
	}
	return gputypes.FilterModeNearest, fmt.Errorf("%w: unknown filter %q", errScenario, name)
}

func parseBox(v []int32) (tilexfer.Box, error) {
	switch len(v) {
	case 4:
		return tilexfer.Box{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3], Z1: 1}, nil
	case 6:
		return tilexfer.Box{X0: v[0], Y0: v[1], Z0: v[2], X1: v[3], Y1: v[4], Z1: v[5]}, nil
	}
	return tilexfer.Box{}, fmt.Errorf("%w: box needs 4 or 6 values, got %d", errScenario, len(v))
}

func parseRect(v []uint32) (*rcl.Rect, error) {
	switch len(v) {
	case 0:
		return nil, nil
	case 4:
		return &rcl.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
	}
	return nil, fmt.Errorf("%w: rect needs 4 values, got %d", errScenario, len(v))
}

func parseColor(op opSpec) (format.ClearColor, error) {
	switch {
	case len(op.UintColor) == 4:
		return format.UintClear(op.UintColor[0], op.UintColor[1], op.UintColor[2], op.UintColor[3]), nil
	case len(op.Color) == 4:
		return format.FloatClear(op.Color[0], op.Color[1], op.Color[2], op.Color[3]), nil
	case len(op.Color) == 0 && len(op.UintColor) == 0:
		return format.ClearColor{}, nil
	}
	return format.ClearColor{}, fmt.Errorf("%w: clear color needs 4 channels", errScenario)
}

// triple pads a coordinate list of up to three values with zeros.
func triple(v []uint32) ([3]uint32, error) {
	var t [3]uint32
	if len(v) > 3 {
		return t, fmt.Errorf("%w: %d coordinates", errScenario, len(v))
	}
	copy(t[:], v)
	return t, nil
}

func origin(v []uint32) (gputypes.Origin3D, error) {
	t, err := triple(v)
	return gputypes.Origin3D{X: t[0], Y: t[1], Z: t[2]}, err
}

// extent returns the given size, or def when none is given.
func extent(v []uint32, def gputypes.Extent3D) (gputypes.Extent3D, error) {
	if len(v) == 0 {
		return def, nil
	}
	t, err := triple(v)
	return gputypes.Extent3D{Width: t[0], Height: max(t[1], 1), DepthOrArrayLayers: max(t[2], 1)}, err
}
