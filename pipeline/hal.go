package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilexfer/format"
)

// halFormats maps formats to their WebGPU equivalents. Formats missing here
// render through a same-size unsigned integer view.
var halFormats = map[format.Format]gputypes.TextureFormat{
	format.R8Unorm:        gputypes.TextureFormatR8Unorm,
	format.R8Uint:         gputypes.TextureFormatR8Uint,
	format.RGBA8Unorm:     gputypes.TextureFormatRGBA8Unorm,
	format.RGBA8Srgb:      gputypes.TextureFormatRGBA8UnormSrgb,
	format.RGBA8Uint:      gputypes.TextureFormatRGBA8Uint,
	format.BGRA8Unorm:     gputypes.TextureFormatBGRA8Unorm,
	format.R16Uint:        gputypes.TextureFormatR16Uint,
	format.R16Sfloat:      gputypes.TextureFormatR16Float,
	format.RGBA16Uint:     gputypes.TextureFormatRGBA16Uint,
	format.RGBA16Sfloat:   gputypes.TextureFormatRGBA16Float,
	format.R32Uint:        gputypes.TextureFormatR32Uint,
	format.R32Sfloat:      gputypes.TextureFormatR32Float,
	format.RG32Uint:       gputypes.TextureFormatRG32Uint,
	format.RGBA32Uint:     gputypes.TextureFormatRGBA32Uint,
	format.RGBA32Sfloat:   gputypes.TextureFormatRGBA32Float,
	format.D16Unorm:       gputypes.TextureFormatDepth16Unorm,
	format.X8D24Unorm:     gputypes.TextureFormatDepth24PlusStencil8,
	format.D24UnormS8Uint: gputypes.TextureFormatDepth24PlusStencil8,
	format.D32Sfloat:      gputypes.TextureFormatDepth32Float,
}

// uintBySize holds the unsigned view of each texel size.
var uintBySize = map[uint32]format.Format{
	1:  format.R8Uint,
	2:  format.R16Uint,
	4:  format.R32Uint,
	8:  format.RG32Uint,
	16: format.RGBA32Uint,
}

// TextureFormat returns the HAL format a pipeline targets for f.
func TextureFormat(f format.Format) (gputypes.TextureFormat, error) {
	if tf, ok := halFormats[f]; ok {
		return tf, nil
	}
	if u, ok := uintBySize[f.BlockBytes()]; ok && !f.IsCompressed() && !f.IsPlanar() {
		return halFormats[u], nil
	}
	return gputypes.TextureFormatUndefined, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
}

func sampleType(f format.Format) gputypes.TextureSampleType {
	switch scalarType(f) {
	case "u32":
		return gputypes.TextureSampleTypeUint
	case "i32":
		return gputypes.TextureSampleTypeSint
	}
	return gputypes.TextureSampleTypeFloat
}

func viewDimension(dim gputypes.TextureDimension) gputypes.TextureViewDimension {
	switch dimIndex(dim) {
	case 0:
		return gputypes.TextureViewDimension1D
	case 2:
		return gputypes.TextureViewDimension3D
	}
	return gputypes.TextureViewDimension2D
}

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// HALBuilder builds entries on a wgpu HAL device.
type HALBuilder struct {
	device hal.Device
	spirv  bool
}

// HALOption configures a HALBuilder.
type HALOption func(*HALBuilder)

// WithSPIRV makes the builder compile WGSL to SPIR-V with naga before
// creating shader modules, for backends that do not accept WGSL.
func WithSPIRV(enabled bool) HALOption {
	return func(b *HALBuilder) { b.spirv = enabled }
}

// NewHALBuilder creates a builder on device.
func NewHALBuilder(device hal.Device, opts ...HALOption) *HALBuilder {
	b := &HALBuilder{device: device}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *HALBuilder) shaderModule(label, src string) (hal.ShaderModule, error) {
	desc := &hal.ShaderModuleDescriptor{Label: label, Source: hal.ShaderSource{WGSL: src}}
	if b.spirv {
		code, err := CompileSPIRV(src)
		if err != nil {
			return nil, err
		}
		desc.Source = hal.ShaderSource{SPIRV: code}
	}
	return b.device.CreateShaderModule(desc)
}

// pipelineSpec is the variable part of every transfer pipeline.
type pipelineSpec struct {
	kind    Kind
	key     any
	label   string
	dim     gputypes.TextureDimension
	source  string
	target  format.Format
	samples uint32
	mask    gputypes.ColorWriteMask
	entries []gputypes.BindGroupLayoutEntry
	sampler bool
	stencil bool // write stencil with the reference value
}

// build creates the shader, layouts, optional sampler and pipeline of ps.
// On failure everything created so far is destroyed.
func (b *HALBuilder) build(ps pipelineSpec) (_ *Entry, err error) { //nolint:funlen // GPU pipeline descriptors are inherently verbose
	targetFormat, err := TextureFormat(ps.target)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		Kind:    ps.kind,
		Key:     ps.key,
		Label:   ps.label,
		Dim:     ps.dim,
		Target:  ps.target,
		Samples: ps.samples,
		Mask:    ps.mask,
		Source:  ps.source,
	}
	defer func() {
		if err != nil {
			b.Destroy(e)
		}
	}()

	if e.shader, err = b.shaderModule(ps.label+"_shader", ps.source); err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", ps.label, err)
	}
	if e.bindLayout, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   ps.label + "_layout",
		Entries: ps.entries,
	}); err != nil {
		return nil, fmt.Errorf("create %s bind group layout: %w", ps.label, err)
	}
	if e.pipeLayout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            ps.label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{e.bindLayout},
	}); err != nil {
		return nil, fmt.Errorf("create %s pipeline layout: %w", ps.label, err)
	}
	if ps.sampler {
		if e.sampler, err = b.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        ps.label + "_sampler",
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    gputypes.FilterModeLinear,
			MinFilter:    gputypes.FilterModeLinear,
			MipmapFilter: gputypes.FilterModeLinear,
		}); err != nil {
			return nil, fmt.Errorf("create %s sampler: %w", ps.label, err)
		}
	}

	desc := &hal.RenderPipelineDescriptor{
		Label:  ps.label + "_pipeline",
		Layout: e.pipeLayout,
		Vertex: hal.VertexState{
			Module:     e.shader,
			EntryPoint: "vs_main",
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: max(ps.samples, 1),
			Mask:  0xFFFFFFFF,
		},
	}
	if ps.target.IsDepthStencil() {
		stencilOp := hal.StencilOperationKeep
		var writeMask uint32
		if ps.stencil {
			stencilOp = hal.StencilOperationReplace
			writeMask = 0xFF
		}
		face := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      stencilOp,
		}
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            targetFormat,
			DepthWriteEnabled: ps.mask != 0,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      face,
			StencilBack:       face,
			StencilReadMask:   0xFF,
			StencilWriteMask:  writeMask,
		}
		desc.Fragment = &hal.FragmentState{Module: e.shader, EntryPoint: "fs_main"}
	} else {
		desc.Fragment = &hal.FragmentState{
			Module:     e.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: targetFormat, WriteMask: ps.mask},
			},
		}
	}
	if e.Pipeline, err = b.device.CreateRenderPipeline(desc); err != nil {
		return nil, fmt.Errorf("create %s pipeline: %w", ps.label, err)
	}

	e.LoadPass, e.NoLoadPass = passes(ps.label, ps.target, ps.samples)
	slogger().Debug("pipeline built", "kind", ps.kind, "label", ps.label, "target", ps.target)
	return e, nil
}

// uniformEntry is the parameter block every transfer shader binds at 0.
func uniformEntry() gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

// BuildClearColor implements Builder.
func (b *HALBuilder) BuildClearColor(k ClearColorKey) (*Entry, error) {
	src, err := ClearColorSource(k)
	if err != nil {
		return nil, err
	}
	return b.build(pipelineSpec{
		kind:    KindClearColor,
		key:     k,
		label:   "clear_color",
		dim:     gputypes.TextureDimension2D,
		source:  src,
		target:  k.Format,
		samples: k.Samples,
		mask:    k.Mask,
		entries: []gputypes.BindGroupLayoutEntry{uniformEntry()},
	})
}

// BuildClearDepth implements Builder.
func (b *HALBuilder) BuildClearDepth(k ClearDepthKey) (*Entry, error) {
	src, err := ClearDepthSource(k)
	if err != nil {
		return nil, err
	}
	var mask gputypes.ColorWriteMask
	if k.Aspects&format.AspectDepth != 0 {
		mask = format.WriteR
	}
	return b.build(pipelineSpec{
		kind:    KindClearDepth,
		key:     k,
		label:   "clear_depth",
		dim:     gputypes.TextureDimension2D,
		source:  src,
		target:  k.Format,
		samples: k.Samples,
		mask:    mask,
		entries: []gputypes.BindGroupLayoutEntry{uniformEntry()},
		stencil: k.Aspects&format.AspectStencil != 0,
	})
}

// BuildBlit implements Builder.
func (b *HALBuilder) BuildBlit(dim gputypes.TextureDimension, k BlitKey, pass *RenderPass) (*Entry, error) {
	src, err := BlitSource(dim, k)
	if err != nil {
		return nil, err
	}
	srcFormat := k.SrcFormat
	if srcFormat == format.Undefined {
		srcFormat = k.DstFormat
	}
	filtered := sampleType(srcFormat) == gputypes.TextureSampleTypeFloat && k.SrcSamples <= 1
	entries := []gputypes.BindGroupLayoutEntry{
		uniformEntry(),
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    sampleType(srcFormat),
				ViewDimension: viewDimension(dim),
			},
		},
	}
	if filtered {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    2,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		})
	}
	e, err := b.build(pipelineSpec{
		kind:    KindBlit,
		key:     k,
		label:   "blit_" + dimName(dim),
		dim:     dim,
		source:  src,
		target:  k.DstFormat,
		samples: k.DstSamples,
		mask:    k.Mask,
		entries: entries,
		sampler: filtered,
	})
	if err != nil {
		return nil, err
	}
	if pass != nil {
		e.LoadPass, e.NoLoadPass = *pass, *pass
	}
	return e, nil
}

// BuildTexelCopy implements Builder.
func (b *HALBuilder) BuildTexelCopy(dim gputypes.TextureDimension, k TexelCopyKey) (*Entry, error) {
	src, err := TexelCopySource(k)
	if err != nil {
		return nil, err
	}
	return b.build(pipelineSpec{
		kind:    KindTexelCopy,
		key:     k,
		label:   "texel_copy_" + dimName(dim),
		dim:     dim,
		source:  src,
		target:  k.Format,
		samples: 1,
		mask:    k.Mask,
		entries: []gputypes.BindGroupLayoutEntry{
			uniformEntry(),
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
}

// Destroy releases the GPU objects of e in reverse creation order. Safe to
// call on partially built entries.
func (b *HALBuilder) Destroy(e *Entry) {
	if e == nil {
		return
	}
	if e.Pipeline != nil {
		b.device.DestroyRenderPipeline(e.Pipeline)
		e.Pipeline = nil
	}
	if e.sampler != nil {
		b.device.DestroySampler(e.sampler)
		e.sampler = nil
	}
	if e.pipeLayout != nil {
		b.device.DestroyPipelineLayout(e.pipeLayout)
		e.pipeLayout = nil
	}
	if e.bindLayout != nil {
		b.device.DestroyBindGroupLayout(e.bindLayout)
		e.bindLayout = nil
	}
	if e.shader != nil {
		b.device.DestroyShaderModule(e.shader)
		e.shader = nil
	}
}
