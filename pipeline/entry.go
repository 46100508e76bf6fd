package pipeline

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilexfer/format"
)

// RenderPass is a render-pass template: everything needed to begin a pass
// on a view of the target format.
type RenderPass struct {
	Label   string
	Format  format.Format
	Samples uint32
	Load    gputypes.LoadOp
	Store   gputypes.StoreOp
}

// Descriptor returns a descriptor beginning the pass on view. Depth/stencil
// formats bind view as the depth/stencil attachment.
func (p RenderPass) Descriptor(view hal.TextureView) *hal.RenderPassDescriptor {
	if p.Format.IsDepthStencil() {
		return &hal.RenderPassDescriptor{
			Label: p.Label,
			DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
				View:              view,
				DepthLoadOp:       p.Load,
				DepthStoreOp:      p.Store,
				DepthClearValue:   1.0,
				StencilLoadOp:     p.Load,
				StencilStoreOp:    p.Store,
				StencilClearValue: 0,
			},
		}
	}
	return &hal.RenderPassDescriptor{
		Label: p.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     p.Load,
				StoreOp:    p.Store,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	}
}

// passes returns the load and no-load templates for a target.
func passes(label string, f format.Format, samples uint32) (load, noLoad RenderPass) {
	load = RenderPass{Label: label + "_load", Format: f, Samples: samples, Load: gputypes.LoadOpLoad, Store: gputypes.StoreOpStore}
	noLoad = RenderPass{Label: label + "_noload", Format: f, Samples: samples, Load: gputypes.LoadOpClear, Store: gputypes.StoreOpStore}
	return load, noLoad
}

// Entry is a built pipeline with its render-pass templates. Entries are
// read-only once built and may be shared by every command buffer of the
// device, except one-shot entries, which belong to a single command buffer.
type Entry struct {
	Kind    Kind
	Key     any
	Label   string
	Dim     gputypes.TextureDimension
	Target  format.Format
	Samples uint32
	Mask    gputypes.ColorWriteMask

	// LoadPass preserves the attachment contents; NoLoadPass starts the
	// pass without reading them.
	LoadPass   RenderPass
	NoLoadPass RenderPass

	// Source is the WGSL source the pipeline was built from.
	Source string

	// OneShot marks an uncached entry owned by one command buffer.
	OneShot bool

	// Pipeline is nil for host-built entries.
	Pipeline hal.RenderPipeline

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
}
