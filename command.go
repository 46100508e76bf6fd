package tilexfer

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/pipeline"
	"github.com/gogpu/tilexfer/rcl"
	"github.com/gogpu/tilexfer/tfu"
)

// Command is one unit of recorded work.
type Command interface {
	// Path returns the transfer path that recorded the command.
	Path() Path
	fmt.Stringer
}

// CLJob is a tile-buffer job: a render command list and its indirect
// generic tile lists.
type CLJob struct {
	Label string
	Job   *rcl.Job
}

// Path implements Command.
func (CLJob) Path() Path { return PathTLB }

func (c CLJob) String() string {
	t := c.Job.Tiling
	return fmt.Sprintf("tlb %s %dx%dx%d tiles %dx%d", c.Label, t.Width, t.Height, t.Layers, t.TileWidth, t.TileHeight)
}

// TFUJob is one raw-copy unit submission.
type TFUJob struct {
	Label   string
	Version int
	Regs    tfu.Regs
}

// Path implements Command.
func (TFUJob) Path() Path { return PathTFU }

func (c TFUJob) String() string {
	return fmt.Sprintf("tfu %s v%d bo %d -> %d", c.Label, c.Version, c.Regs.BOHandles[0], c.Regs.BOHandles[1])
}

// DrawOp is what a Draw renders.
type DrawOp uint8

// Draw operations.
const (
	DrawClear DrawOp = iota
	DrawBlit
	DrawTexelCopy
)

func (op DrawOp) String() string {
	switch op {
	case DrawClear:
		return "clear"
	case DrawBlit:
		return "blit"
	case DrawTexelCopy:
		return "texel-copy"
	}
	return fmt.Sprintf("DrawOp(%d)", uint8(op))
}

// TexelView is a 2D slice of memory seen through a format: a render target
// or a sampled texture for images, a texel buffer for buffers.
type TexelView struct {
	Handle uint32
	// Offset is the first byte of the slice.
	Offset uint32
	Stride uint32
	Format format.Format
	// Width and Height are in view texels.
	Width, Height uint32
	Samples       uint32
	Tiling        format.Tiling
}

// Draw is one quad drawn by a shader path into one destination slice.
type Draw struct {
	Op    DrawOp
	Entry *pipeline.Entry
	Pass  pipeline.RenderPass
	Dst   TexelView
	// Rect is the destination rectangle in Dst texels.
	Rect rcl.Rect
	Mask gputypes.ColorWriteMask

	// Color is the packed clear texel of Dst.Format. Depth and Stencil
	// are written for the depth/stencil Aspects of a clear.
	Color   []byte
	Aspects format.Aspect
	Depth   uint32
	Stencil uint8

	// Src is sampled over SrcBox, a box in Src texels. Texel copies read
	// Src row by row from the box origin.
	Src     TexelView
	SrcBox  Box
	Filter  gputypes.FilterMode
	Swizzle format.Swizzle
	// Resolve averages the samples of a multisampled source.
	Resolve bool
}

// Path implements Command.
func (d *Draw) Path() Path {
	switch d.Op {
	case DrawBlit:
		return PathBlit
	case DrawTexelCopy:
		return PathTexelCopy
	}
	return PathShaderClear
}

func (d *Draw) String() string {
	return fmt.Sprintf("draw %s %v %dx%d at %d,%d", d.Op, d.Dst.Format, d.Rect.Width, d.Rect.Height, d.Rect.X, d.Rect.Y)
}

// imageView returns the view of one slice of an image aspect through f.
// Multisampled slices are seen as their full sample grid when grid is set.
func imageView(im *Image, aspect format.Aspect, level, layer uint32, f format.Format, grid bool) TexelView {
	s, _ := im.Slice(aspect, level)
	v := TexelView{
		Handle:  im.Handle,
		Offset:  im.SliceOffset(aspect, level, layer),
		Stride:  s.Stride,
		Format:  f,
		Width:   s.BlocksW,
		Height:  s.BlocksH,
		Samples: im.Samples,
		Tiling:  s.Tiling,
	}
	if im.Samples > 1 && !grid {
		v.Width, v.Height = s.BlocksW/msaaScale, s.BlocksH/msaaScale
	}
	if grid {
		v.Samples = 1
	}
	return v
}
