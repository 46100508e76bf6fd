package main

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer"
	"github.com/gogpu/tilexfer/format"
)

// plan holds the device objects of a scenario and the command buffer its
// operations record into.
type plan struct {
	dev     *tilexfer.Device
	cb      *tilexfer.CommandBuffer
	images  map[string]*tilexfer.Image
	buffers map[string]*tilexfer.Buffer
}

// step is the result of recording one operation.
type step struct {
	op   string
	out  tilexfer.Outcome
	cmds []tilexfer.Command
}

func newPlan(s *scenario, backed bool) (*plan, error) {
	dev, err := tilexfer.NewDevice(append(s.options(), tilexfer.WithBackedMemory(backed))...)
	if err != nil {
		return nil, err
	}
	p := &plan{
		dev:     dev,
		cb:      dev.NewCommandBuffer("xferplan"),
		images:  make(map[string]*tilexfer.Image),
		buffers: make(map[string]*tilexfer.Buffer),
	}
	for _, is := range s.Images {
		if err := p.addImage(is); err != nil {
			p.close()
			return nil, err
		}
	}
	for _, bs := range s.Buffers {
		if err := p.addBuffer(bs); err != nil {
			p.close()
			return nil, err
		}
	}
	return p, nil
}

func (p *plan) addImage(is imageSpec) error {
	if _, dup := p.images[is.Name]; dup || is.Name == "" {
		return fmt.Errorf("%w: image name %q", errScenario, is.Name)
	}
	d, err := is.desc()
	if err != nil {
		return err
	}
	im, err := p.dev.CreateImage(d)
	if err != nil {
		return fmt.Errorf("image %q: %w", is.Name, err)
	}
	p.images[is.Name] = im
	return nil
}

func (p *plan) addBuffer(bs bufferSpec) error {
	if _, dup := p.buffers[bs.Name]; dup || bs.Name == "" {
		return fmt.Errorf("%w: buffer name %q", errScenario, bs.Name)
	}
	b, err := p.dev.CreateBuffer(bs.Size, bs.Name)
	if err != nil {
		return fmt.Errorf("buffer %q: %w", bs.Name, err)
	}
	p.buffers[bs.Name] = b
	return nil
}

func (p *plan) close() {
	if err := p.cb.Reset(); err != nil {
		tilexfer.Logger().Warn("xferplan: reset command buffer", "err", err)
	}
	p.dev.Destroy()
}

func (p *plan) image(name string) (*tilexfer.Image, error) {
	im, ok := p.images[name]
	if !ok {
		return nil, fmt.Errorf("%w: no image %q", errScenario, name)
	}
	return im, nil
}

func (p *plan) buffer(name string) (*tilexfer.Buffer, error) {
	b, ok := p.buffers[name]
	if !ok {
		return nil, fmt.Errorf("%w: no buffer %q", errScenario, name)
	}
	return b, nil
}

// levelExtent is the size of one level of an image aspect.
func levelExtent(im *tilexfer.Image, aspect format.Aspect, level uint32) gputypes.Extent3D {
	s, _ := im.Slice(aspect, level)
	return gputypes.Extent3D{Width: s.Width, Height: s.Height, DepthOrArrayLayers: 1}
}

func fullBox(im *tilexfer.Image, aspect format.Aspect, level uint32) tilexfer.Box {
	s, _ := im.Slice(aspect, level)
	return tilexfer.Box{X1: int32(s.Width), Y1: int32(s.Height), Z1: 1}
}

// record records one operation. Requests no path accepts are reported in
// the outcome; malformed operations return an error.
func (p *plan) record(op opSpec) (step, error) {
	before := len(p.cb.Commands())
	out, err := p.dispatch(op)
	if err != nil {
		return step{}, fmt.Errorf("op %q: %w", op.Op, err)
	}
	return step{op: op.Op, out: out, cmds: p.cb.Commands()[before:]}, nil
}

func (p *plan) dispatch(op opSpec) (tilexfer.Outcome, error) {
	aspect, err := parseAspect(op.Aspect)
	if err != nil {
		return tilexfer.Outcome{}, err
	}
	sub := tilexfer.Subresource{Aspect: aspect, Level: op.Level, BaseLayer: op.Layer, Layers: op.Layers}
	dstSub := sub
	dstSub.Level = op.DstLevel
	srcOff, err := origin(op.SrcOffset)
	if err != nil {
		return tilexfer.Outcome{}, err
	}
	dstOff, err := origin(op.DstOffset)
	if err != nil {
		return tilexfer.Outcome{}, err
	}

	switch op.Op {
	case "copy":
		src, dst, err := p.imagePair(op)
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		ext, err := extent(op.Extent, levelExtent(src, aspect, op.Level))
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		return p.cb.TryCopyImage(tilexfer.ImageCopy{
			Src: src, Dst: dst, SrcSub: sub, DstSub: dstSub,
			SrcOffset: srcOff, DstOffset: dstOff, Extent: ext,
		}), nil

	case "upload", "readback":
		bufName, imName, off := op.Src, op.Dst, dstOff
		if op.Op == "readback" {
			bufName, imName, off = op.Dst, op.Src, srcOff
		}
		buf, err := p.buffer(bufName)
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		im, err := p.image(imName)
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		ext, err := extent(op.Extent, levelExtent(im, aspect, op.Level))
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		r := tilexfer.BufferImageCopy{
			Buffer: buf, BufferOffset: op.BufferOffset, RowLength: op.RowLength, ImageHeight: op.ImageHeight,
			Image: im, Sub: sub, Offset: off, Extent: ext,
		}
		if op.Op == "readback" {
			return p.cb.TryCopyImageToBuffer(r), nil
		}
		return p.cb.TryCopyBufferToImage(r), nil

	case "clear":
		return p.clear(op)

	case "blit":
		src, dst, err := p.imagePair(op)
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		r := tilexfer.Blit{
			Src: src, Dst: dst, SrcSub: sub, DstSub: dstSub,
			SrcBox: fullBox(src, aspect, op.Level),
			DstBox: fullBox(dst, aspect, op.DstLevel),
		}
		if op.SrcBox != nil {
			if r.SrcBox, err = parseBox(op.SrcBox); err != nil {
				return tilexfer.Outcome{}, err
			}
		}
		if op.DstBox != nil {
			if r.DstBox, err = parseBox(op.DstBox); err != nil {
				return tilexfer.Outcome{}, err
			}
		}
		if r.Filter, err = parseFilter(op.Filter); err != nil {
			return tilexfer.Outcome{}, err
		}
		return p.cb.TryBlit(r), nil

	case "resolve":
		src, dst, err := p.imagePair(op)
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		ext, err := extent(op.Extent, levelExtent(dst, aspect, op.DstLevel))
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		return p.cb.TryResolve(tilexfer.Resolve{
			Src: src, Dst: dst, SrcSub: sub, DstSub: dstSub,
			SrcOffset: srcOff, DstOffset: dstOff, Extent: ext,
		}), nil

	case "copy_buffer":
		src, err := p.buffer(op.Src)
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		dst, err := p.buffer(op.Dst)
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		return p.cb.TryCopyBuffer(tilexfer.BufferCopy{
			Src: src, Dst: dst, SrcOffset: srcOff.X, DstOffset: dstOff.X, Size: op.Size,
		}), nil

	case "fill":
		dst, err := p.buffer(op.Dst)
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		return p.cb.TryFillBuffer(tilexfer.BufferFill{Dst: dst, Offset: op.BufferOffset, Size: op.Size, Data: op.Data}), nil
	}
	return tilexfer.Outcome{}, fmt.Errorf("%w: unknown op %q", errScenario, op.Op)
}

func (p *plan) imagePair(op opSpec) (src, dst *tilexfer.Image, err error) {
	if src, err = p.image(op.Src); err != nil {
		return nil, nil, err
	}
	if dst, err = p.image(op.Dst); err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// clear clears color images to Color or UintColor and depth/stencil images
// to Depth and Stencil. Without a level or layer selection every
// subresource is cleared.
func (p *plan) clear(op opSpec) (tilexfer.Outcome, error) {
	im, err := p.image(op.Dst)
	if err != nil {
		return tilexfer.Outcome{}, err
	}
	rect, err := parseRect(op.Rect)
	if err != nil {
		return tilexfer.Outcome{}, err
	}
	var ranges []tilexfer.Range
	if op.Level != 0 || op.Layer != 0 || op.Layers != 0 {
		ranges = []tilexfer.Range{{BaseLevel: op.Level, Levels: 1, BaseLayer: op.Layer, Layers: op.Layers}}
	}

	if !im.Format.IsDepthStencil() {
		c, err := parseColor(op)
		if err != nil {
			return tilexfer.Outcome{}, err
		}
		return p.cb.TryClearColor(tilexfer.ColorClear{
			Image: im, Color: c, Ranges: ranges, Rect: rect, InRenderPass: op.InRenderPass,
		}), nil
	}
	aspects := im.Format.Info().Aspects & format.AspectDepthStencil
	if op.Aspect != "" {
		if aspects, err = parseAspect(op.Aspect); err != nil {
			return tilexfer.Outcome{}, err
		}
	}
	return p.cb.TryClearDepthStencil(tilexfer.DepthStencilClear{
		Image: im, Aspects: aspects, Depth: op.Depth, Stencil: op.Stencil,
		Ranges: ranges, Rect: rect, InRenderPass: op.InRenderPass,
	}), nil
}
