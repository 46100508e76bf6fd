package tilexfer

import (
	"fmt"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/tfu"
)

// tfuCopy describes a whole-level raw copy between two images, either of
// which may wrap a buffer.
type tfuCopy struct {
	label                string
	src, dst             *Image
	srcAspect, dstAspect format.Aspect
	level, dstLevel      uint32
	srcFirst, dstFirst   uint32
	count                uint32
}

// recordTFU records one raw-copy job per slice. The unit only writes tiled
// memory, never converts and copies whole levels, so both sides must have
// the same block size and sample count.
func (cb *CommandBuffer) recordTFU(c tfuCopy) Outcome {
	sf, df := c.src.AspectFormat(c.srcAspect), c.dst.AspectFormat(c.dstAspect)
	ss, _ := c.src.Slice(c.srcAspect, c.level)
	ds, _ := c.dst.Slice(c.dstAspect, c.dstLevel)
	switch {
	case !ds.Tiling.IsTiled():
		return unsupported()
	case sf.BlockBytes() != df.BlockBytes() || sf.IsCompressed() != df.IsCompressed():
		return unsupported()
	case c.src.Samples != c.dst.Samples:
		return unsupported()
	case ss.BlocksW < ds.BlocksW || ss.BlocksH < ds.BlocksH:
		return unsupported()
	}
	cpp := df.BlockBytes()
	tf, ok := format.ResolveTFU(cpp)
	if !ok {
		return unsupported()
	}

	jobs := make([]TFUJob, 0, c.count)
	for i := uint32(0); i < c.count; i++ {
		j := tfu.Job{
			SrcHandle:       c.src.Handle,
			SrcOffset:       c.src.SliceOffset(c.srcAspect, c.level, c.srcFirst+i),
			SrcTiling:       ss.Tiling,
			SrcStride:       ss.Stride,
			DstHandle:       c.dst.Handle,
			DstOffset:       c.dst.SliceOffset(c.dstAspect, c.dstLevel, c.dstFirst+i),
			DstTiling:       ds.Tiling,
			DstStride:       ds.Stride,
			DstPaddedHeight: ds.PaddedHeight,
			CPP:             cpp,
			Width:           ds.BlocksW,
			Height:          ds.BlocksH,
			Format:          tf,
		}
		regs, err := cb.dev.tfu.Encode(j)
		if err != nil {
			Logger().Debug("tilexfer: tfu rejects job", "label", c.label, "err", err)
			return unsupported()
		}
		jobs = append(jobs, TFUJob{
			Label:   fmt.Sprintf("%s[%d]", c.label, i),
			Version: cb.dev.tfu.Version(),
			Regs:    regs,
		})
	}
	for _, j := range jobs {
		cb.record(j)
	}
	return done(PathTFU, len(jobs))
}
