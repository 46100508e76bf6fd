package tfu

import (
	"fmt"

	"github.com/gogpu/tilexfer/format"
)

// EncoderV42 encodes jobs for 4.2 hardware.
//
//	ICFG  [3:0] input tiling, [10:4] texture type, [15:12] output tiling,
//	      [31:16] output padded height
//	IIA   input offset          IIS  input stride in bytes
//	ICA   output stride in bytes (the chroma address is unused for RGBA)
//	IOA   output offset         IOS  [31:16] height, [15:0] width
type EncoderV42 struct{}

// Version implements Encoder.
func (EncoderV42) Version() int { return 42 }

// Encode implements Encoder.
func (EncoderV42) Encode(j Job) (Regs, error) {
	if err := j.Validate(); err != nil {
		return Regs{}, err
	}
	if j.DstPaddedHeight > maxDim {
		return Regs{}, fmt.Errorf("%w: padded height %d", ErrInvalidJob, j.DstPaddedHeight)
	}
	return Regs{
		ICfg:      uint32(j.SrcTiling) | ttype(j.Format)<<4 | uint32(j.DstTiling)<<12 | j.DstPaddedHeight<<16,
		IIA:       j.SrcOffset,
		IIS:       j.SrcStride,
		ICA:       j.DstStride,
		IOA:       j.DstOffset,
		IOS:       j.Height<<16 | j.Width,
		BOHandles: [2]uint32{j.SrcHandle, j.DstHandle},
	}, nil
}

// Decode implements Encoder.
func (EncoderV42) Decode(r Regs) (Job, error) {
	f, ok := formatOf(r.ICfg >> 4 & 0x7f)
	if !ok {
		return Job{}, fmt.Errorf("%w: texture type %d", ErrInvalidJob, r.ICfg>>4&0x7f)
	}
	j := Job{
		SrcHandle:       r.BOHandles[0],
		SrcOffset:       r.IIA,
		SrcTiling:       format.Tiling(r.ICfg & 0xf),
		SrcStride:       r.IIS,
		DstHandle:       r.BOHandles[1],
		DstOffset:       r.IOA,
		DstTiling:       format.Tiling(r.ICfg >> 12 & 0xf),
		DstStride:       r.ICA,
		DstPaddedHeight: r.ICfg >> 16,
		CPP:             f.BlockBytes(),
		Width:           r.IOS & 0xffff,
		Height:          r.IOS >> 16,
		Format:          f,
	}
	return j, j.Validate()
}

// EncoderV71 encodes jobs for 7.1 hardware, which moves the output
// configuration into its own register and swaps the size fields.
//
//	ICFG  [3:0] input tiling, [15:8] texture type
//	IIA   input offset          IIS  input stride in bytes
//	IUA   output stride in bytes
//	IOA   output offset
//	IOC   [3:0] output tiling, [31:16] output padded height
//	IOS   [31:16] width, [15:0] height
type EncoderV71 struct{}

// Version implements Encoder.
func (EncoderV71) Version() int { return 71 }

// Encode implements Encoder.
func (EncoderV71) Encode(j Job) (Regs, error) {
	if err := j.Validate(); err != nil {
		return Regs{}, err
	}
	if j.DstPaddedHeight > maxDim {
		return Regs{}, fmt.Errorf("%w: padded height %d", ErrInvalidJob, j.DstPaddedHeight)
	}
	return Regs{
		ICfg:      uint32(j.SrcTiling) | ttype(j.Format)<<8,
		IIA:       j.SrcOffset,
		IIS:       j.SrcStride,
		IUA:       j.DstStride,
		IOA:       j.DstOffset,
		IOC:       uint32(j.DstTiling) | j.DstPaddedHeight<<16,
		IOS:       j.Width<<16 | j.Height,
		BOHandles: [2]uint32{j.SrcHandle, j.DstHandle},
	}, nil
}

// Decode implements Encoder.
func (EncoderV71) Decode(r Regs) (Job, error) {
	f, ok := formatOf(r.ICfg >> 8 & 0xff)
	if !ok {
		return Job{}, fmt.Errorf("%w: texture type %d", ErrInvalidJob, r.ICfg>>8&0xff)
	}
	j := Job{
		SrcHandle:       r.BOHandles[0],
		SrcOffset:       r.IIA,
		SrcTiling:       format.Tiling(r.ICfg & 0xf),
		SrcStride:       r.IIS,
		DstHandle:       r.BOHandles[1],
		DstOffset:       r.IOA,
		DstTiling:       format.Tiling(r.IOC & 0xf),
		DstStride:       r.IUA,
		DstPaddedHeight: r.IOC >> 16,
		CPP:             f.BlockBytes(),
		Width:           r.IOS >> 16,
		Height:          r.IOS & 0xffff,
		Format:          f,
	}
	return j, j.Validate()
}
