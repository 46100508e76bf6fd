// Package tfu describes jobs for the texture formatting unit, the
// fixed-function block that copies raw texel data between linear and tiled
// layouts without converting it.
//
// A Job is hardware independent. An Encoder turns it into the register
// values one hardware generation expects; the generations differ only in
// field layout.
package tfu

import (
	"errors"
	"fmt"

	"github.com/gogpu/tilexfer/format"
)

// Errors returned by encoders.
var (
	// ErrInvalidJob is returned for jobs the unit cannot execute.
	ErrInvalidJob = errors.New("tfu: invalid job")

	// ErrUnknownVersion is returned by NewEncoder for unsupported hardware.
	ErrUnknownVersion = errors.New("tfu: unknown hardware version")
)

// maxDim is the largest width or height one job can copy.
const maxDim = 0xffff

// Job copies Width x Height texel blocks of CPP bytes from a source surface
// into a tiled destination surface.
type Job struct {
	SrcHandle uint32
	SrcOffset uint32
	SrcTiling format.Tiling
	SrcStride uint32 // bytes per row

	DstHandle       uint32
	DstOffset       uint32
	DstTiling       format.Tiling
	DstStride       uint32 // bytes per row
	DstPaddedHeight uint32 // rows, for UIF destinations

	CPP    uint32
	Width  uint32
	Height uint32
	Format format.Format
}

// Validate checks the job against the unit's constraints.
func (j Job) Validate() error {
	switch {
	case j.SrcHandle == 0 || j.DstHandle == 0:
		return fmt.Errorf("%w: missing memory object", ErrInvalidJob)
	case !j.DstTiling.IsTiled():
		return fmt.Errorf("%w: raster destination", ErrInvalidJob)
	case j.Width == 0 || j.Height == 0 || j.Width > maxDim || j.Height > maxDim:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidJob, j.Width, j.Height)
	case j.DstOffset%16 != 0:
		return fmt.Errorf("%w: unaligned destination offset %d", ErrInvalidJob, j.DstOffset)
	}
	want, ok := format.ResolveTFU(j.CPP)
	if !ok {
		return fmt.Errorf("%w: %d bytes per texel", ErrInvalidJob, j.CPP)
	}
	if j.Format != want {
		return fmt.Errorf("%w: format %v for %d bytes per texel, want %v", ErrInvalidJob, j.Format, j.CPP, want)
	}
	return nil
}

// Regs are the register values of one submission. BOHandles lists the
// memory objects the addresses are relative to: source first, then
// destination.
type Regs struct {
	ICfg uint32
	IIA  uint32
	IIS  uint32
	ICA  uint32
	IUA  uint32
	IOA  uint32
	IOS  uint32
	IOC  uint32
	Coef [4]uint32

	BOHandles [2]uint32
}

// Encoder produces the registers for one hardware generation.
type Encoder interface {
	// Version returns the hardware version, e.g. 42 for 4.2.
	Version() int
	Encode(j Job) (Regs, error)
	Decode(r Regs) (Job, error)
}

// NewEncoder returns the encoder for a hardware version.
func NewEncoder(version int) (Encoder, error) {
	switch version {
	case 42:
		return EncoderV42{}, nil
	case 71:
		return EncoderV71{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
}

// Texture type codes of the formats the unit copies.
var ttypes = map[format.Format]uint32{
	format.R8Unorm:      0,
	format.R16Sfloat:    16,
	format.R32Sfloat:    24,
	format.RGBA16Sfloat: 30,
	format.RGBA32Sfloat: 34,
}

func ttype(f format.Format) uint32 { return ttypes[f] }

func formatOf(code uint32) (format.Format, bool) {
	for f, c := range ttypes {
		if c == code {
			return f, true
		}
	}
	return format.Undefined, false
}
