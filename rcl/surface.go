package rcl

import (
	"fmt"

	"github.com/gogpu/tilexfer/format"
)

// Buffer selects the tile buffer a load or store addresses.
type Buffer uint8

// Tile buffers.
const (
	BufferRT0 Buffer = iota
	BufferRT1
	BufferRT2
	BufferRT3
	BufferZ
	BufferStencil
	BufferZS
	BufferNone
)

// IsColor reports whether b is one of the color render targets.
func (b Buffer) IsColor() bool { return b <= BufferRT3 }

func (b Buffer) String() string {
	switch {
	case b.IsColor():
		return fmt.Sprintf("rt%d", b)
	case b == BufferZ:
		return "z"
	case b == BufferStencil:
		return "stencil"
	case b == BufferZS:
		return "zs"
	case b == BufferNone:
		return "none"
	}
	return fmt.Sprintf("Buffer(%d)", uint8(b))
}

// SurfaceFlags modify how a tile buffer is moved to or from memory.
type SurfaceFlags uint8

// Surface flags.
const (
	// FlagClear clears the tile buffer after it is stored.
	FlagClear SurfaceFlags = 1 << iota
	// FlagChannelReverse reverses the byte order of each pixel.
	FlagChannelReverse
	// FlagRBSwap swaps the red and blue channels.
	FlagRBSwap
	// FlagDecimate resolves multisampled pixels on store.
	FlagDecimate
	// FlagMultisample marks memory that holds every sample of each pixel.
	FlagMultisample
)

// Surface is the load/store descriptor of a LOAD_TILE_BUFFER_GENERAL or
// STORE_TILE_BUFFER_GENERAL record.
type Surface struct {
	Buffer Buffer
	Handle uint32
	Offset uint32
	// Stride is the row pitch in bytes. UIF layouts address slices by
	// PaddedHeight instead; both are always encoded.
	Stride       uint32
	PaddedHeight uint32
	Format       format.Format
	Tiling       format.Tiling
	Flags        SurfaceFlags
}

// surfaceWords is the encoded size of a Surface.
const surfaceWords = 5

func (s Surface) encode(dst []uint32) []uint32 {
	packed := uint32(s.Buffer) | uint32(s.Tiling)<<4 | uint32(s.Flags)<<8 | uint32(s.Format)<<16
	return append(dst, packed, s.Handle, s.Offset, s.Stride, s.PaddedHeight)
}

func decodeSurface(w []uint32) Surface {
	return Surface{
		Buffer:       Buffer(w[0] & 0xf),
		Tiling:       format.Tiling(w[0] >> 4 & 0xf),
		Flags:        SurfaceFlags(w[0] >> 8),
		Format:       format.Format(w[0] >> 16),
		Handle:       w[1],
		Offset:       w[2],
		Stride:       w[3],
		PaddedHeight: w[4],
	}
}
