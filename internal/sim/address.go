package sim

import (
	"fmt"

	"github.com/gogpu/tilexfer/format"
)

// utileBytes is the size of one micro-tile. Every tiled layout is modeled
// as row-major micro-tiles; the layouts differ only in how the hardware
// orders them, which no transfer path observes.
const utileBytes = 64

// utileDims returns the micro-tile size in texels for a texel size.
func utileDims(cpp uint32) (w, h uint32) {
	switch cpp {
	case 1:
		return 8, 8
	case 2:
		return 8, 4
	case 4:
		return 4, 4
	case 8:
		return 4, 2
	case 16:
		return 2, 2
	}
	return 1, 1
}

// surface locates a 2D array of cpp-byte texels in one memory object.
type surface struct {
	handle uint32
	offset uint32
	stride uint32
	tiling format.Tiling
	cpp    uint32
}

// addr returns the byte offset of texel (x, y).
func (s surface) addr(x, y uint32) uint32 {
	if !s.tiling.IsTiled() {
		return s.offset + y*s.stride + x*s.cpp
	}
	uw, uh := utileDims(s.cpp)
	if uw*uh*s.cpp != utileBytes {
		// Texel sizes without a micro-tile shape fall back to raster order.
		return s.offset + y*s.stride + x*s.cpp
	}
	perRow := s.stride / (uw * s.cpp)
	ut := (y/uh)*perRow + x/uw
	return s.offset + ut*utileBytes + ((y%uh)*uw+x%uw)*s.cpp
}

// texel returns the bytes of texel (x, y) in mem.
func (s surface) texel(mem []byte, x, y uint32) ([]byte, error) {
	a := s.addr(x, y)
	if uint64(a)+uint64(s.cpp) > uint64(len(mem)) {
		return nil, fmt.Errorf("%w: texel %d,%d at %d+%d of object %d (%d bytes)",
			ErrOutOfBounds, x, y, a, s.cpp, s.handle, len(mem))
	}
	return mem[a : a+s.cpp], nil
}

// sampleCoord returns where sample i of pixel (x, y) lives in a surface
// that stores every sample.
func sampleCoord(x, y, i uint32) (uint32, uint32) {
	return 2*x + i%2, 2*y + i/2
}
