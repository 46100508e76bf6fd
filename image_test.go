package tilexfer

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
)

func TestNewImageTiledMipChain(t *testing.T) {
	im, err := NewImage(ImageDesc{Label: "mips", Format: format.RGBA8Unorm, Size: extent(64, 64, 2), Levels: 3})
	if err != nil {
		t.Fatalf("NewImage() = %v", err)
	}
	tests := []struct {
		level  uint32
		offset uint32
		stride uint32
		padded uint32
		tiling format.Tiling
	}{
		{0, 0, 256, 64, format.TilingUIFNoXOR},
		{1, 16384, 128, 32, format.TilingUBLinear2},
		{2, 20480, 64, 16, format.TilingUBLinear1},
	}
	for _, tt := range tests {
		s, ok := im.Slice(format.AspectColor, tt.level)
		if !ok {
			t.Fatalf("Slice(level %d) missing", tt.level)
		}
		if s.Offset != tt.offset || s.Stride != tt.stride || s.PaddedHeight != tt.padded || s.Tiling != tt.tiling {
			t.Errorf("level %d = offset %d stride %d padded %d %v, want %d %d %d %v",
				tt.level, s.Offset, s.Stride, s.PaddedHeight, s.Tiling, tt.offset, tt.stride, tt.padded, tt.tiling)
		}
	}
	if got := im.LayerStride(); got != 24576 {
		t.Errorf("LayerStride() = %d, want 24576", got)
	}
	if got := im.Bytes(); got != 2*24576 {
		t.Errorf("Bytes() = %d, want %d", got, 2*24576)
	}
	if got := im.SliceOffset(format.AspectColor, 1, 1); got != 24576+16384 {
		t.Errorf("SliceOffset(1, 1) = %d, want %d", got, 24576+16384)
	}
}

func TestNewImageLinear(t *testing.T) {
	im, err := NewImage(ImageDesc{Format: format.RGBA8Unorm, Size: extent(10, 3, 1), Linear: true})
	if err != nil {
		t.Fatalf("NewImage() = %v", err)
	}
	s, _ := im.Slice(format.AspectColor, 0)
	if s.Tiling != format.TilingRaster || s.Stride != 64 || s.PaddedHeight != 3 {
		t.Errorf("slice = %v stride %d padded %d, want raster 64 3", s.Tiling, s.Stride, s.PaddedHeight)
	}
	if im.LayerStride() != 256 {
		t.Errorf("LayerStride() = %d, want 256", im.LayerStride())
	}
}

func TestNewImageMultisampledStoresEverySample(t *testing.T) {
	im, err := NewImage(ImageDesc{Format: format.RGBA8Unorm, Size: extent(16, 16, 1), Samples: 4})
	if err != nil {
		t.Fatalf("NewImage() = %v", err)
	}
	s, _ := im.Slice(format.AspectColor, 0)
	if s.Width != 16 || s.BlocksW != 32 || s.BlocksH != 32 || s.Stride != 128 {
		t.Errorf("slice = %dx blocks %dx%d stride %d, want 16 blocks 32x32 stride 128",
			s.Width, s.BlocksW, s.BlocksH, s.Stride)
	}
	v := imageView(im, format.AspectColor, 0, 0, im.Format, false)
	if v.Width != 16 || v.Samples != 4 {
		t.Errorf("pixel view = %dx%d samples %d, want 16 wide with 4 samples", v.Width, v.Height, v.Samples)
	}
	g := imageView(im, format.AspectColor, 0, 0, im.Format, true)
	if g.Width != 32 || g.Samples != 1 {
		t.Errorf("grid view = %dx%d samples %d, want 32 wide with 1 sample", g.Width, g.Height, g.Samples)
	}
}

func TestNewImage3DDepthSlices(t *testing.T) {
	im, err := NewImage(ImageDesc{Format: format.RGBA8Unorm, Dim: gputypes.TextureDimension3D, Size: extent(8, 8, 4)})
	if err != nil {
		t.Fatalf("NewImage() = %v", err)
	}
	if im.Layers() != 1 {
		t.Errorf("Layers() = %d, want 1", im.Layers())
	}
	s, _ := im.Slice(format.AspectColor, 0)
	if s.Depth != 4 || s.Tiling != format.TilingLinearTile {
		t.Errorf("slice depth %d %v, want 4 lt", s.Depth, s.Tiling)
	}
	if got := im.SliceOffset(format.AspectColor, 0, 2); got != 2*s.DepthPitch() {
		t.Errorf("SliceOffset(z=2) = %d, want %d", got, 2*s.DepthPitch())
	}
	first, count := im.sliceRange(Subresource{Aspect: format.AspectColor}, 1, 2)
	if first != 1 || count != 2 {
		t.Errorf("sliceRange = %d+%d, want 1+2", first, count)
	}
}

func TestNewImageCompressedBlocks(t *testing.T) {
	im, err := NewImage(ImageDesc{Format: format.ETC2RGB8Unorm, Size: extent(30, 30, 1)})
	if err != nil {
		t.Fatalf("NewImage() = %v", err)
	}
	s, _ := im.Slice(format.AspectColor, 0)
	if s.BlocksW != 8 || s.BlocksH != 8 {
		t.Errorf("blocks = %dx%d, want 8x8", s.BlocksW, s.BlocksH)
	}
}

func TestNewImageInvalid(t *testing.T) {
	tests := []struct {
		name string
		desc ImageDesc
	}{
		{"undefined format", ImageDesc{Size: extent(4, 4, 1)}},
		{"empty", ImageDesc{Format: format.RGBA8Unorm}},
		{"tall 1D", ImageDesc{Format: format.RGBA8Unorm, Dim: gputypes.TextureDimension1D, Size: extent(4, 2, 1)}},
		{"too many levels", ImageDesc{Format: format.RGBA8Unorm, Size: extent(16, 16, 1), Levels: 6}},
		{"two samples", ImageDesc{Format: format.RGBA8Unorm, Size: extent(16, 16, 1), Samples: 2}},
		{"multisampled 3D", ImageDesc{Format: format.RGBA8Unorm, Dim: gputypes.TextureDimension3D, Size: extent(4, 4, 4), Samples: 4}},
		{"multisampled linear", ImageDesc{Format: format.RGBA8Unorm, Size: extent(4, 4, 1), Samples: 4, Linear: true}},
		{"multisampled mips", ImageDesc{Format: format.RGBA8Unorm, Size: extent(4, 4, 1), Samples: 4, Levels: 2}},
		{"multisampled compressed", ImageDesc{Format: format.ETC2RGB8Unorm, Size: extent(4, 4, 1), Samples: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewImage(tt.desc); !errors.Is(err, ErrInvalidImage) {
				t.Errorf("NewImage() error = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestBufferImageWrapsExactStride(t *testing.T) {
	buf := &Buffer{Label: "staging", Handle: 7, Offset: 64, Size: 4096}
	im := bufferImage(buf, 128, format.RGBA8Unorm, 20, 10, 16, 8, 2)
	s, _ := im.Slice(format.AspectColor, 0)
	if s.Stride != 80 || s.PaddedHeight != 10 || s.Tiling != format.TilingRaster {
		t.Errorf("slice stride %d padded %d %v, want 80 10 raster", s.Stride, s.PaddedHeight, s.Tiling)
	}
	if got := im.SliceOffset(format.AspectColor, 0, 1); got != 64+128+800 {
		t.Errorf("SliceOffset(layer 1) = %d, want %d", got, 64+128+800)
	}
}
