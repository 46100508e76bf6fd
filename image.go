package tilexfer

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
)

// Layout alignments.
const (
	tiledAlign     = 4096 // level and layer offsets of tiled images
	rasterRowAlign = 64
	rasterSlice    = 64
	rasterLayer    = 256
	tiledRowBlocks = 8
	tiledPadBlocks = 8
	maxSamples     = 4
	msaaScale      = 2
)

// ImageDesc describes an image to create.
type ImageDesc struct {
	Label  string
	Format format.Format
	// Dim defaults to 2D for unknown values.
	Dim gputypes.TextureDimension
	// Size holds the depth of 3D images and the layer count otherwise.
	Size    gputypes.Extent3D
	Levels  uint32
	Samples uint32
	// Linear requests raster memory for every level.
	Linear bool
}

// Slice is the memory layout of one mip level of one plane.
type Slice struct {
	// Offset is relative to the start of each layer.
	Offset       uint32
	Stride       uint32 // bytes per row of blocks
	PaddedHeight uint32 // rows of blocks, including padding
	// Width, Height and Depth are in texels; Depth is 1 unless 3D.
	Width, Height, Depth uint32
	// BlocksW and BlocksH are the memory size in blocks; multisampled
	// images store every sample, doubling both.
	BlocksW, BlocksH uint32
	Tiling           format.Tiling
}

// DepthPitch is the distance between two depth slices of a 3D level.
func (s Slice) DepthPitch() uint32 { return s.Stride * s.PaddedHeight }

type plane struct {
	format format.Format
	divX   uint32
	divY   uint32
	levels []Slice
}

// Image is a laid-out image bound to device memory.
type Image struct {
	Label   string
	Format  format.Format
	Dim     gputypes.TextureDimension
	Size    gputypes.Extent3D
	Levels  uint32
	Samples uint32
	Linear  bool

	// Handle and Offset locate the image in device memory.
	Handle uint32
	Offset uint32

	planes      []plane
	layerStride uint32
	bytes       uint32
}

// NewImage lays out an image. The result is not bound to memory; use
// Device.CreateImage for that.
func NewImage(desc ImageDesc) (*Image, error) {
	if desc.Levels == 0 {
		desc.Levels = 1
	}
	if desc.Samples == 0 {
		desc.Samples = 1
	}
	if desc.Size.DepthOrArrayLayers == 0 {
		desc.Size.DepthOrArrayLayers = 1
	}
	switch desc.Dim {
	case gputypes.TextureDimension1D, gputypes.TextureDimension2D, gputypes.TextureDimension3D:
	default:
		desc.Dim = gputypes.TextureDimension2D
	}
	if err := validateDesc(desc); err != nil {
		return nil, err
	}

	im := &Image{
		Label:   desc.Label,
		Format:  desc.Format,
		Dim:     desc.Dim,
		Size:    desc.Size,
		Levels:  desc.Levels,
		Samples: desc.Samples,
		Linear:  desc.Linear,
	}
	im.layout()
	return im, nil
}

func validateDesc(d ImageDesc) error {
	info := d.Format.Info()
	maxLevels := uint32(bits.Len32(max(d.Size.Width, d.Size.Height, d.Size.DepthOrArrayLayers)))
	if d.Dim != gputypes.TextureDimension3D {
		maxLevels = uint32(bits.Len32(max(d.Size.Width, d.Size.Height)))
	}
	switch {
	case d.Format == format.Undefined || info.BlockBytes == 0 && !d.Format.IsPlanar():
		return fmt.Errorf("%w: format %v", ErrInvalidImage, d.Format)
	case d.Size.Width == 0 || d.Size.Height == 0:
		return fmt.Errorf("%w: empty size %dx%d", ErrInvalidImage, d.Size.Width, d.Size.Height)
	case d.Dim == gputypes.TextureDimension1D && d.Size.Height != 1:
		return fmt.Errorf("%w: 1D image with height %d", ErrInvalidImage, d.Size.Height)
	case d.Levels > maxLevels:
		return fmt.Errorf("%w: %d levels for %dx%d", ErrInvalidImage, d.Levels, d.Size.Width, d.Size.Height)
	case d.Samples != 1 && d.Samples != maxSamples:
		return fmt.Errorf("%w: %d samples", ErrInvalidImage, d.Samples)
	}
	if d.Samples > 1 {
		switch {
		case d.Dim != gputypes.TextureDimension2D:
			return fmt.Errorf("%w: multisampled %v image", ErrInvalidImage, d.Dim)
		case d.Linear:
			return fmt.Errorf("%w: multisampled linear image", ErrInvalidImage)
		case d.Levels != 1:
			return fmt.Errorf("%w: multisampled image with %d levels", ErrInvalidImage, d.Levels)
		case d.Format.IsCompressed() || d.Format.IsPlanar():
			return fmt.Errorf("%w: multisampled %v", ErrInvalidImage, d.Format)
		}
	}
	return nil
}

func alignUp(v, a uint32) uint32 { return (v + a - 1) / a * a }

// layout assigns every level of every plane its place in a layer.
func (im *Image) layout() {
	var offset uint32
	for p := 0; p < im.Format.PlaneCount(); p++ {
		pf, _ := im.Format.PlaneFormat(p)
		info := pf.Format.Info()
		pl := plane{format: pf.Format, divX: pf.DivX, divY: pf.DivY}
		for level := uint32(0); level < im.Levels; level++ {
			w := format.Minify(im.Size.Width, level) / pf.DivX
			h := format.Minify(im.Size.Height, level) / pf.DivY
			w, h = max(w, 1), max(h, 1)
			d := uint32(1)
			if im.Dim == gputypes.TextureDimension3D {
				d = format.Minify(im.Size.DepthOrArrayLayers, level)
			}
			bw, bh := format.Blocks(w, info.BlockW), format.Blocks(h, info.BlockH)
			if im.Samples > 1 {
				bw, bh = bw*msaaScale, bh*msaaScale
			}
			s := Slice{
				Width: w, Height: h, Depth: d,
				BlocksW: bw, BlocksH: bh,
				Tiling: format.ChooseTiling(im.Linear, bw, bh, info.BlockBytes),
			}
			if s.Tiling.IsTiled() {
				s.Stride = alignUp(bw, tiledRowBlocks) * info.BlockBytes
				s.PaddedHeight = alignUp(bh, tiledPadBlocks)
				offset = alignUp(offset, tiledAlign)
			} else {
				s.Stride = alignUp(bw*info.BlockBytes, rasterRowAlign)
				s.PaddedHeight = bh
				offset = alignUp(offset, rasterSlice)
			}
			s.Offset = offset
			offset += s.DepthPitch() * d
			pl.levels = append(pl.levels, s)
		}
		im.planes = append(im.planes, pl)
	}
	if im.Linear {
		im.layerStride = alignUp(offset, rasterLayer)
	} else {
		im.layerStride = alignUp(offset, tiledAlign)
	}
	im.bytes = im.layerStride * im.Layers()
}

// Bytes returns the memory size of the image.
func (im *Image) Bytes() uint32 { return im.bytes }

// LayerStride returns the distance between two array layers.
func (im *Image) LayerStride() uint32 { return im.layerStride }

// Layers returns the array layer count; 3D images have one layer.
func (im *Image) Layers() uint32 {
	if im.Dim == gputypes.TextureDimension3D {
		return 1
	}
	return im.Size.DepthOrArrayLayers
}

// Is3D reports whether im is a 3D image.
func (im *Image) Is3D() bool { return im.Dim == gputypes.TextureDimension3D }

// planeOf returns the plane index an aspect addresses.
func planeOf(aspect format.Aspect) int {
	switch {
	case aspect&format.AspectPlane1 != 0:
		return 1
	case aspect&format.AspectPlane2 != 0:
		return 2
	}
	return 0
}

// Slice returns the layout of one level of the plane aspect addresses.
func (im *Image) Slice(aspect format.Aspect, level uint32) (Slice, bool) {
	p := planeOf(aspect)
	if p >= len(im.planes) || level >= im.Levels {
		return Slice{}, false
	}
	return im.planes[p].levels[level], true
}

// AspectFormat returns the format of the memory aspect addresses: the
// plane format for plane aspects, the image format otherwise.
func (im *Image) AspectFormat(aspect format.Aspect) format.Format {
	p := planeOf(aspect)
	if p >= len(im.planes) {
		return format.Undefined
	}
	return im.planes[p].format
}

// SliceOffset returns the memory offset of one 2D slice: an array layer,
// or a depth slice of a 3D level.
func (im *Image) SliceOffset(aspect format.Aspect, level, layer uint32) uint32 {
	s, _ := im.Slice(aspect, level)
	if im.Is3D() {
		return im.Offset + s.Offset + layer*s.DepthPitch()
	}
	return im.Offset + layer*im.layerStride + s.Offset
}

// sliceRange returns the first 2D slice a subresource addresses and how
// many follow: array layers, or depth slices of a 3D level.
func (im *Image) sliceRange(sub Subresource, z, depth uint32) (first, count uint32) {
	if im.Is3D() {
		return z, depth
	}
	return sub.BaseLayer, sub.layerCount()
}

// Buffer is a linear range of device memory.
type Buffer struct {
	Label  string
	Handle uint32
	Offset uint32
	Size   uint32
}

// bufferImage wraps a buffer region in a single-level raster image so the
// image paths can address it. Row length and image height are in texels.
func bufferImage(buf *Buffer, offset uint32, f format.Format, rowLength, imageHeight, w, h, layers uint32) *Image {
	info := f.Info()
	s := Slice{
		Width: w, Height: h, Depth: 1,
		BlocksW: format.Blocks(w, info.BlockW), BlocksH: format.Blocks(h, info.BlockH),
		Stride:       format.Blocks(rowLength, info.BlockW) * info.BlockBytes,
		PaddedHeight: format.Blocks(imageHeight, info.BlockH),
		Tiling:       format.TilingRaster,
	}
	return &Image{
		Label:       buf.Label,
		Format:      f,
		Dim:         gputypes.TextureDimension2D,
		Size:        gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: layers},
		Levels:      1,
		Samples:     1,
		Linear:      true,
		Handle:      buf.Handle,
		Offset:      buf.Offset + offset,
		planes:      []plane{{format: f, divX: 1, divY: 1, levels: []Slice{s}}},
		layerStride: s.Stride * s.PaddedHeight,
		bytes:       s.Stride * s.PaddedHeight * layers,
	}
}
