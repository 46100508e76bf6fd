// Package tilexfer records image and buffer transfers for tile-based GPUs.
//
// # Overview
//
// A tile-based GPU can move texels in several ways: the raw-copy unit
// (TFU) copies whole tiled levels, the tile buffer (TLB) loads and stores
// tiles through a render job, and shader pipelines draw blits, clears and
// texel copies. tilexfer picks the fastest mechanism that can express each
// request and records the commands it needs.
//
// # Quick Start
//
//	dev, err := tilexfer.NewDevice()
//	if err != nil {
//		return err
//	}
//	defer dev.Destroy()
//
//	im, _ := dev.CreateImage(tilexfer.ImageDesc{Format: format.RGBA8Unorm, Size: size})
//	cb := dev.NewCommandBuffer("upload")
//	o := cb.TryCopyBufferToImage(tilexfer.BufferImageCopy{
//		Buffer: staging,
//		Image:  im,
//		Sub:    tilexfer.Subresource{Aspect: format.AspectColor},
//		Extent: size,
//	})
//	// o.Path names the mechanism; cb.Commands() holds the recorded work.
//
// # Paths
//
// Every operation offers its request to a fixed chain of paths. A path
// answers with an Outcome:
//   - Unsupported: the next path is tried
//   - Done: the commands were recorded
//   - Exhausted: memory ran out; the error is kept on the command buffer
//
// The Try methods return Unsupported when the whole chain declines. The
// plain methods panic instead, for callers that validated the request.
//
// # Architecture
//
// The module is organized into:
//   - format: format table, TLB and TFU compatible formats, integer views
//   - rcl: frame tiling and render command list emission
//   - tfu: raw-copy unit jobs and register encodings
//   - pipeline: cached shader pipelines for the draw paths
//   - tilexfer: requests, path chains and command buffers
//
// # Logging
//
// tilexfer is silent by default. SetLogger installs a slog.Logger that
// receives path decisions and pipeline cache misses.
package tilexfer

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
