// Package rcl builds the render command lists (RCL) the tile hardware
// executes for TLB and clear transfers.
//
// A [Job] owns one frame: its [FrameTiling], the main render command list
// and an indirect list holding the generic per-tile program of each layer.
// Commands are encoded as a stream of uint32 words, a tag followed by its
// payload, in the same manner as the per-tile command lists of the compute
// rasterizer.
//
// The emitted frame has the shape
//
//	prologue (rendering mode, clear values)
//	for each layer:
//	    frame setup (tile list base, supertile config, two-pass store workaround)
//	    START_ADDRESS_OF_GENERIC_TILE_LIST -> indirect body
//	    SUPERTILE_COORDINATES for every supertile the region touches
//	END_OF_RENDERING
//
// and every indirect body has the shape
//
//	TILE_COORDINATES_IMPLICIT, loads, END_OF_LOADS, BRANCH_TO_IMPLICIT_TILE_LIST,
//	stores, END_OF_TILE_MARKER, RETURN_FROM_SUB_LIST
//
// Loads are closed by END_OF_LOADS before any store is emitted; [Body]
// enforces this ordering.
package rcl
