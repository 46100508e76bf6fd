// Package format is the pixel format lookup service used by the transfer engine.
//
// It answers three kinds of questions:
//
//   - Description: bytes per texel block, block dimensions, aspects and the
//     tile-buffer internal type of every supported format ([Format.Info]).
//   - Compatibility: which format a tile-buffer (TLB) or raw-copy (TFU)
//     operation should use in place of a requested one ([ResolveTLB],
//     [ResolveTFU]), and how extents scale between block-compressed and
//     uncompressed views ([ScaleExtent]).
//   - Reinterpretation: how a depth/stencil aspect is expressed as an integer
//     color operation with a write mask and swizzle ([ColorView]), and how the
//     tile hardware's packed D24 layout maps onto the API buffer layout
//     ([BufferView]).
//
// All functions are pure and table driven.
package format
