package rcl

// listInitialAlloc is the initial capacity (in words) of a command list.
const listInitialAlloc = 256

// List is a command list encoded as a flat stream of uint32 words:
// [tag, payload...].
type List struct {
	Words []uint32
}

// NewList creates an empty list.
func NewList() *List {
	return &List{Words: make([]uint32, 0, listInitialAlloc)}
}

// Len returns the list size in words.
func (l *List) Len() int { return len(l.Words) }

// Bytes returns the list size in bytes.
func (l *List) Bytes() uint32 { return uint32(len(l.Words)) * 4 }

func (l *List) op(op Opcode, payload ...uint32) {
	l.Words = append(l.Words, uint32(op))
	l.Words = append(l.Words, payload...)
}

// WriteRenderingModeCommon writes TILE_RENDERING_MODE_CFG_COMMON.
// Payload: [width, height, layers, flags] where flags packs the render
// target count, max internal bpp, MSAA, double buffer and depth type.
func (l *List) WriteRenderingModeCommon(t FrameTiling, depthType uint32) {
	flags := t.RenderTargets | uint32(t.MaxBPP)<<4 | depthType<<12
	if t.MSAA {
		flags |= 1 << 8
	}
	if t.DoubleBuffer {
		flags |= 1 << 9
	}
	l.op(OpTileRenderingModeCfgCommon, t.Width, t.Height, t.Layers, flags)
}

// WriteRenderingModeColor writes TILE_RENDERING_MODE_CFG_COLOR for one
// render target.
func (l *List) WriteRenderingModeColor(rt uint32, it uint32, bpp uint32) {
	l.op(OpTileRenderingModeCfgColor, rt, it, bpp)
}

// WriteClearColors writes the packed clear value of one render target.
// Payload: [rt, w0, w1, w2, w3], little-endian bytes of the packed texel.
func (l *List) WriteClearColors(rt uint32, packed []byte) {
	var w [4]uint32
	for i, b := range packed {
		if i >= 16 {
			break
		}
		w[i/4] |= uint32(b) << (8 * (i % 4))
	}
	l.op(OpTileRenderingModeCfgClearColors, rt, w[0], w[1], w[2], w[3])
}

// WriteZSClear writes TILE_RENDERING_MODE_CFG_ZS_CLEAR_VALUES.
func (l *List) WriteZSClear(depth uint32, stencil uint8) {
	l.op(OpTileRenderingModeCfgZSClear, depth, uint32(stencil))
}

// WriteInitialBlockSize writes TILE_LIST_INITIAL_BLOCK_SIZE.
func (l *List) WriteInitialBlockSize(size uint32) {
	l.op(OpTileListInitialBlockSize, size)
}

// WriteTileListBase writes MULTICORE_RENDERING_TILE_LIST_SET_BASE.
func (l *List) WriteTileListBase(handle, offset uint32) {
	l.op(OpTileListSetBase, handle, offset)
}

// WriteSupertileCfg writes MULTICORE_RENDERING_SUPERTILE_CFG.
func (l *List) WriteSupertileCfg(t FrameTiling) {
	l.op(OpSupertileCfg, t.SupertileWidth, t.SupertileHeight,
		t.FrameWidthInSupertiles, t.FrameHeightInSupertiles, t.DrawTilesX, t.DrawTilesY)
}

// WriteTileCoordinates writes TILE_COORDINATES.
func (l *List) WriteTileCoordinates(x, y uint32) {
	l.op(OpTileCoordinates, x, y)
}

// WriteTileCoordinatesImplicit writes TILE_COORDINATES_IMPLICIT.
func (l *List) WriteTileCoordinatesImplicit() {
	l.op(OpTileCoordinatesImplicit)
}

// WriteLoad writes LOAD_TILE_BUFFER_GENERAL.
func (l *List) WriteLoad(s Surface) {
	l.Words = append(l.Words, uint32(OpLoadTileBufferGeneral))
	l.Words = s.encode(l.Words)
}

// WriteStore writes STORE_TILE_BUFFER_GENERAL.
func (l *List) WriteStore(s Surface) {
	l.Words = append(l.Words, uint32(OpStoreTileBufferGeneral))
	l.Words = s.encode(l.Words)
}

// WriteClearTileBuffers writes CLEAR_TILE_BUFFERS.
func (l *List) WriteClearTileBuffers(flags uint32) {
	l.op(OpClearTileBuffers, flags)
}

// WriteEndOfLoads writes END_OF_LOADS.
func (l *List) WriteEndOfLoads() { l.op(OpEndOfLoads) }

// WriteBranchToImplicitTileList writes BRANCH_TO_IMPLICIT_TILE_LIST.
func (l *List) WriteBranchToImplicitTileList() { l.op(OpBranchToImplicitTileList) }

// WriteEndOfTileMarker writes END_OF_TILE_MARKER.
func (l *List) WriteEndOfTileMarker() { l.op(OpEndOfTileMarker) }

// WriteReturnFromSubList writes RETURN_FROM_SUB_LIST.
func (l *List) WriteReturnFromSubList() { l.op(OpReturnFromSubList) }

// WriteFlushVCDCache writes FLUSH_VCD_CACHE.
func (l *List) WriteFlushVCDCache() { l.op(OpFlushVCDCache) }

// WriteGenericTileList writes START_ADDRESS_OF_GENERIC_TILE_LIST pointing at
// bytes [start, end) of the indirect list object.
func (l *List) WriteGenericTileList(handle, start, end uint32) {
	l.op(OpStartAddressOfGenericTileList, handle, start, end)
}

// WriteSupertileCoordinates writes SUPERTILE_COORDINATES.
func (l *List) WriteSupertileCoordinates(x, y uint32) {
	l.op(OpSupertileCoordinates, x, y)
}

// WriteEndOfRendering writes END_OF_RENDERING.
func (l *List) WriteEndOfRendering() { l.op(OpEndOfRendering) }

// ReadCmd reads the tag at offset and returns it with the payload offset.
// Past the end of the stream it returns 0 and the same offset.
func (l *List) ReadCmd(offset int) (op Opcode, next int) {
	if offset >= len(l.Words) {
		return 0, offset
	}
	return Opcode(l.Words[offset]), offset + 1
}

