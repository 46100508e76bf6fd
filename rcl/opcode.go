package rcl

import "fmt"

// Opcode is the tag word of an RCL record.
type Opcode uint32

// RCL record tags.
const (
	OpEndOfRendering Opcode = iota + 1
	OpTileRenderingModeCfgCommon
	OpTileRenderingModeCfgColor
	OpTileRenderingModeCfgClearColors
	OpTileRenderingModeCfgZSClear
	OpTileListInitialBlockSize
	OpTileListSetBase
	OpSupertileCfg
	OpTileCoordinates
	OpTileCoordinatesImplicit
	OpLoadTileBufferGeneral
	OpStoreTileBufferGeneral
	OpClearTileBuffers
	OpEndOfLoads
	OpBranchToImplicitTileList
	OpEndOfTileMarker
	OpReturnFromSubList
	OpFlushVCDCache
	OpStartAddressOfGenericTileList
	OpSupertileCoordinates

	opCount
)

// payloadWords is the payload length of each record, excluding the tag.
var payloadWords = [opCount]int{
	OpEndOfRendering:                  0,
	OpTileRenderingModeCfgCommon:      4,
	OpTileRenderingModeCfgColor:       3,
	OpTileRenderingModeCfgClearColors: 5,
	OpTileRenderingModeCfgZSClear:     2,
	OpTileListInitialBlockSize:        1,
	OpTileListSetBase:                 2,
	OpSupertileCfg:                    6,
	OpTileCoordinates:                 2,
	OpTileCoordinatesImplicit:         0,
	OpLoadTileBufferGeneral:           surfaceWords,
	OpStoreTileBufferGeneral:          surfaceWords,
	OpClearTileBuffers:                1,
	OpEndOfLoads:                      0,
	OpBranchToImplicitTileList:        0,
	OpEndOfTileMarker:                 0,
	OpReturnFromSubList:               0,
	OpFlushVCDCache:                   0,
	OpStartAddressOfGenericTileList:   3,
	OpSupertileCoordinates:            2,
}

var opNames = [opCount]string{
	OpEndOfRendering:                  "END_OF_RENDERING",
	OpTileRenderingModeCfgCommon:      "TILE_RENDERING_MODE_CFG_COMMON",
	OpTileRenderingModeCfgColor:       "TILE_RENDERING_MODE_CFG_COLOR",
	OpTileRenderingModeCfgClearColors: "TILE_RENDERING_MODE_CFG_CLEAR_COLORS",
	OpTileRenderingModeCfgZSClear:     "TILE_RENDERING_MODE_CFG_ZS_CLEAR_VALUES",
	OpTileListInitialBlockSize:        "TILE_LIST_INITIAL_BLOCK_SIZE",
	OpTileListSetBase:                 "MULTICORE_RENDERING_TILE_LIST_SET_BASE",
	OpSupertileCfg:                    "MULTICORE_RENDERING_SUPERTILE_CFG",
	OpTileCoordinates:                 "TILE_COORDINATES",
	OpTileCoordinatesImplicit:         "TILE_COORDINATES_IMPLICIT",
	OpLoadTileBufferGeneral:           "LOAD_TILE_BUFFER_GENERAL",
	OpStoreTileBufferGeneral:          "STORE_TILE_BUFFER_GENERAL",
	OpClearTileBuffers:                "CLEAR_TILE_BUFFERS",
	OpEndOfLoads:                      "END_OF_LOADS",
	OpBranchToImplicitTileList:        "BRANCH_TO_IMPLICIT_TILE_LIST",
	OpEndOfTileMarker:                 "END_OF_TILE_MARKER",
	OpReturnFromSubList:               "RETURN_FROM_SUB_LIST",
	OpFlushVCDCache:                   "FLUSH_VCD_CACHE",
	OpStartAddressOfGenericTileList:   "START_ADDRESS_OF_GENERIC_TILE_LIST",
	OpSupertileCoordinates:            "SUPERTILE_COORDINATES",
}

func (o Opcode) String() string {
	if o == 0 || o >= opCount {
		return fmt.Sprintf("Opcode(%d)", uint32(o))
	}
	return opNames[o]
}

// Clear flags of CLEAR_TILE_BUFFERS.
const (
	ClearZStencil uint32 = 1 << iota
	ClearAllRenderTargets
)
