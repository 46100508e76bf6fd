package rcl

import (
	"errors"
	"fmt"

	"github.com/gogpu/tilexfer/internal/mem"
)

// Job memory sizes.
const (
	// tileAllocBlockSize is the tile-list block reserved per tile and layer.
	tileAllocBlockSize = 64
	// tileStateSize is the tile state reserved per tile and layer.
	tileStateSize = 256
	// bodyBudget bounds the encoded size of one generic tile-list body.
	bodyBudget = 512
	// minIndirectSize is the smallest indirect-list object.
	minIndirectSize = 4096
)

// Job is one hardware render job: a frame, its render command list and the
// indirect list holding the per-layer generic tile lists. A Job is owned by
// the command buffer recording it.
type Job struct {
	Tiling FrameTiling

	RCL      *List
	Indirect *List

	TileAlloc    mem.Object
	TileState    mem.Object
	IndirectList mem.Object

	alloc    mem.Allocator
	body     *Body
	released bool
}

// NewJob computes the tiling for p and allocates the job's tile-list,
// tile-state and indirect-list memory from alloc. On failure nothing stays
// allocated and the error wraps the allocator's error.
func NewJob(alloc mem.Allocator, p FrameParams) (*Job, error) {
	t, err := NewFrameTiling(p)
	if err != nil {
		return nil, err
	}
	j := &Job{
		Tiling:   t,
		RCL:      NewList(),
		Indirect: NewList(),
		alloc:    alloc,
	}

	tiles := t.Layers * t.Tiles()
	if j.TileAlloc, err = alloc.Alloc(tileAllocBlockSize*tiles+tileAllocBlockSize, "tile alloc"); err != nil {
		return nil, fmt.Errorf("rcl: tile alloc: %w", err)
	}
	if j.TileState, err = alloc.Alloc(tileStateSize*tiles, "tile state"); err != nil {
		_ = alloc.Free(j.TileAlloc)
		return nil, fmt.Errorf("rcl: tile state: %w", err)
	}
	if j.IndirectList, err = alloc.Alloc(max(minIndirectSize, bodyBudget*t.Layers), "indirect list"); err != nil {
		_ = alloc.Free(j.TileState)
		_ = alloc.Free(j.TileAlloc)
		return nil, fmt.Errorf("rcl: indirect list: %w", err)
	}
	return j, nil
}

// Objects returns the memory objects the job owns.
func (j *Job) Objects() []mem.Object {
	return []mem.Object{j.TileAlloc, j.TileState, j.IndirectList}
}

// Release frees the job's memory. It is safe to call more than once.
func (j *Job) Release() error {
	if j.released {
		return nil
	}
	j.released = true
	var errs []error
	for _, obj := range j.Objects() {
		if err := j.alloc.Free(obj); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SubList returns the indirect-list words addressed by a
// START_ADDRESS_OF_GENERIC_TILE_LIST record.
func (j *Job) SubList(start, end uint32) []uint32 {
	return j.Indirect.Words[start/4 : end/4]
}
