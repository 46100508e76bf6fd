package rcl

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned when a word stream does not decode.
var ErrMalformed = errors.New("rcl: malformed command list")

// Record is one decoded command.
type Record struct {
	Offset int // word offset of the tag
	Op     Opcode
	Args   []uint32
}

// Surface returns the descriptor of a load or store record.
func (r Record) Surface() Surface {
	if r.Op != OpLoadTileBufferGeneral && r.Op != OpStoreTileBufferGeneral {
		panic(fmt.Sprintf("rcl: %v has no surface", r.Op))
	}
	return decodeSurface(r.Args)
}

func (r Record) String() string {
	switch r.Op {
	case OpLoadTileBufferGeneral, OpStoreTileBufferGeneral:
		s := r.Surface()
		return fmt.Sprintf("%v %v %v %v @%d+%d", r.Op, s.Buffer, s.Format, s.Tiling, s.Handle, s.Offset)
	}
	if len(r.Args) == 0 {
		return r.Op.String()
	}
	return fmt.Sprintf("%v %v", r.Op, r.Args)
}

// Decode splits a word stream into records.
func Decode(words []uint32) ([]Record, error) {
	var recs []Record
	for off := 0; off < len(words); {
		op := Opcode(words[off])
		if op == 0 || op >= opCount {
			return recs, fmt.Errorf("%w: unknown tag %d at word %d", ErrMalformed, words[off], off)
		}
		n := payloadWords[op]
		if off+1+n > len(words) {
			return recs, fmt.Errorf("%w: %v truncated at word %d", ErrMalformed, op, off)
		}
		recs = append(recs, Record{Offset: off, Op: op, Args: words[off+1 : off+1+n]})
		off += 1 + n
	}
	return recs, nil
}

// Count returns how many records have the given opcode.
func Count(recs []Record, op Opcode) int {
	n := 0
	for _, r := range recs {
		if r.Op == op {
			n++
		}
	}
	return n
}
