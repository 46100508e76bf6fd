package tilexfer

import (
	"errors"
	"fmt"

	"github.com/gogpu/tilexfer/internal/mem"
)

// Errors returned by transfer recording.
var (
	// ErrUnsupported is reported by the panicking entry points when no
	// transfer path accepts a request.
	ErrUnsupported = errors.New("tilexfer: no transfer path accepts the request")

	// ErrExhausted wraps allocation failures. The command buffer records it
	// and keeps accepting requests as no-ops.
	ErrExhausted = errors.New("tilexfer: out of device memory")

	// ErrInvalidRequest is returned for malformed requests.
	ErrInvalidRequest = errors.New("tilexfer: invalid request")

	// ErrInvalidImage is returned by NewImage for impossible descriptions.
	ErrInvalidImage = errors.New("tilexfer: invalid image")
)

// Status is the three-way result of offering a request to a transfer path.
type Status uint8

// Statuses.
const (
	// Unsupported means the path cannot handle the request; nothing was
	// recorded and the next path may try.
	Unsupported Status = iota
	// Done means the path recorded the transfer.
	Done
	// Exhausted means the path accepted the request but ran out of memory.
	// The error is recorded on the command buffer and no later path runs.
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Unsupported:
		return "unsupported"
	case Done:
		return "done"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Path names a transfer mechanism.
type Path uint8

// Transfer paths, fastest first.
const (
	PathNone Path = iota
	PathTFU
	PathTLB
	PathBlit
	PathTexelCopy
	PathShaderClear
)

func (p Path) String() string {
	switch p {
	case PathNone:
		return "none"
	case PathTFU:
		return "tfu"
	case PathTLB:
		return "tlb"
	case PathBlit:
		return "blit"
	case PathTexelCopy:
		return "texel-copy"
	case PathShaderClear:
		return "shader-clear"
	}
	return fmt.Sprintf("Path(%d)", uint8(p))
}

// Outcome reports what a transfer path did with a request.
type Outcome struct {
	Status Status
	// Path is the path that handled the request, or PathNone.
	Path Path
	// Commands is the number of commands recorded.
	Commands int
	// Err is set for Exhausted outcomes and rejected requests.
	Err error
}

// Handled reports whether the request needs no further path: it was
// recorded, or recording failed for lack of memory.
func (o Outcome) Handled() bool { return o.Status != Unsupported }

func (o Outcome) String() string {
	if o.Status == Done {
		return fmt.Sprintf("%s via %s (%d commands)", o.Status, o.Path, o.Commands)
	}
	return o.Status.String()
}

func unsupported() Outcome { return Outcome{} }

func done(p Path, n int) Outcome { return Outcome{Status: Done, Path: p, Commands: n} }

// exhausted turns an allocation error into an Exhausted outcome.
func exhausted(p Path, err error) Outcome {
	if errors.Is(err, mem.ErrBudgetExceeded) || errors.Is(err, mem.ErrPoolClosed) {
		err = fmt.Errorf("%w: %w", ErrExhausted, err)
	}
	return Outcome{Status: Exhausted, Path: p, Err: err}
}
