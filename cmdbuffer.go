package tilexfer

import (
	"errors"
	"fmt"

	"github.com/gogpu/tilexfer/pipeline"
	"github.com/gogpu/tilexfer/rcl"
)

// CommandBuffer records transfers for one submission.
//
// Every request is offered to its transfer paths fastest first; the first
// path that does not report Unsupported wins. An allocation failure is
// recorded and every later request becomes a no-op reporting Exhausted.
//
// A CommandBuffer must not be used from more than one goroutine at a time.
type CommandBuffer struct {
	dev   *Device
	Label string

	cmds     []Command
	jobs     []*rcl.Job
	oneShots []*pipeline.Entry
	err      error
}

// NewCommandBuffer creates an empty command buffer.
func (d *Device) NewCommandBuffer(label string) *CommandBuffer {
	return &CommandBuffer{dev: d, Label: label}
}

// Commands returns the recorded commands in submission order.
func (cb *CommandBuffer) Commands() []Command { return cb.cmds }

// Err returns the allocation error that stopped recording, or nil.
func (cb *CommandBuffer) Err() error { return cb.err }

// OneShots returns how many uncached pipelines the buffer owns.
func (cb *CommandBuffer) OneShots() int { return len(cb.oneShots) }

// Reset releases every job and one-shot pipeline and clears the recorded
// commands and error.
func (cb *CommandBuffer) Reset() error {
	var errs []error
	for _, j := range cb.jobs {
		if err := j.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, e := range cb.oneShots {
		cb.dev.caches.Release(e)
	}
	cb.cmds, cb.jobs, cb.oneShots, cb.err = nil, nil, nil, nil
	if err := errors.Join(errs...); err != nil {
		Logger().Warn("tilexfer: releasing jobs", "cb", cb.Label, "err", err)
		return fmt.Errorf("tilexfer: reset %q: %w", cb.Label, err)
	}
	return nil
}

func (cb *CommandBuffer) record(c Command) { cb.cmds = append(cb.cmds, c) }

// newJob allocates a TLB job owned by the command buffer.
func (cb *CommandBuffer) newJob(p rcl.FrameParams) (*rcl.Job, error) {
	j, err := rcl.NewJob(cb.dev.alloc, p)
	if err != nil {
		return nil, err
	}
	cb.jobs = append(cb.jobs, j)
	return j, nil
}

// submitJob emits f into a new job and records it.
func (cb *CommandBuffer) submitJob(label string, p rcl.FrameParams, f rcl.Frame) error {
	j, err := cb.newJob(p)
	if err != nil {
		return err
	}
	if err := j.Emit(f); err != nil {
		return err
	}
	cb.record(CLJob{Label: label, Job: j})
	return nil
}

// attempt offers a request to one transfer path.
type attempt func() Outcome

// run offers a request to each path in turn.
func (cb *CommandBuffer) run(op string, paths ...attempt) Outcome {
	if cb.err != nil {
		return Outcome{Status: Exhausted, Err: cb.err}
	}
	for _, try := range paths {
		o := try()
		switch o.Status {
		case Unsupported:
			continue
		case Exhausted:
			cb.err = o.Err
			Logger().Warn("tilexfer: transfer ran out of memory", "op", op, "path", o.Path, "err", o.Err)
		default:
			Logger().Debug("tilexfer: transfer recorded", "op", op, "path", o.Path, "commands", o.Commands)
		}
		return o
	}
	Logger().Debug("tilexfer: no path accepts transfer", "op", op)
	return unsupported()
}

// must panics when o reports that no path could handle op.
func must(op string, o Outcome) Outcome {
	if o.Status == Unsupported {
		Logger().Error("tilexfer: unsupported transfer", "op", op, "err", o.Err)
		if o.Err != nil {
			panic(fmt.Errorf("%w: %s: %w", ErrUnsupported, op, o.Err))
		}
		panic(fmt.Errorf("%w: %s", ErrUnsupported, op))
	}
	return o
}
