// Command xferplan records the transfers of a YAML scenario and prints the
// path each one took and the commands it produced.
//
// Usage:
//
//	xferplan -scenario upload.yaml [-dump] [-run] [-v]
//
// With -run the commands are executed against host memory by the
// reference executor, which checks that every recorded job decodes and
// stays inside its memory objects.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/tilexfer"
	"github.com/gogpu/tilexfer/internal/sim"
	"github.com/gogpu/tilexfer/rcl"
)

type config struct {
	dump    bool
	execute bool
}

func main() {
	var (
		path    = flag.String("scenario", "", "scenario file (default stdin)")
		dump    = flag.Bool("dump", false, "print every recorded command and decoded render command lists")
		execute = flag.Bool("run", false, "execute the commands against host memory")
		verbose = flag.Bool("v", false, "log path selection to stderr")
	)
	flag.Parse()

	if *verbose {
		tilexfer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	in := io.Reader(os.Stdin)
	if *path != "" {
		f, err := os.Open(*path)
		if err != nil {
			log.Fatalf("Failed to open scenario: %v", err)
		}
		defer f.Close()
		in = f
	}

	if err := run(in, os.Stdout, config{dump: *dump, execute: *execute}); err != nil {
		log.Fatalf("xferplan: %v", err)
	}
}

func run(in io.Reader, out io.Writer, cfg config) error {
	s, err := parseScenario(in)
	if err != nil {
		return err
	}
	p, err := newPlan(s, cfg.execute)
	if err != nil {
		return err
	}
	defer p.close()

	var unsupported int
	for i, op := range s.Ops {
		st, err := p.record(op)
		if err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
		if st.out.Status != tilexfer.Done {
			unsupported++
		}
		fmt.Fprintf(out, "%3d %-12s %s\n", i, st.op, st.out)
		if st.out.Err != nil {
			fmt.Fprintf(out, "    error: %v\n", st.out.Err)
		}
		if cfg.dump {
			if err := dumpCommands(out, st.cmds); err != nil {
				return err
			}
		}
	}
	fmt.Fprintf(out, "%d ops, %d commands, %d one-shot pipelines, %d not recorded\n",
		len(s.Ops), len(p.cb.Commands()), p.cb.OneShots(), unsupported)

	if !cfg.execute {
		return nil
	}
	if err := sim.ForDevice(p.dev).Run(p.cb.Commands()); err != nil {
		return err
	}
	fmt.Fprintf(out, "executed %d commands\n", len(p.cb.Commands()))
	return nil
}

func dumpCommands(out io.Writer, cmds []tilexfer.Command) error {
	for _, c := range cmds {
		fmt.Fprintf(out, "    %v\n", c)
		job, ok := c.(tilexfer.CLJob)
		if !ok {
			continue
		}
		recs, err := rcl.Decode(job.Job.RCL.Words)
		if err != nil {
			return fmt.Errorf("decode %v: %w", c, err)
		}
		for _, r := range recs {
			fmt.Fprintf(out, "      %5d %v\n", r.Offset, r)
		}
	}
	return nil
}
