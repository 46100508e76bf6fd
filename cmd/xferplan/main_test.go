package main

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestRunFrameScenario(t *testing.T) {
	for _, execute := range []bool{false, true} {
		f, err := os.Open("testdata/frame.yaml")
		if err != nil {
			t.Fatal(err)
		}
		var out strings.Builder
		err = run(f, &out, config{execute: execute})
		f.Close()
		if err != nil {
			t.Fatalf("run(execute=%v) = %v", execute, err)
		}

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		want := []string{
			"upload       done via tfu",
			"blit         done via blit",
			"copy         done via tlb",
			"readback     done via blit",
			"clear        done via tlb",
			"resolve      done via tlb",
			"clear        done via tlb",
			"fill         done via tlb",
		}
		if len(lines) < len(want)+1 {
			t.Fatalf("output has %d lines:\n%s", len(lines), out.String())
		}
		for i, w := range want {
			if !strings.Contains(lines[i], w) {
				t.Errorf("line %d = %q, want it to contain %q", i, lines[i], w)
			}
		}
		if !strings.Contains(out.String(), "0 not recorded") {
			t.Errorf("summary missing from:\n%s", out.String())
		}
		if got := strings.Contains(out.String(), "executed"); got != execute {
			t.Errorf("execute=%v but output reports execution=%v", execute, got)
		}
	}
}

func TestRunDump(t *testing.T) {
	const scenario = `
images:
  - {name: rt, format: rgba8_unorm, width: 16, height: 16}
ops:
  - {op: clear, dst: rt, color: [1, 1, 1, 1]}
`
	var out strings.Builder
	if err := run(strings.NewReader(scenario), &out, config{dump: true}); err != nil {
		t.Fatalf("run() = %v", err)
	}
	for _, want := range []string{"tlb clear color", "END_OF_RENDERING"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("dump missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunUnsupportedIsReported(t *testing.T) {
	// Compressed images cannot be rendered to, and mirroring rules out the
	// raw-copy unit.
	const scenario = `
images:
  - {name: a, format: etc2_rgb8_unorm, width: 16, height: 16}
  - {name: b, format: etc2_rgb8_unorm, width: 16, height: 16}
ops:
  - {op: blit, src: a, dst: b, dst_box: [16, 0, 0, 16]}
`
	var out strings.Builder
	if err := run(strings.NewReader(scenario), &out, config{}); err != nil {
		t.Fatalf("run() = %v", err)
	}
	if !strings.Contains(out.String(), "unsupported") || !strings.Contains(out.String(), "1 not recorded") {
		t.Errorf("unsupported blit not reported:\n%s", out.String())
	}
}

func TestRunRejectsBadScenarios(t *testing.T) {
	tests := []struct {
		name     string
		scenario string
		sentinel error
	}{
		{"unknown format", "images: [{name: a, format: nope, width: 4, height: 4}]", errScenario},
		{"unknown op", "images: [{name: a, format: r8_uint, width: 4, height: 4}]\nops: [{op: paint, dst: a}]", errScenario},
		{"missing image", "ops: [{op: clear, dst: missing}]", errScenario},
		{"bad box", "images: [{name: a, format: r8_uint, width: 4, height: 4}]\nops: [{op: blit, src: a, dst: a, src_box: [1]}]", errScenario},
		{"duplicate buffer", "buffers: [{name: b, size: 4}, {name: b, size: 4}]", errScenario},
		{"unknown key", "images: [{name: a, colour: red}]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(strings.NewReader(tt.scenario), &strings.Builder{}, config{})
			if err == nil {
				t.Fatal("run() succeeded")
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("run() = %v, want %v", err, tt.sentinel)
			}
		})
	}
}
