package tfu

import (
	"errors"
	"testing"

	"github.com/gogpu/tilexfer/format"
)

func testJob() Job {
	return Job{
		SrcHandle: 1, SrcOffset: 256, SrcTiling: format.TilingRaster, SrcStride: 1024,
		DstHandle: 2, DstOffset: 4096, DstTiling: format.TilingUIFNoXOR, DstStride: 1024, DstPaddedHeight: 264,
		CPP: 4, Width: 256, Height: 260, Format: format.R32Sfloat,
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, version := range []int{42, 71} {
		enc, err := NewEncoder(version)
		if err != nil {
			t.Fatal(err)
		}
		if enc.Version() != version {
			t.Errorf("Version() = %d, want %d", enc.Version(), version)
		}
		regs, err := enc.Encode(testJob())
		if err != nil {
			t.Fatalf("v%d Encode: %v", version, err)
		}
		got, err := enc.Decode(regs)
		if err != nil {
			t.Fatalf("v%d Decode: %v", version, err)
		}
		if got != testJob() {
			t.Errorf("v%d round trip = %+v, want %+v", version, got, testJob())
		}
	}
}

func TestGenerationsDiffer(t *testing.T) {
	a, err := EncoderV42{}.Encode(testJob())
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncoderV71{}.Encode(testJob())
	if err != nil {
		t.Fatal(err)
	}
	if a.IOS == b.IOS || a.ICfg == b.ICfg {
		t.Errorf("v42 and v71 share a layout: %+v vs %+v", a, b)
	}
	if a.IOC != 0 || b.IOC == 0 {
		t.Errorf("output config register misplaced: v42 %#x, v71 %#x", a.IOC, b.IOC)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Job)
	}{
		{"raster destination", func(j *Job) { j.DstTiling = format.TilingRaster }},
		{"zero width", func(j *Job) { j.Width = 0 }},
		{"format mismatch", func(j *Job) { j.Format = format.R16Sfloat }},
		{"bad cpp", func(j *Job) { j.CPP = 3 }},
		{"unaligned", func(j *Job) { j.DstOffset = 4100 }},
		{"missing object", func(j *Job) { j.SrcHandle = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := testJob()
			tt.edit(&j)
			if _, err := (EncoderV71{}).Encode(j); !errors.Is(err, ErrInvalidJob) {
				t.Errorf("Encode error = %v, want ErrInvalidJob", err)
			}
		})
	}
}

func TestNewEncoderUnknown(t *testing.T) {
	if _, err := NewEncoder(33); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("NewEncoder(33) error = %v", err)
	}
}
