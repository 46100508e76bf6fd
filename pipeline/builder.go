package pipeline

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
)

// ErrUnsupportedFormat is returned when no pipeline can target a format.
var ErrUnsupportedFormat = errors.New("pipeline: unsupported format")

// Builder creates pipeline entries. A failed build must release whatever it
// created before returning the error.
type Builder interface {
	BuildClearColor(k ClearColorKey) (*Entry, error)
	BuildClearDepth(k ClearDepthKey) (*Entry, error)
	// BuildBlit builds a blit pipeline. A non-nil pass makes the entry
	// compatible with that render pass instead of the builder's own.
	BuildBlit(dim gputypes.TextureDimension, k BlitKey, pass *RenderPass) (*Entry, error)
	BuildTexelCopy(dim gputypes.TextureDimension, k TexelCopyKey) (*Entry, error)
	Destroy(e *Entry)
}

// HostBuilder builds descriptor-only entries: shader sources and render-pass
// templates without GPU objects. It counts builds and destroys.
type HostBuilder struct {
	builds   atomic.Int64
	destroys atomic.Int64
}

// NewHostBuilder creates a host builder.
func NewHostBuilder() *HostBuilder { return &HostBuilder{} }

// Builds returns the number of successful builds.
func (b *HostBuilder) Builds() int64 { return b.builds.Load() }

// Live returns the number of built entries not yet destroyed.
func (b *HostBuilder) Live() int64 { return b.builds.Load() - b.destroys.Load() }

func (b *HostBuilder) entry(kind Kind, key any, label string, target format.Format, samples uint32,
	mask gputypes.ColorWriteMask, src string, srcErr error) (*Entry, error) {
	if srcErr != nil {
		return nil, srcErr
	}
	if target.Info().Kind == format.KindCompressed || target.IsPlanar() {
		return nil, fmt.Errorf("%w: render target %v", ErrUnsupportedFormat, target)
	}
	load, noLoad := passes(label, target, samples)
	b.builds.Add(1)
	return &Entry{
		Kind:       kind,
		Key:        key,
		Label:      label,
		Dim:        gputypes.TextureDimension2D,
		Target:     target,
		Samples:    samples,
		Mask:       mask,
		LoadPass:   load,
		NoLoadPass: noLoad,
		Source:     src,
	}, nil
}

// BuildClearColor implements Builder.
func (b *HostBuilder) BuildClearColor(k ClearColorKey) (*Entry, error) {
	src, err := ClearColorSource(k)
	return b.entry(KindClearColor, k, "clear_color", k.Format, k.Samples, k.Mask, src, err)
}

// BuildClearDepth implements Builder.
func (b *HostBuilder) BuildClearDepth(k ClearDepthKey) (*Entry, error) {
	src, err := ClearDepthSource(k)
	return b.entry(KindClearDepth, k, "clear_depth", k.Format, k.Samples, 0, src, err)
}

// BuildBlit implements Builder.
func (b *HostBuilder) BuildBlit(dim gputypes.TextureDimension, k BlitKey, pass *RenderPass) (*Entry, error) {
	src, err := BlitSource(dim, k)
	e, err := b.entry(KindBlit, k, "blit_"+dimName(dim), k.DstFormat, k.DstSamples, k.Mask, src, err)
	if err != nil {
		return nil, err
	}
	e.Dim = dim
	if pass != nil {
		e.LoadPass, e.NoLoadPass = *pass, *pass
	}
	return e, nil
}

// BuildTexelCopy implements Builder.
func (b *HostBuilder) BuildTexelCopy(dim gputypes.TextureDimension, k TexelCopyKey) (*Entry, error) {
	src, err := TexelCopySource(k)
	e, err := b.entry(KindTexelCopy, k, "texel_copy_"+dimName(dim), k.Format, 1, k.Mask, src, err)
	if err != nil {
		return nil, err
	}
	e.Dim = dim
	return e, nil
}

// Destroy implements Builder.
func (b *HostBuilder) Destroy(*Entry) { b.destroys.Add(1) }
