package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/internal/cache"
)

// Caches holds the pipeline caches of one device, one per category. Each
// category has its own lock; a build runs under that lock, so a key is
// built at most once. Entries are never evicted before Destroy.
//
// Caches is safe for concurrent use.
type Caches struct {
	builder Builder

	clearColor *cache.Cache[ClearColorKey, *Entry]
	clearDepth *cache.Cache[ClearDepthKey, *Entry]
	blit       [3]*cache.Cache[BlitKey, *Entry]
	texelCopy  [3]*cache.Cache[TexelCopyKey, *Entry]
}

// NewCaches creates empty caches building through b.
func NewCaches(b Builder) *Caches {
	c := &Caches{
		builder:    b,
		clearColor: cache.New[ClearColorKey, *Entry](),
		clearDepth: cache.New[ClearDepthKey, *Entry](),
	}
	for i := range c.blit {
		c.blit[i] = cache.New[BlitKey, *Entry]()
		c.texelCopy[i] = cache.New[TexelCopyKey, *Entry]()
	}
	return c
}

// Builder returns the builder the caches use.
func (c *Caches) Builder() Builder { return c.builder }

func logBuild(created bool, kind Kind, key any) {
	if created {
		slogger().Debug("pipeline cache miss", "kind", kind, "key", fmt.Sprintf("%+v", key))
	}
}

// ClearColor returns the color clear pipeline for k.
func (c *Caches) ClearColor(k ClearColorKey) (*Entry, error) {
	e, created, err := c.clearColor.GetOrCreate(k, func() (*Entry, error) {
		return c.builder.BuildClearColor(k)
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: clear color %v: %w", k.Format, err)
	}
	logBuild(created, KindClearColor, k)
	return e, nil
}

// ClearDepth returns the depth/stencil clear pipeline for k.
func (c *Caches) ClearDepth(k ClearDepthKey) (*Entry, error) {
	e, created, err := c.clearDepth.GetOrCreate(k, func() (*Entry, error) {
		return c.builder.BuildClearDepth(k)
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: clear depth %v: %w", k.Format, err)
	}
	logBuild(created, KindClearDepth, k)
	return e, nil
}

// Blit returns the blit pipeline for k sampling a source of dimensionality
// dim.
func (c *Caches) Blit(dim gputypes.TextureDimension, k BlitKey) (*Entry, error) {
	e, created, err := c.blit[dimIndex(dim)].GetOrCreate(k, func() (*Entry, error) {
		return c.builder.BuildBlit(dim, k, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: blit %v -> %v: %w", k.SrcFormat, k.DstFormat, err)
	}
	logBuild(created, KindBlit, k)
	return e, nil
}

// TexelCopy returns the texel-buffer copy pipeline for k writing a
// destination of dimensionality dim.
func (c *Caches) TexelCopy(dim gputypes.TextureDimension, k TexelCopyKey) (*Entry, error) {
	e, created, err := c.texelCopy[dimIndex(dim)].GetOrCreate(k, func() (*Entry, error) {
		return c.builder.BuildTexelCopy(dim, k)
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: texel copy %v: %w", k.Format, err)
	}
	logBuild(created, KindTexelCopy, k)
	return e, nil
}

// OneShotBlit builds an uncached blit pipeline compatible with pass, a
// render pass the application owns. The caller owns the entry and must hand
// it to Release.
func (c *Caches) OneShotBlit(dim gputypes.TextureDimension, k BlitKey, pass RenderPass) (*Entry, error) {
	e, err := c.builder.BuildBlit(dim, k, &pass)
	if err != nil {
		return nil, fmt.Errorf("pipeline: one-shot blit %v -> %v: %w", k.SrcFormat, k.DstFormat, err)
	}
	e.OneShot = true
	return e, nil
}

// Release destroys a one-shot entry. Cached entries are ignored; they live
// until Destroy.
func (c *Caches) Release(e *Entry) {
	if e == nil || !e.OneShot {
		return
	}
	c.builder.Destroy(e)
}

// Len returns the number of cached entries over all categories.
func (c *Caches) Len() int {
	n := c.clearColor.Len() + c.clearDepth.Len()
	for i := range c.blit {
		n += c.blit[i].Len() + c.texelCopy[i].Len()
	}
	return n
}

// Stats describes one cache category.
type Stats struct {
	Category string
	Entries  int
	Hits     uint64
	Misses   uint64
}

func stats(category string, s cache.Stats) Stats {
	return Stats{Category: category, Entries: s.Len, Hits: s.Hits, Misses: s.Misses}
}

// Stats returns per-category statistics.
func (c *Caches) Stats() []Stats {
	out := []Stats{
		stats("clear-color", c.clearColor.Stats()),
		stats("clear-depth", c.clearDepth.Stats()),
	}
	dims := [...]gputypes.TextureDimension{gputypes.TextureDimension1D, gputypes.TextureDimension2D, gputypes.TextureDimension3D}
	for i, dim := range dims {
		out = append(out, stats("blit-"+dimName(dim), c.blit[i].Stats()))
	}
	for i, dim := range dims {
		out = append(out, stats("texel-copy-"+dimName(dim), c.texelCopy[i].Stats()))
	}
	return out
}

// Destroy releases every cached entry. The caches are empty afterwards.
func (c *Caches) Destroy() {
	var entries []*Entry
	entries = append(entries, c.clearColor.Drain()...)
	entries = append(entries, c.clearDepth.Drain()...)
	for i := range c.blit {
		entries = append(entries, c.blit[i].Drain()...)
		entries = append(entries, c.texelCopy[i].Drain()...)
	}
	for _, e := range entries {
		c.builder.Destroy(e)
	}
	slogger().Debug("pipeline caches destroyed", "entries", len(entries))
}
