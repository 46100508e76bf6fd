// Package pipeline caches the render pipelines and render-pass templates
// the shader-driven transfer paths draw with.
//
// A [Caches] value belongs to one device. It holds one build-once cache per
// category: color clears, depth/stencil clears, and blits and texel-buffer
// copies for each destination dimensionality. Keys are plain comparable
// structs; two lookups with equal keys always return the same *Entry.
//
// Entries are built by a [Builder]. [HALBuilder] creates real pipelines on a
// wgpu HAL device from WGSL sources; [HostBuilder] produces descriptor-only
// entries for planning and testing without a GPU.
package pipeline
