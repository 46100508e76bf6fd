package pipeline

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
)

func TestClearColorSource(t *testing.T) {
	src, err := ClearColorSource(ClearColorKey{RenderTarget: 2, Format: format.RGBA16Uint})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "vec4<u32>") || !strings.Contains(src, "@location(2)") {
		t.Errorf("integer clear source:\n%s", src)
	}
}

func TestBlitSourceVariants(t *testing.T) {
	tests := []struct {
		name string
		dim  gputypes.TextureDimension
		key  BlitKey
		want []string
	}{
		{"filtered 2d", gputypes.TextureDimension2D,
			BlitKey{DstFormat: format.RGBA8Unorm, SrcSamples: 1, DstSamples: 1},
			[]string{"texture_2d<f32>", "textureSampleLevel", "src_sampler"}},
		{"integer 3d", gputypes.TextureDimension3D,
			BlitKey{DstFormat: format.RGBA8Uint, SrcSamples: 1, DstSamples: 1},
			[]string{"texture_3d<u32>", "textureLoad", "vec3<i32>"}},
		{"resolve", gputypes.TextureDimension2D,
			BlitKey{DstFormat: format.RGBA8Unorm, SrcSamples: 4, DstSamples: 1},
			[]string{"texture_multisampled_2d<f32>", "i < 4", "/ 4.0"}},
		{"integer resolve", gputypes.TextureDimension2D,
			BlitKey{DstFormat: format.R32Uint, SrcSamples: 4, DstSamples: 1},
			[]string{"texture_multisampled_2d<u32>", "textureLoad(src, vec2<i32>(in.uv * dims), 0)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := BlitSource(tt.dim, tt.key)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(src, w) {
					t.Errorf("source lacks %q:\n%s", w, src)
				}
			}
			if tt.name != "filtered 2d" && strings.Contains(src, "sampler") {
				t.Errorf("unfiltered source declares a sampler:\n%s", src)
			}
		})
	}
}

func TestTexelCopySource(t *testing.T) {
	src, err := TexelCopySource(TexelCopyKey{
		Format:  format.RGBA8Uint,
		Swizzle: format.Swizzle{format.CompG, format.CompB, format.CompA, format.CompZero},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{"vec4<u32>(t.y, t.z, t.w, 0u)", "x * 4u", "t[3] = fetch_channel(base + 3u)"} {
		if !strings.Contains(src, w) {
			t.Errorf("source lacks %q:\n%s", w, src)
		}
	}
	if _, err := TexelCopySource(TexelCopyKey{Format: format.RGB565Unorm, Swizzle: format.Identity}); err == nil {
		t.Error("packed 565 texel copy accepted")
	}
}

func TestCompileSPIRV(t *testing.T) {
	src, err := ClearColorSource(ClearColorKey{Format: format.RGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	words, err := CompileSPIRV(src)
	if err != nil {
		t.Fatalf("CompileSPIRV: %v", err)
	}
	const spirvMagic = 0x07230203
	if len(words) == 0 || words[0] != spirvMagic {
		t.Errorf("not a SPIR-V module: %d words", len(words))
	}
}
