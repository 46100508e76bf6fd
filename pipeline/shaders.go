package pipeline

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
)

// Embedded WGSL templates for the transfer shaders.

//go:embed shaders/clear_color.wgsl
var clearColorTemplate string

//go:embed shaders/clear_depth.wgsl
var clearDepthShaderSource string

//go:embed shaders/blit.wgsl
var blitTemplate string

//go:embed shaders/texel_copy.wgsl
var texelCopyTemplate string

var (
	clearColorTmpl = template.Must(template.New("clear_color").Parse(clearColorTemplate))
	blitTmpl       = template.Must(template.New("blit").Parse(blitTemplate))
	texelCopyTmpl  = template.Must(template.New("texel_copy").Parse(texelCopyTemplate))
)

// scalarType returns the WGSL channel type of f.
func scalarType(f format.Format) string {
	switch f.Info().Kind {
	case format.KindUint, format.KindDepthStencil:
		return "u32"
	case format.KindSint:
		return "i32"
	}
	return "f32"
}

func execute(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("pipeline: expand %s shader: %w", t.Name(), err)
	}
	return sb.String(), nil
}

// ClearColorSource returns the WGSL source of a color clear pipeline.
func ClearColorSource(k ClearColorKey) (string, error) {
	return execute(clearColorTmpl, struct {
		Scalar   string
		Location uint32
	}{scalarType(k.Format), k.RenderTarget})
}

// ClearDepthSource returns the WGSL source of a depth/stencil clear
// pipeline.
func ClearDepthSource(ClearDepthKey) (string, error) {
	return clearDepthShaderSource, nil
}

// BlitSource returns the WGSL source of a blit pipeline sampling a source
// of the given dimensionality.
func BlitSource(dim gputypes.TextureDimension, k BlitKey) (string, error) {
	src := k.SrcFormat
	if src == format.Undefined {
		src = k.DstFormat
	}
	srcScalar := scalarType(src)
	float := srcScalar == "f32"
	ms := k.SrcSamples > 1

	texType := fmt.Sprintf("texture_%s<%s>", dimName(dim), srcScalar)
	if ms {
		texType = fmt.Sprintf("texture_multisampled_2d<%s>", srcScalar)
	}

	var coord, fetch string
	switch dimIndex(dim) {
	case 0:
		coord = "in.uv.x"
		fetch = "let dims = f32(textureDimensions(src));\n" +
			"    return textureLoad(src, i32(in.uv.x * dims), i32(params.lod));"
	case 2:
		coord = "vec3<f32>(in.uv, params.layer)"
		fetch = "let dims = vec3<f32>(textureDimensions(src));\n" +
			"    return textureLoad(src, vec3<i32>(vec2<i32>(in.uv * dims.xy), i32(params.layer)), i32(params.lod));"
	default:
		coord = "in.uv"
		fetch = "let dims = vec2<f32>(textureDimensions(src));\n" +
			"    return textureLoad(src, vec2<i32>(in.uv * dims), i32(params.lod));"
	}

	return execute(blitTmpl, struct {
		TextureType  string
		Scalar       string
		Filtered     bool
		Resolve      bool
		Multisampled bool
		Samples      uint32
		Coord        string
		Fetch        string
	}{
		TextureType:  texType,
		Scalar:       scalarType(k.DstFormat),
		Filtered:     float && !ms,
		Resolve:      float && ms && k.DstSamples <= 1,
		Multisampled: ms,
		Samples:      k.SrcSamples,
		Coord:        coord,
		Fetch:        fetch,
	})
}

var swizzleTerms = [...]string{
	format.CompR:    "t.x",
	format.CompG:    "t.y",
	format.CompB:    "t.z",
	format.CompA:    "t.w",
	format.CompZero: "0u",
	format.CompOne:  "1u",
}

// TexelCopySource returns the WGSL source of a texel-buffer copy pipeline.
func TexelCopySource(k TexelCopyKey) (string, error) {
	info := k.Format.Info()
	if info.Channels == 0 || info.BlockBytes%info.Channels != 0 {
		return "", fmt.Errorf("pipeline: texel copy of %v: %w", k.Format, ErrUnsupportedFormat)
	}
	size := info.BlockBytes / info.Channels
	channels := make([]uint32, info.Channels)
	for i := range channels {
		channels[i] = uint32(i) * size
	}
	terms := make([]string, 4)
	for i, c := range k.Swizzle {
		terms[i] = swizzleTerms[c]
	}
	return execute(texelCopyTmpl, struct {
		TexelBytes   uint32
		ChannelBytes uint32
		Channels     []uint32
		Swizzle      string
	}{info.BlockBytes, size, channels, strings.Join(terms, ", ")})
}
