package sink

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/observability"
	"github.com/matzehuels/spacetime/pkg/render/nodelink"
	"github.com/matzehuels/spacetime/pkg/render/scene"
)

// Output formats accepted by [Render].
const (
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatPDF   = "pdf"
	FormatJSON  = "json"
	FormatText  = "txt"
	FormatDOT   = "dot"
	FormatGraph = "graph" // node-link SVG
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true, FormatPNG: true, FormatPDF: true, FormatJSON: true,
	FormatText: true, FormatDOT: true, FormatGraph: true,
}

// FormatNames returns the supported formats in a stable order.
func FormatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// ValidateFormats checks every entry of formats.
func ValidateFormats(formats []string) error {
	if len(formats) == 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "no output format given")
	}
	for _, f := range formats {
		if err := errors.ValidateFormat(f, ValidFormats); err != nil {
			return errors.New(errors.ErrCodeInvalidFormat,
				"invalid format: %s (must be one of %s)", f, strings.Join(FormatNames(), ", "))
		}
	}
	return nil
}

// Extension returns the file extension (without dot) for format.
func Extension(format string) string {
	if format == FormatGraph {
		return "graph.svg"
	}
	return format
}

// ContentType returns the MIME type served for format.
func ContentType(format string) string {
	switch format {
	case FormatSVG, FormatGraph:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Options carries per-format settings for [Render].
type Options struct {
	SVG      []SVGOption
	PNG      []PNGOption
	PDF      []PDFOption
	Detailed bool // node-link edge labels
}

// Render produces the artifact for format and reports it to the render
// hooks.
func Render(ctx context.Context, s scene.Scene, format string, opts Options) ([]byte, error) {
	if err := errors.ValidateFormat(format, ValidFormats); err != nil {
		return nil, err
	}

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()

	data, err := render(ctx, s, format, opts)

	hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return data, nil
}

func render(ctx context.Context, s scene.Scene, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return RenderSVG(s, opts.SVG...), nil
	case FormatPNG:
		return RenderPNG(s, opts.PNG...)
	case FormatPDF:
		return RenderPDF(s, opts.PDF...)
	case FormatJSON:
		return RenderJSON(s)
	case FormatText:
		return RenderText(s), nil
	case FormatDOT:
		return []byte(nodelink.ToDOT(s, nodelink.Options{Detailed: opts.Detailed})), nil
	case FormatGraph:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(s, nodelink.Options{Detailed: opts.Detailed}))
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
}
