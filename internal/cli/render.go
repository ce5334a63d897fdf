package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spacetime/pkg/cache"
	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/render/scene"
	"github.com/matzehuels/spacetime/pkg/render/sink"
	"github.com/matzehuels/spacetime/pkg/scenario"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple outputs)
	formats  []string // output formats, see sink.FormatNames
	detailed bool     // γ and proper time on node-link edges
	title    string   // SVG title
	scale    float64  // PNG pixels per SVG unit
	report   bool     // append the physics report page to PDFs
	noCache  bool     // bypass the artifact cache
}

// renderCommand creates the render command, which replays a scenario file
// and writes the resulting diagram in one or more formats.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <scenario>",
		Short: "Replay a scenario and write the diagram",
		Long: `Replay a TOML or YAML scenario through the same pointer state machine as
the interactive front-ends and write the final diagram.

Placements outside the light cone are reported as warnings and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := sink.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): "+strings.Join(sink.FormatNames(), ", ")+" (comma-separated, default svg)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label node-link edges with γ and proper time")
	cmd.Flags().StringVar(&opts.title, "title", "", "SVG title")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG scale factor (default 2)")
	cmd.Flags().BoolVar(&opts.report, "report", false, "append a physics report page to PDF output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{sink.FormatSVG}
	}
	return strings.Split(s, ",")
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if sink.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath picks the file for format. A single format writes to -o as
// given; several formats share the base path.
func outputPath(opts *renderOpts, input, format string) string {
	if len(opts.formats) == 1 && opts.output != "" {
		return opts.output
	}
	return basePath(opts.output, input) + "." + sink.Extension(format)
}

func (o *renderOpts) sinkOptions() sink.Options {
	opts := sink.Options{Detailed: o.detailed}
	if o.title != "" {
		opts.SVG = append(opts.SVG, sink.WithTitle(o.title))
	}
	if o.scale > 0 {
		opts.PNG = append(opts.PNG, sink.WithScale(o.scale))
	}
	if o.report {
		opts.PDF = append(opts.PDF, sink.WithReport())
	}
	return opts
}

func (o *renderOpts) keyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Scale:    o.scale,
		Detailed: o.detailed,
		Title:    o.title,
		Report:   o.report,
	}
}

// runRender replays input and renders the final diagram to every requested
// format.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Replaying %s", input)
	prog := newProgress(logger)

	s, err := scenario.Load(input)
	if err != nil {
		return err
	}
	res, err := scenario.Replay(ctx, s)
	if err != nil {
		return err
	}
	for _, r := range res.Rejected {
		logger.Warn("Step rejected", "step", r.Index, "action", r.Step.String(), "reason", errors.UserMessage(r.Err))
	}
	prog.done(fmt.Sprintf("Replayed %d steps", len(s.Steps)))

	ch := cache.NewNullCache()
	if !opts.noCache {
		if ch, err = c.newCache(ctx); err != nil {
			return err
		}
	}
	defer ch.Close()

	sc := scene.Build(res.Diagram, scene.WithPitch(c.cfg.Pitch))
	hash := sc.Hash()
	keyer := cache.NewDefaultKeyer()
	sinkOpts := opts.sinkOptions()

	var paths []string
	for _, format := range opts.formats {
		data, err := cache.Fetch(ctx, ch, keyer.ArtifactKey(hash, opts.keyOpts(format)), "artifact", c.cfg.CacheTTL,
			func() ([]byte, error) {
				logger.Debugf("Rendering %s", format)
				return sink.Render(ctx, sc, format, sinkOpts)
			})
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}

		path := outputPath(opts, input, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debugf("Wrote %s: %d bytes", path, len(data))
		paths = append(paths, path)
	}

	printSuccess("Rendered %s", filepath.Base(input))
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Diagram.PointCount(), nonEmptyLines(res.Diagram), len(res.Rejected))
	return nil
}
