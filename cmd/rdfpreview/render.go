package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"

	"github.com/aleksaelezovic/rdfpreview/internal/fetch"
	"github.com/aleksaelezovic/rdfpreview/pkg/ingest"
	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
	"github.com/aleksaelezovic/rdfpreview/pkg/render"
)

type renderFlags struct {
	format   string
	encoding string
	html     bool
	color    bool
	watch    bool
}

func newRenderCmd(a *app) *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render <file|glob|url>...",
		Short: "Render RDF documents to stdout",
		Long: `Render RDF files, glob patterns (e.g. "data/**/*.ttl") or http(s) URLs.
Without --format the format of a file follows from its extension and the
format of a URL from its Content-Type.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("color") {
				f.color = a.cfg.Render.Color
			}
			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}
			r := &renderer{app: a, flags: f}
			if f.watch {
				return r.watch(cmd.Context(), cmd.OutOrStdout(), inputs)
			}
			return r.renderAll(cmd.Context(), cmd.OutOrStdout(), inputs)
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "input format name or media type")
	cmd.Flags().StringVarP(&f.encoding, "encoding", "e", "", "input character encoding (default: UTF-8 or the response charset)")
	cmd.Flags().BoolVar(&f.html, "html", false, "write an HTML fragment instead of text")
	cmd.Flags().BoolVar(&f.color, "color", false, "colour text output (default: render.color)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "re-render files when they change")
	return cmd
}

func isURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// expandInputs keeps URLs and plain paths and expands glob patterns, in
// argument order
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		if isURL(arg) || !strings.ContainsAny(arg, "*?[{") {
			inputs = append(inputs, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", arg)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("no files match %q", arg)
		}
		inputs = append(inputs, matches...)
	}
	return inputs, nil
}

type renderer struct {
	app   *app
	flags renderFlags
}

// renderAll renders inputs concurrently and writes them in argument
// order. Several inputs are each preceded by a "# input" header line.
func (r *renderer) renderAll(ctx context.Context, w io.Writer, inputs []string) error {
	outputs := make([][]byte, len(inputs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, input := range inputs {
		i, input := i, input
		eg.Go(func() error {
			out, err := r.renderOne(ctx, input)
			if err != nil {
				return errors.Wrap(err, input)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i, out := range outputs {
		if len(inputs) > 1 {
			if i > 0 {
				io.WriteString(w, "\n")
			}
			header := "# " + inputs[i] + "\n\n"
			if r.flags.html {
				header = "<!-- " + inputs[i] + " -->\n"
			}
			io.WriteString(w, header)
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	return nil
}

// source is an opened input ready for ingestion
type source struct {
	body      io.ReadCloser
	mediaType string
	enc       encoding.Encoding
	base      string
}

func (r *renderer) open(ctx context.Context, input string) (*source, error) {
	if isURL(input) {
		f := fetch.New(r.app.cfg.Fetch, fetch.WithLogger(r.app.component("fetch")))
		res, err := f.Fetch(ctx, input, fetch.Overrides{Format: r.flags.format, Encoding: r.flags.encoding})
		if err != nil {
			return nil, err
		}
		return &source{body: res.Body, mediaType: res.MediaType, enc: res.Encoding, base: input}, nil
	}

	var format rdf.Format
	var err error
	if r.flags.format != "" {
		format, err = rdf.ParseFormat(r.flags.format)
	} else {
		format, err = rdf.FormatForExtension(filepath.Ext(input))
	}
	if err != nil {
		return nil, err
	}
	var enc encoding.Encoding
	if r.flags.encoding != "" {
		if enc, err = fetch.Encoding(r.flags.encoding); err != nil {
			return nil, err
		}
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	return &source{body: file, mediaType: format.MediaType(), enc: enc, base: "file://" + filepath.ToSlash(abs)}, nil
}

func (r *renderer) renderOne(ctx context.Context, input string) ([]byte, error) {
	src, err := r.open(ctx, input)
	if err != nil {
		return nil, err
	}
	defer src.body.Close()

	log := r.app.component("ingest").WithField("input", input)
	coordinator := ingest.New(
		ingest.WithLogger(log),
		ingest.WithAdapterOptions(rdf.WithBaseIRI(src.base)),
	)
	stream := ingest.NewReaderStream(src.body, 0)
	ts, err := coordinator.Ingest(stream, src.enc, src.mediaType)
	if readErr := stream.Err(); readErr != nil {
		return nil, errors.Wrap(readErr, "reading input")
	}
	if err != nil {
		return nil, err
	}

	doc, err := render.New(render.WithLogger(r.app.component("render"))).Render(ts)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if r.flags.html {
		err = doc.WriteHTML(&out)
		out.WriteString("\n")
	} else {
		opts := []render.TextOption{render.WithColor(r.flags.color)}
		if r.app.cfg.Render.Indent == "nbsp" {
			opts = append(opts, render.WithNonBreakingIndent())
		}
		err = doc.WriteText(&out, opts...)
	}
	return out.Bytes(), err
}
