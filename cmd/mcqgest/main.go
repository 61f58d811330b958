// Command mcqgest extracts multiple-choice questions from a scanned image or
// PDF and writes them out in one or more table formats.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"

	"github.com/dgallion1/mcqgest/internal/config"
	"github.com/dgallion1/mcqgest/internal/export"
	"github.com/dgallion1/mcqgest/internal/extract"
	"github.com/dgallion1/mcqgest/internal/mcq"
	"github.com/dgallion1/mcqgest/internal/pipeline"
	"github.com/dgallion1/mcqgest/internal/source"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], config.Load(), os.Stdout, os.Stderr))
}

// run returns the process exit code: 0 on success (including "no MCQs
// found"), 1 when the pipeline or any export failed, 2 on usage errors.
func run(ctx context.Context, args []string, base config.Config, stdout, stderr io.Writer) int {
	cli, err := config.ParseFlags(args, base, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cli.SlogLevel()}))

	doc, err := source.Open(cli.Input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	for _, f := range cli.Formats {
		if _, err := export.ForFormat(f, export.DefaultOptions()); err != nil {
			fmt.Fprintf(stderr, "Error: %v (supported: %s)\n", err, strings.Join(export.Formats(), ", "))
			return 2
		}
	}

	completer, err := extract.New(cli.Config, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	p := pipeline.New(
		source.NewRouter(source.OptionsFromConfig(cli.Config), logger),
		completer,
		pipeline.Options{MaxLen: cli.ChunkMaxLen, ContinueOnError: cli.ContinueOnError},
		logger,
	)
	return process(ctx, p, doc, cli, stdout, stderr)
}

// process runs the pipeline on doc and writes every requested format.
func process(ctx context.Context, p *pipeline.Pipeline, doc source.Document, cli *config.CLI, stdout, stderr io.Writer) int {
	res, err := p.Run(ctx, doc, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if ce, ok := pipeline.IsChunkError(err); ok {
			fmt.Fprintf(stderr, "Completion failed on chunk %d of %d; %d questions were extracted before it.\n",
				ce.Index+1, ce.Total, res.Table.Len())
		}
		return 1
	}

	if res.Empty() {
		if res.TextLength == 0 || res.Chunks == 0 {
			fmt.Fprintln(stdout, "No text found in the document.")
		} else {
			fmt.Fprintln(stdout, "No MCQs found in the document.")
		}
		return 0
	}

	fmt.Fprintf(stdout, "Extracted %d questions from %d chunk(s) via %s.\n", res.Table.Len(), res.Chunks, res.Method)
	for _, ce := range res.Failed {
		fmt.Fprintf(stdout, "Warning: %v\n", ce)
	}
	if cli.Preview {
		printPreview(stdout, res.Table)
	}

	name := cli.Base
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(doc.Name), filepath.Ext(doc.Name)) + "_mcqs"
	}
	if err := os.MkdirAll(cli.OutDir, 0o755); err != nil {
		fmt.Fprintf(stderr, "Error: create output directory: %v\n", err)
		return 1
	}

	failed := 0
	for _, r := range export.WriteFiles(cli.OutDir, name, cli.Formats, res.Table, export.DefaultOptions()) {
		if r.Err != nil {
			failed++
			fmt.Fprintf(stderr, "Error: %s export failed: %v\n", r.Format, r.Err)
			continue
		}
		fmt.Fprintf(stdout, "Wrote %s\n", r.Path)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// printPreview renders the table for the terminal.
func printPreview(w io.Writer, t mcq.Table) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(export.Headers(true))
	table.SetAutoWrapText(true)
	table.SetColWidth(40)
	table.SetRowLine(true)
	for _, r := range t.Records() {
		table.Append(export.Row(r, true))
	}
	table.Render()
}
