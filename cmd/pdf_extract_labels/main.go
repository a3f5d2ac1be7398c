package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-widget-renamer/internal/export"
	"github.com/a3tai/pdf-widget-renamer/internal/logger"
	"github.com/a3tai/pdf-widget-renamer/internal/pdf"
	"github.com/a3tai/pdf-widget-renamer/internal/renamer"
)

type options struct {
	dir         string
	output      string
	format      string
	logLevel    string
	maxFileSize int64
}

func main() {
	opts := options{}
	flags := pflag.NewFlagSet("pdf_extract_labels", pflag.ExitOnError)
	flags.StringVar(&opts.dir, "dir", ".", "Directory searched recursively for PDF files")
	flags.StringVarP(&opts.output, "output", "o", "labels.csv", "Output file, '-' for stdout")
	flags.StringVar(&opts.format, "format", "", "Output format: csv or xlsx (default from the output extension)")
	flags.StringVar(&opts.logLevel, "loglevel", "info", "Log level (debug, info, warn, error)")
	flags.Int64Var(&opts.maxFileSize, "maxfilesize", 100*1024*1024, "Maximum PDF file size in bytes")
	flags.Usage = printUsage(flags)
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() > 0 {
		opts.dir = flags.Arg(0)
	}

	log, err := logger.New(opts.logLevel, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync(log)

	if err := run(context.Background(), opts, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync(log)
		os.Exit(1)
	}
}

func printUsage(flags *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintln(os.Stderr, "PDF Extract Labels - list every form field of a directory of PDFs with its printed label")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "USAGE:")
		fmt.Fprintln(os.Stderr, "  pdf_extract_labels [OPTIONS] [directory]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "OPTIONS:")
		flags.PrintDefaults()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "EXAMPLES:")
		fmt.Fprintln(os.Stderr, "  pdf_extract_labels forms/")
		fmt.Fprintln(os.Stderr, "  pdf_extract_labels --output labels.xlsx forms/")
		fmt.Fprintln(os.Stderr, "  pdf_extract_labels -o - forms/ | column -s, -t")
	}
}

func run(ctx context.Context, opts options, log *zap.Logger) error {
	format := opts.format
	if format == "" {
		format = export.FormatFromPath(opts.output)
	}
	if format != export.FormatCSV && format != export.FormatXLSX {
		return fmt.Errorf("unsupported format %q (must be csv or xlsx)", format)
	}

	service := renamer.NewService(nil, renamer.DefaultOptions(), log)
	rows, err := collectRows(ctx, service, pdf.NewValidator(opts.maxFileSize), opts.dir, log)
	if err != nil {
		return err
	}

	if opts.output == "-" {
		if err := export.Write(os.Stdout, format, rows); err != nil {
			return err
		}
	} else {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		if err := writeRows(f, format, rows); err != nil {
			return err
		}
	}
	log.Info("labels written", zap.String("output", opts.output), zap.Int("rows", len(rows)))
	return nil
}

// writeRows writes rows to w and closes it. A failed close is reported, since
// buffered output may not have reached the file.
func writeRows(w io.WriteCloser, format string, rows []export.Row) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return export.Write(w, format, rows)
}

// collectRows extracts labels from every PDF under dir, in path order. Files
// that cannot be read are logged and skipped.
func collectRows(ctx context.Context, service *renamer.Service, validator *pdf.Validator,
	dir string, log *zap.Logger,
) ([]export.Row, error) {
	paths, err := findPDFs(dir)
	if err != nil {
		return nil, err
	}

	rows := make([]export.Row, 0)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := validator.ReadFile(path)
		if err != nil {
			log.Warn("skipping file", zap.String("file", path), zap.Error(err))
			continue
		}

		labels, err := service.ExtractLabels(ctx, data)
		if err != nil {
			log.Warn("skipping file", zap.String("file", path), zap.Error(err))
			continue
		}

		name, err := filepath.Rel(dir, path)
		if err != nil {
			name = path
		}
		for _, l := range labels {
			rows = append(rows, export.Row{
				File:      filepath.ToSlash(name),
				FieldName: l.FieldName,
				Tooltip:   l.Tooltip,
				Label:     l.Label,
			})
		}
		log.Debug("file processed", zap.String("file", name), zap.Int("fields", len(labels)))
	}
	return rows, nil
}

func findPDFs(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
