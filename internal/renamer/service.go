// Package renamer runs the widget renaming pipelines over one document at a
// time and reports what happened to every widget.
package renamer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-widget-renamer/internal/layout"
	"github.com/a3tai/pdf-widget-renamer/internal/pdf"
	"github.com/a3tai/pdf-widget-renamer/internal/vocabulary"
)

// DefaultContextLimit is the maximum length, in runes, of MappingRecord.Context.
const DefaultContextLimit = 100

// Document is the part of a parsed PDF the pipelines need.
type Document interface {
	PageCount() int
	Widgets() ([]pdf.Widget, error)
	Glyphs(pageIndex int) ([]layout.Glyph, error)
	RenameWidget(w pdf.Widget, newName string) error
	Write(w io.Writer) error
	Close() error
}

// Opener parses raw bytes into a Document.
type Opener func(data []byte) (Document, error)

// OpenPDF is the Opener backed by the pdf package.
func OpenPDF(data []byte) (Document, error) {
	doc, err := pdf.Open(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Options tune the geometric heuristics.
type Options struct {
	Tolerances    layout.Tolerances
	Index         layout.IndexOptions
	ContextMargin float64 // points added around a widget when collecting context text
	ContextLimit  int     // runes
}

// DefaultOptions returns the thresholds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Tolerances:    layout.DefaultTolerances(),
		Index:         layout.DefaultIndexOptions(),
		ContextMargin: 30,
		ContextLimit:  DefaultContextLimit,
	}
}

// Result is a processed document: its report and the serialized PDF with
// every successful rename applied.
type Result struct {
	Report *Report
	PDF    []byte
}

// LabelRow is one widget with the label printed next to it.
type LabelRow struct {
	Page      int         `json:"page"`
	FieldName string      `json:"field_name"`
	Tooltip   string      `json:"tooltip"`
	Label     string      `json:"label"`
	Rect      layout.Rect `json:"rect"`
}

// Service processes documents. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	open     Opener
	resolver *vocabulary.Resolver
	matcher  *layout.Matcher
	opts     Options
	logger   *zap.Logger
}

// NewService creates a service resolving names against resolver. A nil
// logger disables logging.
func NewService(resolver *vocabulary.Resolver, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = vocabulary.NewResolver(nil)
	}
	return &Service{
		open:     OpenPDF,
		resolver: resolver,
		matcher:  layout.NewMatcher(opts.Tolerances),
		opts:     opts,
		logger:   logger,
	}
}

// Rename runs the full pipeline over data. If it fails for any reason other
// than unreadable input or cancellation, the simple pipeline is run on a
// freshly parsed copy. When both fail the errors are joined.
func (s *Service) Rename(ctx context.Context, data []byte) (*Result, error) {
	res, err := s.run(ctx, data, PipelineFull)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, pdf.ErrInvalidDocument) || ctx.Err() != nil {
		return nil, err
	}

	s.logger.Warn("full pipeline failed, falling back to simple pipeline", zap.Error(err))

	res, fallbackErr := s.run(ctx, data, PipelineSimple)
	if fallbackErr != nil {
		return nil, errors.Join(err, fallbackErr)
	}
	return res, nil
}

// ExtractLabels returns every widget with its matched label, without
// modifying the document.
func (s *Service) ExtractLabels(ctx context.Context, data []byte) (rows []LabelRow, err error) {
	doc, err := s.open(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	defer recoverPipeline(&err, "extract")

	widgets, err := doc.Widgets()
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}

	pages := newPageText(doc, s.opts.Index)
	rows = make([]LabelRow, 0, len(widgets))
	for _, w := range widgets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, lines, err := pages.get(w.PageIndex)
		if err != nil {
			return nil, err
		}
		label, _ := s.matcher.Match(w.Rect, lines)
		rows = append(rows, LabelRow{
			Page:      w.PageIndex + 1,
			FieldName: w.FieldName,
			Tooltip:   w.Tooltip,
			Label:     label,
			Rect:      w.Rect,
		})
	}
	return rows, nil
}

func (s *Service) run(ctx context.Context, data []byte, pipeline string) (res *Result, err error) {
	doc, err := s.open(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	defer recoverPipeline(&err, pipeline)

	widgets, err := doc.Widgets()
	if err != nil {
		return nil, fmt.Errorf("%s pipeline: list widgets: %w", pipeline, err)
	}

	agg := NewAggregator(pipeline)
	pages := newPageText(doc, s.opts.Index)

	for _, w := range widgets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := MappingRecord{
			Page:         w.PageIndex + 1,
			OriginalName: w.FieldName,
			NewName:      w.FieldName,
			Tooltip:      w.Tooltip,
		}

		// Context is best-effort in the simple pipeline.
		spans, lines, err := pages.get(w.PageIndex)
		switch {
		case err == nil:
			rec.Context = layout.ContextText(w.Rect.Expand(s.opts.ContextMargin), spans, s.opts.ContextLimit)
			if pipeline == PipelineFull {
				rec.Label, _ = s.matcher.Match(w.Rect, lines)
			}
		case pipeline == PipelineFull:
			return nil, fmt.Errorf("%s pipeline: %w", pipeline, err)
		default:
			s.logger.Debug("context unavailable", zap.Int("page", rec.Page), zap.Error(err))
		}

		agg.Add(rec, s.apply(doc, w, &rec))
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("%s pipeline: %w", pipeline, err)
	}

	report := agg.Report()
	s.logger.Debug("document processed",
		zap.String("pipeline", pipeline),
		zap.Int("widgets", report.TotalWidgets),
		zap.Int("renamed", report.SuccessfulRenames),
		zap.Int("failed", report.FailedRenames))

	return &Result{Report: report, PDF: buf.Bytes()}, nil
}

// apply resolves the widget name and performs the rename, updating rec.
func (s *Service) apply(doc Document, w pdf.Widget, rec *MappingRecord) Outcome {
	decision := s.resolver.Resolve(w.FieldName)
	rec.Reason = decision.Reason
	if decision.Action != vocabulary.Rename {
		return Unchanged
	}

	if err := doc.RenameWidget(w, decision.Name); err != nil {
		s.logger.Warn("rename failed",
			zap.Int("page", rec.Page),
			zap.String("field", w.FieldName),
			zap.String("target", decision.Name),
			zap.Error(err))
		rec.Error = err.Error()
		return RenameFailed
	}

	rec.NewName = decision.Name
	return Renamed
}

// pageText indexes each page's text once, on first use.
type pageText struct {
	doc   Document
	opts  layout.IndexOptions
	page  int
	spans []layout.Span
	lines []layout.TextLine
	err   error
}

func newPageText(doc Document, opts layout.IndexOptions) *pageText {
	return &pageText{doc: doc, opts: opts, page: -1}
}

func (p *pageText) get(pageIndex int) ([]layout.Span, []layout.TextLine, error) {
	if pageIndex != p.page {
		p.page = pageIndex
		p.spans, p.lines, p.err = nil, nil, nil

		glyphs, err := p.doc.Glyphs(pageIndex)
		if err != nil {
			p.err = fmt.Errorf("index text on page %d: %w", pageIndex+1, err)
		} else {
			p.spans = layout.SpansFromGlyphs(glyphs, p.opts)
			p.lines = layout.IndexLines(p.spans)
		}
	}
	return p.spans, p.lines, p.err
}

func recoverPipeline(err *error, pipeline string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s pipeline panicked: %v", pipeline, r)
	}
}
