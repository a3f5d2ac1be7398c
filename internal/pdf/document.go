// Package pdf adapts the PDF libraries to the widget renamer: pdfcpu owns the
// document model (widget annotations, field renames, serialization) and
// ledongthuc/pdf supplies positioned text. Geometry leaves this package in
// layout's top-left coordinate space.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/pdf-widget-renamer/internal/layout"
)

// US Letter, used when a page carries no usable MediaBox.
var defaultPageBox = pageBox{urx: 612, ury: 792}

// defaultGlyphSize stands in for text drawn with a zero font size, since
// ledongthuc does not report glyph heights.
const defaultGlyphSize = 12.0

type pageBox struct {
	llx, lly, urx, ury float64
}

// toLayout converts two PDF user-space corners into a top-left origin Rect.
func (b pageBox) toLayout(x0, y0, x1, y1 float64) layout.Rect {
	return layout.NewRect(x0-b.llx, b.ury-y0, x1-b.llx, b.ury-y1)
}

// Document is a PDF loaded fully into memory. It is not safe for concurrent
// use; each request opens its own Document.
type Document struct {
	data    []byte
	ctx     *model.Context
	text    *pdf.Reader
	boxes   []pageBox
	widgets []Widget
	refs    []widgetRef
	closed  bool
}

// Open parses data with pdfcpu. Inputs pdfcpu cannot read are reported as
// ErrInvalidDocument.
func Open(data []byte) (doc *Document, err error) {
	defer recoverInto(&err, "open", 0, ErrInvalidDocument)

	if err := NewValidator(0).ValidateBytes(data); err != nil {
		return nil, &DocumentError{Op: "open", Err: err}
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &DocumentError{Op: "open", Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &DocumentError{Op: "open", Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
	}

	boxes := make([]pageBox, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		_, _, inherited, err := ctx.PageDict(pageNr, false)
		if err != nil {
			return nil, &DocumentError{Op: "open", Page: pageNr, Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
		}
		box := defaultPageBox
		if inherited != nil && inherited.MediaBox != nil {
			mb := inherited.MediaBox
			box = pageBox{llx: mb.LL.X, lly: mb.LL.Y, urx: mb.UR.X, ury: mb.UR.Y}
		}
		boxes = append(boxes, box)
	}

	return &Document{
		data:  data,
		ctx:   ctx,
		boxes: boxes,
	}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.boxes)
}

// Glyphs returns the positioned text of a page (0-based index).
func (d *Document) Glyphs(pageIndex int) (glyphs []layout.Glyph, err error) {
	if d.closed {
		return nil, &DocumentError{Op: "extract_text", Err: ErrDocumentClosed}
	}
	if pageIndex < 0 || pageIndex >= len(d.boxes) {
		return nil, &DocumentError{
			Op:  "extract_text",
			Err: fmt.Errorf("invalid page index %d (document has %d pages)", pageIndex, len(d.boxes)),
		}
	}
	defer recoverInto(&err, "extract_text", pageIndex+1, nil)

	if d.text == nil {
		reader, err := pdf.NewReader(bytes.NewReader(d.data), int64(len(d.data)))
		if err != nil {
			return nil, &DocumentError{Op: "extract_text", Err: err}
		}
		d.text = reader
	}

	page := d.text.Page(pageIndex + 1)
	if page.V.IsNull() {
		return nil, nil
	}

	box := d.boxes[pageIndex]
	content := page.Content()
	glyphs = make([]layout.Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		size := math.Abs(t.FontSize)
		if size == 0 {
			size = defaultGlyphSize
		}
		glyphs = append(glyphs, layout.Glyph{
			Text: t.S,
			Box:  box.toLayout(t.X, t.Y, t.X+t.W, t.Y+size),
			Size: size,
		})
	}

	return glyphs, nil
}

// Write serializes the document, including any renames, to w.
func (d *Document) Write(w io.Writer) (err error) {
	if d.closed {
		return &DocumentError{Op: "write", Err: ErrDocumentClosed}
	}
	defer recoverInto(&err, "write", 0, nil)

	if err := api.WriteContext(d.ctx, w); err != nil {
		return &DocumentError{Op: "write", Err: err}
	}
	return nil
}

// Close releases the parsed document. It is safe to call more than once.
func (d *Document) Close() error {
	d.closed = true
	d.ctx = nil
	d.text = nil
	d.data = nil
	d.refs = nil
	d.widgets = nil
	return nil
}

// recoverInto turns a panic raised inside a PDF library into a DocumentError
// stored in *err. When base is non-nil the error wraps it.
func recoverInto(err *error, op string, page int, base error) {
	r := recover()
	if r == nil {
		return
	}
	cause := fmt.Errorf("recovered from panic: %v", r)
	if base != nil {
		cause = fmt.Errorf("%w: %v", base, cause)
	}
	*err = &DocumentError{Op: op, Page: page, Err: cause}
}
