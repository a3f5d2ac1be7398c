package pdf

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdf-widget-renamer/internal/layout"
)

// maxFieldDepth bounds the /Parent walk so malformed cyclic field trees
// terminate.
const maxFieldDepth = 32

// Widget is one form-field widget annotation on a page.
type Widget struct {
	PageIndex int         `json:"page_index"` // 0-based
	FieldName string      `json:"field_name"` // fully qualified, empty if unset
	Tooltip   string      `json:"tooltip"`
	Rect      layout.Rect `json:"rect"`

	// handle is the 1-based index into Document.refs.
	handle int
}

type widgetRef struct {
	annot  types.Dict
	owner  types.Dict // dictionary carrying the terminal /T, nil if unnamed
	prefix string     // qualified name of the ancestors of owner
}

// Widgets enumerates every widget annotation in page order, then in /Annots
// order. Nothing is skipped or deduplicated: kids of one field each produce
// their own Widget.
func (d *Document) Widgets() ([]Widget, error) {
	if d.closed {
		return nil, &DocumentError{Op: "widgets", Err: ErrDocumentClosed}
	}
	if d.widgets != nil {
		return append([]Widget(nil), d.widgets...), nil
	}

	widgets := make([]Widget, 0)
	refs := make([]widgetRef, 0)

	for pageNr := 1; pageNr <= len(d.boxes); pageNr++ {
		pageDict, _, _, err := d.ctx.PageDict(pageNr, false)
		if err != nil {
			return nil, &DocumentError{Op: "widgets", Page: pageNr, Err: err}
		}

		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}

		annots, err := d.ctx.DereferenceArray(annotsObj)
		if err != nil {
			return nil, &DocumentError{Op: "widgets", Page: pageNr, Err: fmt.Errorf("failed to dereference Annots: %w", err)}
		}

		for _, obj := range annots {
			annot, err := d.ctx.DereferenceDict(obj)
			if err != nil || annot == nil || !d.isWidget(annot) {
				continue
			}

			ref, name, tooltip := d.resolveField(annot)
			refs = append(refs, ref)
			widgets = append(widgets, Widget{
				PageIndex: pageNr - 1,
				FieldName: name,
				Tooltip:   tooltip,
				Rect:      d.widgetRect(annot, d.boxes[pageNr-1]),
				handle:    len(refs),
			})
		}
	}

	d.widgets = widgets
	d.refs = refs
	return append([]Widget(nil), widgets...), nil
}

// RenameWidget sets the terminal partial name of the widget's field so that
// its fully qualified name becomes newName. Fields nested under named parents
// can only be renamed within the same parent.
func (d *Document) RenameWidget(w Widget, newName string) error {
	if d.closed {
		return &DocumentError{Op: "rename", Err: ErrDocumentClosed}
	}
	if w.handle < 1 || w.handle > len(d.refs) {
		return &DocumentError{Op: "rename", Page: w.PageIndex + 1, Err: ErrUnknownWidget}
	}
	ref := d.refs[w.handle-1]

	partial := newName
	if ref.prefix != "" {
		if !strings.HasPrefix(newName, ref.prefix+".") {
			return &DocumentError{
				Op:   "rename",
				Page: w.PageIndex + 1,
				Err:  fmt.Errorf("%w: %q is not under parent field %q", ErrRenameUnsupported, newName, ref.prefix),
			}
		}
		partial = strings.TrimPrefix(newName, ref.prefix+".")
	}
	if partial == "" || strings.Contains(partial, ".") {
		return &DocumentError{
			Op:   "rename",
			Page: w.PageIndex + 1,
			Err:  fmt.Errorf("%w: invalid partial name %q", ErrRenameUnsupported, partial),
		}
	}

	target := ref.owner
	if target == nil {
		target = ref.annot
	}
	target["T"] = encodeTextString(partial)

	if d.widgets != nil {
		d.widgets[w.handle-1].FieldName = newName
	}
	return nil
}

func (d *Document) isWidget(annot types.Dict) bool {
	subtypeObj, found := annot.Find("Subtype")
	if !found {
		return false
	}
	subtype, err := d.ctx.DereferenceName(subtypeObj, model.V10, nil)
	if err != nil {
		return false
	}
	return subtype == "Widget"
}

// resolveField walks from the widget annotation up the /Parent chain,
// collecting partial names and the nearest tooltip.
func (d *Document) resolveField(annot types.Dict) (widgetRef, string, string) {
	ref := widgetRef{annot: annot}

	var (
		ownerName string
		ancestors []string
		tooltip   string
	)

	dict := annot
	for depth := 0; dict != nil && depth < maxFieldDepth; depth++ {
		if nameObj, found := dict.Find("T"); found {
			if name, err := d.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
				if ref.owner == nil {
					ref.owner = dict
					ownerName = name
				} else if name != "" {
					ancestors = append([]string{name}, ancestors...)
				}
			}
		}

		if tooltip == "" {
			if tuObj, found := dict.Find("TU"); found {
				if tu, err := d.ctx.DereferenceStringOrHexLiteral(tuObj, model.V10, nil); err == nil {
					tooltip = tu
				}
			}
		}

		parentObj, found := dict.Find("Parent")
		if !found {
			break
		}
		parent, err := d.ctx.DereferenceDict(parentObj)
		if err != nil {
			break
		}
		dict = parent
	}

	ref.prefix = strings.Join(ancestors, ".")

	parts := ancestors
	if ownerName != "" {
		parts = append(append([]string(nil), ancestors...), ownerName)
	}
	return ref, strings.Join(parts, "."), tooltip
}

// widgetRect parses /Rect into page layout coordinates. A missing or
// malformed rectangle yields the zero Rect.
func (d *Document) widgetRect(annot types.Dict, box pageBox) layout.Rect {
	rectObj, found := annot.Find("Rect")
	if !found {
		return layout.Rect{}
	}

	rectArray, err := d.ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return layout.Rect{}
	}

	coords := make([]float64, 4)
	for i, coord := range rectArray {
		if f, err := d.ctx.DereferenceNumber(coord); err == nil {
			coords[i] = f
		}
	}

	return box.toLayout(coords[0], coords[1], coords[2], coords[3])
}

// encodeTextString encodes s as a PDF text string: a literal string when it
// is printable ASCII, UTF-16BE with a byte order mark otherwise.
func encodeTextString(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			ascii = false
			break
		}
	}
	if ascii {
		escaper := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
		return types.StringLiteral(escaper.Replace(s))
	}

	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, 2+2*len(units))
	b = append(b, 0xFE, 0xFF)
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(b))
}
