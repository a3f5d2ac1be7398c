package layout

import (
	"sort"
	"strings"
	"unicode"
)

// Glyph is a single positioned piece of text as reported by a PDF text
// extractor, already converted to top-left page coordinates. Box.Y1 is the
// baseline.
type Glyph struct {
	Text string
	Box  Rect
	Size float64 // font size in points
}

// Span is a run of glyphs printed without a visible gap. Spans sharing a Line
// key belong to the same printed line.
type Span struct {
	Text string `json:"text"`
	Box  Rect   `json:"box"`
	Line int    `json:"line"`
}

// TextLine is one printed line of text with the union box of its spans.
type TextLine struct {
	Text string `json:"text"`
	Box  Rect   `json:"box"`
}

// IndexOptions control how glyphs are grouped into spans and lines.
type IndexOptions struct {
	// RowTolerance is the maximum baseline difference, in points, for two
	// glyphs to share a row.
	RowTolerance float64
	// WordGap is the horizontal gap, as a fraction of the font size, above
	// which a new span starts.
	WordGap float64
	// ColumnGap is the horizontal gap, as a fraction of the font size, above
	// which a new line starts even though the baseline is shared.
	ColumnGap float64
}

// DefaultIndexOptions returns the grouping thresholds used by the service.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		RowTolerance: 2,
		WordGap:      0.25,
		ColumnGap:    2.5,
	}
}

const defaultGlyphSize = 12.0

// SpansFromGlyphs groups positioned glyphs into word spans and assigns each
// span a line key. Whitespace glyphs only separate spans and never appear in
// span text.
func SpansFromGlyphs(glyphs []Glyph, opts IndexOptions) []Span {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.Y1 < sorted[j].Box.Y1
	})

	var rows [][]Glyph
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].Box.Y1-sorted[start].Box.Y1 > opts.RowTolerance {
			row := sorted[start:i]
			sort.SliceStable(row, func(a, b int) bool { return row[a].Box.X0 < row[b].Box.X0 })
			rows = append(rows, row)
			start = i
		}
	}

	var (
		spans []Span
		line  int
	)
	for _, row := range rows {
		var (
			cur     strings.Builder
			box     Rect
			prev    *Glyph
			pending bool
		)
		flush := func() {
			if cur.Len() > 0 {
				spans = append(spans, Span{Text: cur.String(), Box: box, Line: line})
			}
			cur.Reset()
			box = Rect{}
		}

		for i := range row {
			g := &row[i]
			if strings.TrimFunc(g.Text, unicode.IsSpace) == "" {
				pending = true
				continue
			}

			if prev != nil {
				size := g.Size
				if size <= 0 {
					size = defaultGlyphSize
				}
				gap := g.Box.X0 - prev.Box.X1
				switch {
				case gap > opts.ColumnGap*size:
					flush()
					line++
				case pending || gap > opts.WordGap*size:
					flush()
				}
			}

			cur.WriteString(g.Text)
			box = box.Union(g.Box)
			prev = g
			pending = false
		}
		flush()
		line++
	}

	return spans
}

// IndexLines merges spans into printed lines. Span texts are joined with a
// single space, the line box is the union of the span boxes, and lines whose
// text is blank are dropped. The result is ordered top to bottom, then left
// to right.
func IndexLines(spans []Span) []TextLine {
	type acc struct {
		parts []string
		box   Rect
	}

	var order []int
	byLine := make(map[int]*acc)
	for _, s := range spans {
		a, ok := byLine[s.Line]
		if !ok {
			a = &acc{}
			byLine[s.Line] = a
			order = append(order, s.Line)
		}
		if t := strings.TrimSpace(s.Text); t != "" {
			a.parts = append(a.parts, t)
		}
		a.box = a.box.Union(s.Box)
	}

	lines := make([]TextLine, 0, len(order))
	for _, key := range order {
		a := byLine[key]
		text := strings.TrimSpace(strings.Join(a.parts, " "))
		if text == "" {
			continue
		}
		lines = append(lines, TextLine{Text: text, Box: a.box})
	}

	sortLines(lines)
	return lines
}

// ContextText joins the text of every span that intersects area, truncated
// to limit runes. A non-positive limit disables truncation.
func ContextText(area Rect, spans []Span, limit int) string {
	var parts []string
	for _, s := range spans {
		if s.Box.Intersects(area) {
			parts = append(parts, s.Text)
		}
	}
	return Truncate(strings.Join(parts, " "), limit)
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func sortLines(lines []TextLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Box.Y0 != lines[j].Box.Y0 {
			return lines[i].Box.Y0 < lines[j].Box.Y0
		}
		return lines[i].Box.X0 < lines[j].Box.X0
	})
}
