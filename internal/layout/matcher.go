package layout

import (
	"math"
	"strings"
)

// Tolerances are the geometric thresholds, in points, used by Matcher.
type Tolerances struct {
	// SameRow is the maximum distance between a line's bottom edge and the
	// widget's top edge for the line to count as sitting on the widget's row.
	SameRow float64 `json:"same_row"`
	// Center is the maximum distance between the vertical centers of a line
	// and the widget for the line to count as sitting on the widget's row.
	// It catches labels beside widgets taller than SameRow.
	Center float64 `json:"center"`
	// Align is the maximum difference between the left edges of a line and
	// the widget for the line to count as a column header above the widget.
	Align float64 `json:"align"`
}

// DefaultTolerances returns thresholds tuned for US Letter forms.
func DefaultTolerances() Tolerances {
	return Tolerances{SameRow: 12, Center: 5, Align: 5}
}

// Matcher picks the printed line that labels a widget.
//
// A line qualifies in one of two ways:
//   - same row, to the left: it ends before the widget starts and either its
//     bottom edge is within SameRow of the widget's top edge or its vertical
//     center is within Center of the widget's; scored by the horizontal gap.
//   - directly above: it ends above the widget's top edge and its left edge is
//     within Align of the widget's; scored by the vertical gap.
//
// The lowest score wins. Scores of the two kinds are compared as-is.
type Matcher struct {
	tol Tolerances
}

// NewMatcher creates a matcher with the given tolerances.
func NewMatcher(tol Tolerances) *Matcher {
	return &Matcher{tol: tol}
}

// Match returns the cleaned text of the best label line for widget, or false
// when no line qualifies. Lines are evaluated top to bottom, left to right,
// and the first line seen wins a tie.
func (m *Matcher) Match(widget Rect, lines []TextLine) (string, bool) {
	if len(lines) == 0 || widget.IsEmpty() {
		return "", false
	}

	ordered := make([]TextLine, len(lines))
	copy(ordered, lines)
	sortLines(ordered)

	var (
		best   *TextLine
		metric = math.Inf(1)
	)
	for i := range ordered {
		line := &ordered[i]
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		box := line.Box

		if box.X1 < widget.X0 && m.sameRow(box, widget) {
			if dx := widget.X0 - box.X1; dx < metric {
				best, metric = line, dx
			}
		} else if box.Y1 < widget.Y0 && math.Abs(box.X0-widget.X0) < m.tol.Align {
			if dy := widget.Y0 - box.Y1; dy < metric {
				best, metric = line, dy
			}
		}
	}

	if best == nil {
		return "", false
	}
	label := CleanLabel(best.Text)
	return label, label != ""
}

func (m *Matcher) sameRow(line, widget Rect) bool {
	return math.Abs(line.Y1-widget.Y0) < m.tol.SameRow ||
		math.Abs(line.CenterY()-widget.CenterY()) < m.tol.Center
}

// CleanLabel replaces commas with spaces and trims the result so the label
// can be written to a CSV column as-is.
func CleanLabel(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", " "))
}
