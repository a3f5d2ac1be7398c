package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// word lays s out one 6pt-wide, 12pt glyph per rune starting at x.
func word(s string, x, baseline float64) []Glyph {
	glyphs := make([]Glyph, 0, len(s))
	for _, r := range s {
		glyphs = append(glyphs, Glyph{
			Text: string(r),
			Box:  Rect{X0: x, Y0: baseline - 12, X1: x + 6, Y1: baseline},
			Size: 12,
		})
		x += 6
	}
	return glyphs
}

func concat(parts ...[]Glyph) []Glyph {
	var out []Glyph
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestSpansFromGlyphs(t *testing.T) {
	opts := DefaultIndexOptions()

	t.Run("space glyph splits spans on one line", func(t *testing.T) {
		spans := SpansFromGlyphs(word("Borrower Name:", 10, 100), opts)
		require.Len(t, spans, 2)
		assert.Equal(t, "Borrower", spans[0].Text)
		assert.Equal(t, "Name:", spans[1].Text)
		assert.Equal(t, spans[0].Line, spans[1].Line)
	})

	t.Run("small gap without space glyph starts a new span", func(t *testing.T) {
		spans := SpansFromGlyphs(concat(word("Total", 10, 100), word("Due", 45, 100)), opts)
		require.Len(t, spans, 2)
		assert.Equal(t, "Total", spans[0].Text)
		assert.Equal(t, "Due", spans[1].Text)
		assert.Equal(t, spans[0].Line, spans[1].Line)
	})

	t.Run("wide gap starts a new line", func(t *testing.T) {
		spans := SpansFromGlyphs(concat(word("Name:", 10, 100), word("Date:", 300, 100)), opts)
		require.Len(t, spans, 2)
		assert.NotEqual(t, spans[0].Line, spans[1].Line)
	})

	t.Run("baselines within tolerance share a row", func(t *testing.T) {
		spans := SpansFromGlyphs(concat(word("Total", 10, 100), word("Due", 45, 101.5)), opts)
		require.Len(t, spans, 2)
		assert.Equal(t, spans[0].Line, spans[1].Line)
	})

	t.Run("separate rows", func(t *testing.T) {
		spans := SpansFromGlyphs(concat(word("Second", 10, 130), word("First", 10, 100)), opts)
		require.Len(t, spans, 2)
		assert.Equal(t, "First", spans[0].Text)
		assert.Equal(t, "Second", spans[1].Text)
		assert.NotEqual(t, spans[0].Line, spans[1].Line)
	})

	t.Run("glyph order within a row follows x", func(t *testing.T) {
		glyphs := word("ab", 10, 100)
		glyphs[0], glyphs[1] = glyphs[1], glyphs[0]
		spans := SpansFromGlyphs(glyphs, opts)
		require.Len(t, spans, 1)
		assert.Equal(t, "ab", spans[0].Text)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SpansFromGlyphs(nil, opts))
	})
}

func TestIndexLines(t *testing.T) {
	t.Run("spans are joined and boxes unioned", func(t *testing.T) {
		spans := SpansFromGlyphs(word("Borrower Name:", 10, 100), DefaultIndexOptions())
		lines := IndexLines(spans)
		require.Len(t, lines, 1)
		assert.Equal(t, "Borrower Name:", lines[0].Text)
		assert.Equal(t, Rect{X0: 10, Y0: 88, X1: 10 + 14*6, Y1: 100}, lines[0].Box)
	})

	t.Run("blank lines are dropped", func(t *testing.T) {
		lines := IndexLines([]Span{
			{Text: "  ", Box: Rect{X0: 0, Y0: 0, X1: 5, Y1: 5}, Line: 1},
			{Text: "Amount", Box: Rect{X0: 0, Y0: 10, X1: 30, Y1: 20}, Line: 2},
		})
		require.Len(t, lines, 1)
		assert.Equal(t, "Amount", lines[0].Text)
	})

	t.Run("lines are ordered by position", func(t *testing.T) {
		lines := IndexLines([]Span{
			{Text: "Bottom", Box: Rect{X0: 0, Y0: 50, X1: 30, Y1: 60}, Line: 1},
			{Text: "Right", Box: Rect{X0: 100, Y0: 10, X1: 130, Y1: 20}, Line: 2},
			{Text: "Left", Box: Rect{X0: 0, Y0: 10, X1: 30, Y1: 20}, Line: 3},
		})
		require.Len(t, lines, 3)
		assert.Equal(t, []string{"Left", "Right", "Bottom"},
			[]string{lines[0].Text, lines[1].Text, lines[2].Text})
	})
}

func TestContextText(t *testing.T) {
	spans := []Span{
		{Text: "inside", Box: Rect{X0: 10, Y0: 10, X1: 40, Y1: 20}},
		{Text: "outside", Box: Rect{X0: 200, Y0: 200, X1: 240, Y1: 210}},
		{Text: "edge", Box: Rect{X0: 45, Y0: 10, X1: 70, Y1: 20}},
	}
	area := Rect{X0: 0, Y0: 0, X1: 50, Y1: 50}

	assert.Equal(t, "inside edge", ContextText(area, spans, 100))
	assert.Equal(t, "insi", ContextText(area, spans, 4))
	assert.Equal(t, "", ContextText(Rect{X0: 500, Y0: 500, X1: 600, Y1: 600}, spans, 100))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("é", 150)
	assert.Len(t, []rune(Truncate(long, 100)), 100)
	assert.Equal(t, "abc", Truncate("abc", 100))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
