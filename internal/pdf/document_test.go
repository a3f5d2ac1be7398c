package pdf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-widget-renamer/internal/layout"
	"github.com/a3tai/pdf-widget-renamer/internal/pdftest"
)

func loanForm() []byte {
	return pdftest.Build(pdftest.Page{
		Texts: []pdftest.Text{
			{X: 72, Y: 700, Size: 12, S: "Borrower Name:"},
			{X: 72, Y: 652, Size: 12, S: "Amount:"},
		},
		Fields: []pdftest.Field{
			{Name: "Text1", Rect: [4]float64{200, 698, 350, 710}},
			{Name: "amount", Tooltip: "Loan amount", Rect: [4]float64{200, 650, 350, 662}},
		},
	}, pdftest.Page{
		Fields: []pdftest.Field{
			{Rect: [4]float64{100, 100, 200, 120}},
		},
	})
}

func TestOpen_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not a pdf", data: []byte("hello world")},
		{name: "header only", data: []byte("%PDF-1.7\nthis is not a document\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Open(tt.data)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, ErrInvalidDocument), "got %v", err)

			var docErr *DocumentError
			assert.True(t, errors.As(err, &docErr))
			assert.Equal(t, "open", docErr.Op)
		})
	}
}

func TestDocument_Widgets(t *testing.T) {
	doc, err := Open(loanForm())
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 2, doc.PageCount())

	widgets, err := doc.Widgets()
	require.NoError(t, err)
	require.Len(t, widgets, 3)

	assert.Equal(t, 0, widgets[0].PageIndex)
	assert.Equal(t, "Text1", widgets[0].FieldName)
	assert.Equal(t, "", widgets[0].Tooltip)
	assert.Equal(t, layout.Rect{X0: 200, Y0: 82, X1: 350, Y1: 94}, widgets[0].Rect)

	assert.Equal(t, "amount", widgets[1].FieldName)
	assert.Equal(t, "Loan amount", widgets[1].Tooltip)

	assert.Equal(t, 1, widgets[2].PageIndex)
	assert.Equal(t, "", widgets[2].FieldName)
}

func TestDocument_Glyphs(t *testing.T) {
	doc, err := Open(loanForm())
	require.NoError(t, err)
	defer doc.Close()

	glyphs, err := doc.Glyphs(0)
	require.NoError(t, err)
	require.NotEmpty(t, glyphs)

	first := glyphs[0]
	assert.Equal(t, "B", first.Text)
	assert.Equal(t, 12.0, first.Size)
	assert.InDelta(t, 72, first.Box.X0, 0.001)
	assert.InDelta(t, 80, first.Box.Y0, 0.001)
	assert.InDelta(t, 92, first.Box.Y1, 0.001)

	lines := layout.IndexLines(layout.SpansFromGlyphs(glyphs, layout.DefaultIndexOptions()))
	require.Len(t, lines, 2)
	assert.Equal(t, "Borrower Name:", lines[0].Text)
	assert.Equal(t, "Amount:", lines[1].Text)

	empty, err := doc.Glyphs(1)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = doc.Glyphs(5)
	assert.Error(t, err)
}

func TestDocument_RenameAndWrite(t *testing.T) {
	doc, err := Open(loanForm())
	require.NoError(t, err)
	defer doc.Close()

	widgets, err := doc.Widgets()
	require.NoError(t, err)

	require.NoError(t, doc.RenameWidget(widgets[1], "Amount"))
	require.NoError(t, doc.RenameWidget(widgets[2], "Signature (Borrower)"))

	var out bytes.Buffer
	require.NoError(t, doc.Write(&out))

	reopened, err := Open(out.Bytes())
	require.NoError(t, err)
	defer reopened.Close()

	renamed, err := reopened.Widgets()
	require.NoError(t, err)
	require.Len(t, renamed, 3)
	assert.Equal(t, "Text1", renamed[0].FieldName)
	assert.Equal(t, "Amount", renamed[1].FieldName)
	assert.Equal(t, "Signature (Borrower)", renamed[2].FieldName)
}

func TestDocument_RenameHierarchicalField(t *testing.T) {
	parent := types.Dict{"T": types.StringLiteral("borrower")}
	owner := types.Dict{"T": types.StringLiteral("name"), "Parent": parent}
	doc := &Document{
		refs: []widgetRef{{annot: owner, owner: owner, prefix: "borrower"}},
	}
	w := Widget{FieldName: "borrower.name", handle: 1}

	err := doc.RenameWidget(w, "co_borrower.name")
	assert.True(t, errors.Is(err, ErrRenameUnsupported))

	err = doc.RenameWidget(w, "borrower.first.name")
	assert.True(t, errors.Is(err, ErrRenameUnsupported))

	require.NoError(t, doc.RenameWidget(w, "borrower.Name"))
	assert.Equal(t, types.StringLiteral("Name"), owner["T"])
}

func TestDocument_RenameUnknownWidget(t *testing.T) {
	doc := &Document{}
	err := doc.RenameWidget(Widget{FieldName: "x"}, "y")
	assert.True(t, errors.Is(err, ErrUnknownWidget))
}

func TestDocument_Closed(t *testing.T) {
	doc, err := Open(loanForm())
	require.NoError(t, err)
	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())

	_, err = doc.Widgets()
	assert.True(t, errors.Is(err, ErrDocumentClosed))
	_, err = doc.Glyphs(0)
	assert.True(t, errors.Is(err, ErrDocumentClosed))
	assert.True(t, errors.Is(doc.Write(&bytes.Buffer{}), ErrDocumentClosed))
	assert.True(t, errors.Is(doc.RenameWidget(Widget{handle: 1}, "x"), ErrDocumentClosed))
}

func TestEncodeTextString(t *testing.T) {
	assert.Equal(t, types.StringLiteral(`a\(b\)\\c`), encodeTextString(`a(b)\c`))
	assert.Equal(t, types.HexLiteral("feff00e9"), encodeTextString("é"))
}
