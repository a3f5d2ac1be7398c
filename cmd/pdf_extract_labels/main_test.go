package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-widget-renamer/internal/export"
	"github.com/a3tai/pdf-widget-renamer/internal/pdftest"
)

func writeForms(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	form := pdftest.Build(pdftest.Page{
		Texts:  []pdftest.Text{{X: 72, Y: 700, Size: 12, S: "Borrower Name:"}},
		Fields: []pdftest.Field{{Name: "Text1", Tooltip: "Name", Rect: [4]float64{200, 698, 350, 710}}},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), form, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.PDF"), form, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("%PDF-1.7\nnope\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	return dir
}

func TestRun_CSV(t *testing.T) {
	dir := writeForms(t)
	out := filepath.Join(t.TempDir(), "labels.csv")

	err := run(context.Background(), options{dir: dir, output: out, logLevel: "info", maxFileSize: 1 << 20}, zap.NewNop())
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"file,field_name,tooltip,label\n"+
			"a.pdf,Text1,Name,Borrower Name:\n"+
			"sub/b.PDF,Text1,Name,Borrower Name:\n",
		string(data))
}

func TestRun_XLSX(t *testing.T) {
	dir := writeForms(t)
	out := filepath.Join(t.TempDir(), "labels.xlsx")

	err := run(context.Background(), options{dir: dir, output: out, maxFileSize: 1 << 20}, zap.NewNop())
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))
}

func TestRun_InvalidFormat(t *testing.T) {
	err := run(context.Background(), options{dir: t.TempDir(), output: "-", format: "json"}, zap.NewNop())
	assert.Error(t, err)
}

func TestFindPDFs_MissingDirectory(t *testing.T) {
	_, err := findPDFs(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestCollectRows_Empty(t *testing.T) {
	rows, err := collectRows(context.Background(), nil, nil, t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, []string{"file", "field_name", "tooltip", "label"}, export.Header)
}

type failingCloser struct {
	closed bool
}

func (f *failingCloser) Write(p []byte) (int, error) { return len(p), nil }

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("disk full")
}

func TestWriteRows_ReportsCloseError(t *testing.T) {
	w := &failingCloser{}
	err := writeRows(w, export.FormatCSV, []export.Row{{File: "a.pdf", FieldName: "Text1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, w.closed)
}
