package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-widget-renamer/internal/pdftest"
)

func TestValidator_ValidateBytes(t *testing.T) {
	v := NewValidator(1024)

	assert.True(t, errors.Is(v.ValidateBytes(nil), ErrInvalidDocument))
	assert.True(t, errors.Is(v.ValidateBytes([]byte("PK\x03\x04")), ErrInvalidDocument))
	assert.NoError(t, v.ValidateBytes([]byte("%PDF-1.4\n")))

	big := append([]byte("%PDF-1.4\n"), make([]byte, 2048)...)
	err := v.ValidateBytes(big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
	assert.False(t, errors.Is(err, ErrInvalidDocument))
}

func TestValidator_ReadFile(t *testing.T) {
	dir := t.TempDir()
	v := NewValidator(1 << 20)

	pdfPath := filepath.Join(dir, "form.pdf")
	require.NoError(t, os.WriteFile(pdfPath, pdftest.Build(pdftest.Page{}), 0o600))

	data, err := v.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("hello"), 0o600))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "empty path", path: "", wantErr: "path cannot be empty"},
		{name: "missing file", path: filepath.Join(dir, "missing.pdf"), wantErr: "does not exist"},
		{name: "directory", path: dir, wantErr: "is a directory"},
		{name: "wrong extension", path: txtPath, wantErr: "not a PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ReadFile(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
