package vocabulary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	v := New([]string{"Amount", "BorrowerName", "Amount", "amount"})

	assert.Equal(t, 3, v.Len())
	assert.Equal(t, []string{"Amount", "BorrowerName", "amount"}, v.Names())
	assert.True(t, v.Contains("Amount"))
	assert.False(t, v.Contains("AMOUNT"))

	canonical, ok := v.Canonical("AMOUNT")
	require.True(t, ok)
	assert.Equal(t, "amount", canonical, "later casing wins")

	_, ok = v.Canonical("missing")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "list of strings", input: `["Amount", "BorrowerName"]`, want: []string{"Amount", "BorrowerName"}},
		{name: "widgetName records", input: `[{"widgetName": "Amount", "page": 1}]`, want: []string{"Amount"}},
		{name: "name records", input: `[{"name": "Rate"}]`, want: []string{"Rate"}},
		{name: "mixed", input: `["Amount", {"name": "Rate"}]`, want: []string{"Amount", "Rate"}},
		{name: "empty list", input: `[]`, want: nil},
		{name: "not json", input: `{{`, wantErr: true},
		{name: "object root", input: `{"names": ["a"]}`, wantErr: true},
		{name: "record without name", input: `[{"label": "a"}]`, wantErr: true},
		{name: "numeric entry", input: `[1, 2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Names())
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(`["Amount"]`), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte(`not json`), 0o600))

	t.Run("valid file", func(t *testing.T) {
		v := Load(good, zap.NewNop())
		assert.Equal(t, 1, v.Len())
	})

	t.Run("missing file degrades to empty", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		v := Load(filepath.Join(dir, "missing.json"), zap.New(core))
		assert.Equal(t, 0, v.Len())
		assert.Equal(t, 1, logs.FilterMessage("vocabulary file not found").Len())
	})

	t.Run("malformed file degrades to empty", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		v := Load(bad, zap.New(core))
		assert.Equal(t, 0, v.Len())
		assert.Equal(t, 1, logs.FilterMessage("unable to parse vocabulary").Len())
	})

	t.Run("no path", func(t *testing.T) {
		assert.Equal(t, 0, Load("", nil).Len())
	})
}
