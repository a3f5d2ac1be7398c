// Package vocabulary holds the canonical widget names a form family is
// expected to use, and the resolver that normalizes existing names against
// them.
package vocabulary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// schemaJSON accepts either a list of names or a list of records naming a
// widget through "widgetName" or "name".
const schemaJSON = `{
  "type": "array",
  "items": {
    "anyOf": [
      {"type": "string"},
      {
        "type": "object",
        "anyOf": [
          {"required": ["widgetName"], "properties": {"widgetName": {"type": "string"}}},
          {"required": ["name"], "properties": {"name": {"type": "string"}}}
        ]
      }
    ]
  }
}`

var schema = jsonschema.MustCompileString("vocabulary.json", schemaJSON)

// Vocabulary is an immutable set of canonical names. It is safe for
// concurrent use.
type Vocabulary struct {
	names []string
	exact map[string]struct{}
	lower map[string]string
}

// New builds a vocabulary from names, keeping their order. Duplicates are
// collapsed; when two names differ only in case, the later one is the
// canonical casing for case-insensitive lookups.
func New(names []string) *Vocabulary {
	v := &Vocabulary{
		exact: make(map[string]struct{}, len(names)),
		lower: make(map[string]string, len(names)),
	}
	for _, name := range names {
		if _, seen := v.exact[name]; !seen {
			v.names = append(v.names, name)
			v.exact[name] = struct{}{}
		}
		v.lower[strings.ToLower(name)] = name
	}
	return v
}

// Empty returns a vocabulary with no names.
func Empty() *Vocabulary {
	return New(nil)
}

// Parse decodes a serialized vocabulary after checking it against the
// vocabulary schema.
func Parse(data []byte) (*Vocabulary, error) {
	var doc any
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("vocabulary does not match schema: %w", err)
	}

	items, _ := doc.([]any)
	names := make([]string, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case string:
			names = append(names, it)
		case map[string]any:
			if name, ok := it["widgetName"].(string); ok {
				names = append(names, name)
			} else if name, ok := it["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return New(names), nil
}

// Load reads the vocabulary at path. A missing or malformed file is logged
// and yields an empty vocabulary, so resolution becomes a no-op instead of
// failing startup.
func Load(path string, logger *zap.Logger) *Vocabulary {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		logger.Info("no vocabulary configured, names will pass through unchanged")
		return Empty()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("vocabulary file not found", zap.String("path", path))
		} else {
			logger.Warn("unable to read vocabulary", zap.String("path", path), zap.Error(err))
		}
		return Empty()
	}

	v, err := Parse(data)
	if err != nil {
		logger.Warn("unable to parse vocabulary", zap.String("path", path), zap.Error(err))
		return Empty()
	}

	logger.Info("vocabulary loaded", zap.String("path", path), zap.Int("names", v.Len()))
	return v
}

// Len returns the number of distinct names.
func (v *Vocabulary) Len() int {
	return len(v.names)
}

// Contains reports whether name is in the vocabulary exactly as given.
func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.exact[name]
	return ok
}

// Canonical returns the vocabulary entry equal to name ignoring case.
func (v *Vocabulary) Canonical(name string) (string, bool) {
	canonical, ok := v.lower[strings.ToLower(name)]
	return canonical, ok
}

// Names returns a copy of the names in load order.
func (v *Vocabulary) Names() []string {
	return append([]string(nil), v.names...)
}
