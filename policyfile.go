package sandbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// PolicyFormat identifies the encoding of a policy document.
type PolicyFormat int

const (
	// FormatJSON is JSON, with // and /* */ comments and trailing commas
	// tolerated (the settings-file dialect).
	FormatJSON PolicyFormat = iota

	// FormatYAML is YAML.
	FormatYAML
)

// String returns the string representation of a PolicyFormat.
func (f PolicyFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return unknownStr
	}
}

// ParsePolicy decodes a policy document. Unknown fields are ignored; absent
// fields keep their zero values, which behave as empty lists.
func ParsePolicy(data []byte, format PolicyFormat) (Policy, error) {
	var p Policy
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(jsonc.ToJSON(data), &p); err != nil {
			return Policy{}, fmt.Errorf("sandbox: parsing json policy: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Policy{}, fmt.Errorf("sandbox: parsing yaml policy: %w", err)
		}
	default:
		return Policy{}, fmt.Errorf("sandbox: unknown policy format %d", format)
	}
	return p, nil
}

// LoadPolicy reads and decodes a policy document from a file, choosing the
// format by extension: .json and .jsonc parse as JSON, .yaml and .yml as
// YAML. This only decodes the named file; discovering and layering policy
// files across directories is the caller's concern.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("sandbox: reading policy file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return ParsePolicy(data, FormatJSON)
	case ".yaml", ".yml":
		return ParsePolicy(data, FormatYAML)
	default:
		return Policy{}, fmt.Errorf("sandbox: unsupported policy file extension %q", filepath.Ext(path))
	}
}
