package catalog

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// file is the on-disk layout shared by every catalog format
type file struct {
	Snippets []types.Snippet `json:"snippets" yaml:"snippets" toml:"snippets"`
}

// Parse decodes a catalog file. ext selects the format (".yaml", ".yml",
// ".toml" or ".json").
func Parse(ext string, data []byte) ([]types.Snippet, error) {
	var f file
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case ".json":
		if err := sonic.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	return f.Snippets, nil
}

// Marshal encodes snippets in the given format
func Marshal(ext string, snippets []types.Snippet) ([]byte, error) {
	f := file{Snippets: snippets}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Marshal(f)
	case ".toml":
		return toml.Marshal(f)
	case ".json":
		return sonic.MarshalIndent(f, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
}
