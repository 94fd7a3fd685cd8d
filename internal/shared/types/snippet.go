package types

// Snippet is a canned source string from the demo catalog
type Snippet struct {
	ID          string   `json:"id" yaml:"id" toml:"id"`
	Title       string   `json:"title" yaml:"title" toml:"title"`
	Description string   `json:"description,omitempty" yaml:"description" toml:"description"`
	Profile     string   `json:"profile" yaml:"profile" toml:"profile"`
	Tags        []string `json:"tags,omitempty" yaml:"tags" toml:"tags"`
	Source      string   `json:"source" yaml:"source" toml:"source"`
}

// CatalogStats contains catalog statistics
type CatalogStats struct {
	TotalSnippets int            `json:"total_snippets"`
	ByProfile     map[string]int `json:"by_profile"`
}
