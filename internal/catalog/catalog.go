package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/engine/runner"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// DefaultPattern selects snippet files under a catalog directory.
const DefaultPattern = "**/*.{yaml,yml,toml,json}"

// MaxSnippets bounds the catalog size.
const MaxSnippets = 1000

var (
	// ErrSnippetNotFound is returned for unknown snippet ids
	ErrSnippetNotFound = errors.New("snippet not found")
	// ErrCatalogFull is returned when MaxSnippets is reached
	ErrCatalogFull = errors.New("catalog full")

	idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

//go:embed snippets
var builtin embed.FS

// Catalog holds canned snippets addressable by id
type Catalog struct {
	mu       sync.RWMutex
	snippets map[string]types.Snippet
	logger   *zap.Logger
}

// New creates an empty catalog
func New(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		snippets: make(map[string]types.Snippet),
		logger:   logger,
	}
}

// NewDefault creates a catalog seeded with the built-in demos
func NewDefault(logger *zap.Logger) (*Catalog, error) {
	c := New(logger)
	if _, err := c.LoadFS(builtin, "snippets/"+DefaultPattern); err != nil {
		return nil, fmt.Errorf("load built-in snippets: %w", err)
	}
	return c, nil
}

// Add validates and stores a snippet, replacing one with the same id
func (c *Catalog) Add(s types.Snippet) error {
	if err := Validate(s); err != nil {
		return err
	}
	if s.Profile == "" {
		s.Profile = runner.ScriptProfile.Name
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.snippets[s.ID]; !exists && len(c.snippets) >= MaxSnippets {
		return ErrCatalogFull
	}
	c.snippets[s.ID] = s
	return nil
}

// Get returns the snippet with the given id
func (c *Catalog) Get(id string) (types.Snippet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.snippets[id]
	if !ok {
		return types.Snippet{}, fmt.Errorf("%w: %s", ErrSnippetNotFound, id)
	}
	return s, nil
}

// List returns snippets sorted by id, optionally restricted to one profile
func (c *Catalog) List(profile string) []types.Snippet {
	c.mu.RLock()
	out := make([]types.Snippet, 0, len(c.snippets))
	for _, s := range c.snippets {
		if profile == "" || s.Profile == profile {
			out = append(out, s)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of snippets
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snippets)
}

// Stats returns catalog statistics
func (c *Catalog) Stats() types.CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := types.CatalogStats{
		TotalSnippets: len(c.snippets),
		ByProfile:     make(map[string]int),
	}
	for _, s := range c.snippets {
		stats.ByProfile[s.Profile]++
	}
	return stats
}

// LoadFS adds every file in fsys matching pattern. It returns the number of
// snippets loaded.
func (c *Catalog) LoadFS(fsys fs.FS, pattern string) (int, error) {
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return 0, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(matches)

	loaded := 0
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return loaded, fmt.Errorf("read %s: %w", name, err)
		}
		n, err := c.load(name, data)
		loaded += n
		if err != nil {
			return loaded, err
		}
	}
	return loaded, nil
}

// LoadDir walks dir and adds every file whose relative path matches
// pattern. Bad files are logged and skipped so one typo does not hide the
// rest of the catalog.
func (c *Catalog) LoadDir(dir, pattern string) (int, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return 0, fmt.Errorf("invalid pattern %q", pattern)
	}

	var (
		mu    sync.Mutex
		files []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); ok {
			mu.Lock()
			files = append(files, p)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)

	loaded, failed := 0, 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err == nil {
			var n int
			n, err = c.load(file, data)
			loaded += n
		}
		if err != nil {
			failed++
			c.logger.Warn("Skipping snippet file", zap.String("file", file), zap.Error(err))
		}
	}

	c.logger.Info("Catalog loaded",
		zap.String("dir", dir),
		zap.Int("snippets", loaded),
		zap.Int("failed_files", failed))
	return loaded, nil
}

func (c *Catalog) load(name string, data []byte) (int, error) {
	snippets, err := Parse(path.Ext(filepath.ToSlash(name)), data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	for i, s := range snippets {
		if err := c.Add(s); err != nil {
			return i, fmt.Errorf("%s: snippet %d: %w", name, i, err)
		}
	}
	return len(snippets), nil
}

// Validate checks a snippet's id, profile and source
func Validate(s types.Snippet) error {
	if !idPattern.MatchString(s.ID) {
		return fmt.Errorf("invalid snippet id %q", s.ID)
	}
	if strings.TrimSpace(s.Source) == "" {
		return fmt.Errorf("snippet %s has no source", s.ID)
	}
	if _, err := runner.LookupProfile(s.Profile); err != nil {
		return fmt.Errorf("snippet %s: %w", s.ID, err)
	}
	return nil
}
