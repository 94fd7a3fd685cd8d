package sink

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// DefaultMaxEntries matches the console cap of the demo pages
const DefaultMaxEntries = 100

// DefaultBanner is re-seeded on every Clear
var DefaultBanner = []string{
	"// JavaScript ES6+ Demo Console",
	"// Console cleared! Ready for new demos.",
}

// Surface renders sink changes to a UI. Implementations must not block for
// long; they are called with the sink lock released.
type Surface interface {
	Append(entry types.LogEntry)
	Reset(banner []string)
	SetVisible(visible bool)
}

// Observer receives bookkeeping callbacks, typically metrics
type Observer interface {
	EntryAppended(kind types.Kind)
	EntriesEvicted(n int)
}

// Config defines sink configuration
type Config struct {
	MaxEntries int
	Banner     []string
	Observer   Observer
}

// DefaultConfig returns the demo-page configuration
func DefaultConfig() Config {
	return Config{
		MaxEntries: DefaultMaxEntries,
		Banner:     DefaultBanner,
	}
}

// Sink is the structured output log of a session
type Sink struct {
	mu       sync.Mutex
	config   Config
	surface  Surface
	entries  []types.LogEntry
	next     uint64
	visible  bool
	now      func() time.Time
	observer Observer
}

// New creates a sink. surface may be nil.
func New(config Config, surface Surface) *Sink {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	if config.Banner == nil {
		config.Banner = DefaultBanner
	}
	return &Sink{
		config:   config,
		surface:  surface,
		entries:  make([]types.LogEntry, 0, config.MaxEntries),
		next:     1,
		visible:  true,
		now:      time.Now,
		observer: config.Observer,
	}
}

// Append stamps and stores entry, evicting from the front on overflow,
// then renders it. The stamped entry is returned.
func (s *Sink) Append(entry types.LogEntry) types.LogEntry {
	s.mu.Lock()
	entry.Sequence = s.next
	s.next++
	if entry.Time.IsZero() {
		entry.Time = s.now()
	}
	if !entry.Kind.Valid() {
		entry.Kind = types.KindPlain
	}
	s.entries = append(s.entries, entry)

	evicted := 0
	if over := len(s.entries) - s.config.MaxEntries; over > 0 {
		// Copy down so the backing array does not grow without bound
		n := copy(s.entries, s.entries[over:])
		clear(s.entries[n:])
		s.entries = s.entries[:n]
		evicted = over
	}
	surface := s.surface
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.EntryAppended(entry.Kind)
		if evicted > 0 {
			s.observer.EntriesEvicted(evicted)
		}
	}
	if surface != nil {
		surface.Append(entry)
	}
	return entry
}

// Clear drops all entries and re-seeds the banner on the surface
func (s *Sink) Clear() {
	s.mu.Lock()
	clear(s.entries)
	s.entries = s.entries[:0]
	banner := append([]string(nil), s.config.Banner...)
	surface := s.surface
	s.mu.Unlock()

	if surface != nil {
		surface.Reset(banner)
	}
}

// ToggleVisibility flips the display flag and returns the new value
func (s *Sink) ToggleVisibility() bool {
	s.mu.Lock()
	s.visible = !s.visible
	visible := s.visible
	surface := s.surface
	s.mu.Unlock()

	if surface != nil {
		surface.SetVisible(visible)
	}
	return visible
}

// Entries returns a copy of the retained entries, oldest first
func (s *Sink) Entries() []types.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.LogEntry(nil), s.entries...)
}

// Since returns retained entries with Sequence > seq
func (s *Sink) Since(seq uint64) []types.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.LogEntry
	for _, e := range s.entries {
		if e.Sequence > seq {
			out = append(out, e)
		}
	}
	return out
}

// LastSequence returns the sequence number of the most recent append, 0 if none
func (s *Sink) LastSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next - 1
}

// Banner returns the fixed header lines
func (s *Sink) Banner() []string {
	return append([]string(nil), s.config.Banner...)
}

// Len returns the number of retained entries
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Visible reports the display flag
func (s *Sink) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// MaxEntries returns the retention bound
func (s *Sink) MaxEntries() int {
	return s.config.MaxEntries
}

// SetSurface swaps the render surface. nil detaches it.
func (s *Sink) SetSurface(surface Surface) {
	s.mu.Lock()
	s.surface = surface
	s.mu.Unlock()
}
