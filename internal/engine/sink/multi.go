package sink

import (
	"sync"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// MultiSurface fans sink changes out to a dynamic set of surfaces
type MultiSurface struct {
	mu       sync.RWMutex
	surfaces map[Surface]struct{}
}

// NewMultiSurface creates an empty fan-out surface
func NewMultiSurface(surfaces ...Surface) *MultiSurface {
	m := &MultiSurface{surfaces: make(map[Surface]struct{})}
	for _, s := range surfaces {
		m.Add(s)
	}
	return m
}

// Add registers a surface
func (m *MultiSurface) Add(s Surface) {
	if s == nil {
		return
	}
	m.mu.Lock()
	m.surfaces[s] = struct{}{}
	m.mu.Unlock()
}

// Remove unregisters a surface
func (m *MultiSurface) Remove(s Surface) {
	m.mu.Lock()
	delete(m.surfaces, s)
	m.mu.Unlock()
}

// Len returns the number of registered surfaces
func (m *MultiSurface) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.surfaces)
}

func (m *MultiSurface) snapshot() []Surface {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Surface, 0, len(m.surfaces))
	for s := range m.surfaces {
		out = append(out, s)
	}
	return out
}

// Append implements Surface
func (m *MultiSurface) Append(entry types.LogEntry) {
	for _, s := range m.snapshot() {
		s.Append(entry)
	}
}

// Reset implements Surface
func (m *MultiSurface) Reset(banner []string) {
	for _, s := range m.snapshot() {
		s.Reset(banner)
	}
}

// SetVisible implements Surface
func (m *MultiSurface) SetVisible(visible bool) {
	for _, s := range m.snapshot() {
		s.SetVisible(visible)
	}
}
