// Package termsurface renders a sink to a terminal with per-kind styling.
package termsurface

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Surface writes styled console lines to w
type Surface struct {
	mu      sync.Mutex
	w       io.Writer
	styles  map[types.Kind]lipgloss.Style
	banner  lipgloss.Style
	visible bool
}

// New creates a terminal surface. Color support is detected from w.
func New(w io.Writer) *Surface {
	r := lipgloss.NewRenderer(w)
	return &Surface{
		w: w,
		styles: map[types.Kind]lipgloss.Style{
			types.KindPlain:   r.NewStyle().Foreground(lipgloss.Color("#00ff00")),
			types.KindInfo:    r.NewStyle().Foreground(lipgloss.Color("#17a2b8")),
			types.KindWarning: r.NewStyle().Foreground(lipgloss.Color("#ffaa00")),
			types.KindError:   r.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true),
		},
		banner:  r.NewStyle().Foreground(lipgloss.Color("#666666")),
		visible: true,
	}
}

// Prefix returns the label written before an entry of kind k
func Prefix(k types.Kind) string {
	switch k {
	case types.KindError:
		return "ERROR: "
	case types.KindWarning:
		return "WARNING: "
	case types.KindInfo:
		return "INFO: "
	}
	return ""
}

// Append implements sink.Surface
func (s *Surface) Append(entry types.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		return
	}
	style := s.styles[entry.Kind]
	fmt.Fprintln(s.w, style.Render(Prefix(entry.Kind)+entry.Text))
}

// Reset implements sink.Surface
func (s *Surface) Reset(banner []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		return
	}
	for _, line := range banner {
		fmt.Fprintln(s.w, s.banner.Render(line))
	}
}

// SetVisible implements sink.Surface. Hidden surfaces drop output.
func (s *Surface) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
}
