package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/engine/runner"
	"github.com/GriffinCanCode/playground/internal/engine/sink"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// Session is one editor page: a sink, a render target and the controller
// that drives runs into them
type Session struct {
	ID        id.SessionID
	CreatedAt time.Time

	profile     runner.Profile
	sink        *sink.Sink
	surfaces    *sink.MultiSurface
	target      *render.HTMLTarget
	ctrl        *runner.Controller
	maxSource   int
	lastUsed    atomic.Int64
	unsubscribe func()
}

// Profile returns the session's profile name
func (s *Session) Profile() string { return s.profile.Name }

// Sink returns the session's output sink
func (s *Session) Sink() *sink.Sink { return s.sink }

// Target returns the session's render target
func (s *Session) Target() *render.HTMLTarget { return s.target }

// Attach adds a live surface and returns a function that detaches it
func (s *Session) Attach(surface sink.Surface) func() {
	s.surfaces.Add(surface)
	return func() { s.surfaces.Remove(surface) }
}

// Run validates source and executes it on the session's controller
func (s *Session) Run(ctx context.Context, source string) (*runner.Report, error) {
	s.touch()
	if err := utils.ValidateSource(source, s.maxSource); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	return s.ctrl.Run(ctx, source)
}

// Clear empties the sink and re-seeds its banner
func (s *Session) Clear() {
	s.touch()
	s.sink.Clear()
}

// ToggleVisibility flips console visibility and returns the new state
func (s *Session) ToggleVisibility() bool {
	s.touch()
	return s.sink.ToggleVisibility()
}

// LastUsed returns the time of the last run or console action
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Info returns the public view of the session
func (s *Session) Info() types.SessionInfo {
	return types.SessionInfo{
		ID:        s.ID.String(),
		Profile:   s.profile.Name,
		CreatedAt: s.CreatedAt,
		Runs:      int64(s.ctrl.Runs()),
		Entries:   s.sink.Len(),
		Visible:   s.sink.Visible(),
		State:     string(s.ctrl.State()),
	}
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *Session) close() {
	s.unsubscribe()
	s.ctrl.Close()
}
