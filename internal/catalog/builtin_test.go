package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/engine/runner"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/engine/sink"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Every built-in demo must run cleanly in its own profile.
func TestBuiltinSnippetsRun(t *testing.T) {
	c, err := NewDefault(nil)
	require.NoError(t, err)

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), 1)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	for _, s := range c.List("") {
		t.Run(s.ID, func(t *testing.T) {
			profile, err := runner.LookupProfile(s.Profile)
			require.NoError(t, err)

			out := sink.New(sink.DefaultConfig(), nil)
			target := render.NewHTMLTarget()
			ctrl, err := runner.New(runner.Options{
				Profile:  profile,
				Sink:     out,
				Target:   target,
				Executor: pool,
			})
			require.NoError(t, err)
			defer ctrl.Close()

			report, err := ctrl.Run(context.Background(), s.Source)
			require.NoError(t, err)
			require.NotEqual(t, sandbox.OutcomeFailed, report.Outcome.Kind, "%+v", report.Outcome.Err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			require.NoError(t, report.Wait(ctx))

			for _, e := range out.Entries() {
				assert.NotEqual(t, types.KindError, e.Kind, e.Text)
			}
			if profile.UI {
				assert.NotEmpty(t, target.HTML())
			}
		})
	}
}
