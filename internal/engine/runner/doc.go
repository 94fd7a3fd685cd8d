// Package runner sequences a run: transform the snippet, execute it, and
// route the outcome.
//
// A Controller moves through Idle, Transforming, Executing and then
// Succeeded or Failed before returning to Idle. A transform failure skips
// execution entirely. Failures become one diagnostic line on the sink and,
// for UI profiles, an error panel on the render target. Timers a snippet
// schedules keep running after Run returns; Report.Done closes when they
// have settled.
//
// A controller accepts one run at a time. A second Run during the
// synchronous phase returns ErrBusy instead of queueing.
package runner
