/*
Package tracing provides lightweight request and run tracing.

# Overview

Spans are buffered and logged through zap by a collector goroutine. HTTP
requests get a span from HTTPMiddleware, continuing the caller's trace
when X-Trace-ID and X-Span-ID are present. Runs get a "run" span with one
child per phase (transforming, executing, succeeded or failed), built from
the run controller's state transitions by RunSpans.

# Usage

	tracer := tracing.New("playground", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	spans := tracer.RunSpans(map[string]string{"session_id": sid})
	opts.OnTransition = func(run id.RunID, from, to runner.State) {
		spans.Transition(run.String(), string(from), string(to))
	}

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Trace Format

Traces use HTTP headers for propagation:
  - X-Trace-ID: Unique identifier for entire request flow
  - X-Span-ID: Identifier for current operation

Spans are dropped rather than blocking when the 1000-span buffer is full.
*/
package tracing
