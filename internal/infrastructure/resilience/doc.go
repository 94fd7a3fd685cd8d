/*
Package resilience provides the circuit breaker used by the remote
playground client.

# States

	Closed --[Threshold consecutive failures]--> Open
	Open --[Cooldown]--> Half-Open
	Half-Open --[Probes successes]--> Closed
	Half-Open --[any failure]--> Open

While open, Do returns ErrOpen without calling the function. In half-open
at most Probes calls run concurrently; the rest get ErrProbeLimit.

# Usage

	breaker := resilience.New("playground-api", resilience.Settings{
		Threshold: 3,
		Cooldown:  10 * time.Second,
		IsFailure: func(err error) bool {
			var apiErr *client.APIError
			return !errors.As(err, &apiErr) || apiErr.Status >= 500
		},
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return call(ctx)
	})

Errors for which IsFailure returns false, such as client errors, still
reach the caller but leave the circuit closed.
*/
package resilience
