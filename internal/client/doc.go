// Package client is a REST client for a running playground server.
//
// Requests go through a client-side rate limiter and a circuit breaker.
// Transport failures and 5xx answers are retried by retryablehttp and
// count against the circuit; 4xx answers come back as *APIError
// without tripping it.
//
// Example Usage:
//
//	c := client.New(client.DefaultConfig())
//	info, err := c.CreateSession(ctx, "react")
//	report, err := c.Run(ctx, info.ID, types.RunRequest{SnippetID: "react-playground"})
//	html, err := c.Render(ctx, info.ID)
package client
