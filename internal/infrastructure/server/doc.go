// Package server assembles the playground HTTP server: sandbox pool,
// snippet catalog, session manager, middleware, REST and WebSocket routes,
// and Prometheus metrics on a private registry.
package server
