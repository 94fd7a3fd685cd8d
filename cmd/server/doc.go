// Package main is the entry point for the snippet playground server.
//
// The server runs JavaScript snippets in pooled goja sandboxes and streams
// each session's console to HTTP and WebSocket clients.
//
// Architecture:
//
//	Browser / CLI → REST + WebSocket → Session Manager → Run Controller
//	                                                   → Sandbox Pool (goja)
//
// The server provides:
//   - REST API for sessions, runs, console and render output
//   - WebSocket streaming of console entries and renders
//   - An embedded snippet catalog, extendable from a directory
//   - Prometheus metrics and a JSON summary
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -catalog ./snippets -timeout 5s
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
