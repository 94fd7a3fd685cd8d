// Package ws streams playground sessions over WebSocket.
//
// Each connection attaches to one session as a live console surface and a
// render listener, so everything the session's sink and render target see
// is pushed to the browser.
//
// Message Types (Client → Server):
//   - run: Run source or snippet_id in the session
//   - clear: Clear the console
//   - toggle: Toggle console visibility
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connected, with the session info
//   - snapshot: Banner, entries, visibility and HTML at connect time
//   - entry: One new log entry
//   - reset: Console cleared, with the banner
//   - visibility: Console visibility changed
//   - render: New sanitized HTML
//   - result: Run report
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, metrics, logger)
//	router.GET("/sessions/:id/stream", handler.HandleConnection)
package ws
