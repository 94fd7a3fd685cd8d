/*
Package session manages playground sessions.

A session pairs one run controller with its output sink and render target.
Live surfaces (WebSocket clients) attach to a session's sink through a
fan-out surface; every session also mirrors its output into the debug log.
Idle sessions are swept after the configured TTL.
*/
package session
