/*
Package http provides the REST handlers of the playground server.

Sessions own a run controller, a console and a render target; the handlers
expose them as resources:

	POST   /sessions                     {profile} -> session info
	GET    /sessions                     list
	GET    /sessions/:id                 info
	DELETE /sessions/:id                 close
	POST   /sessions/:id/run             {source | snippet_id} -> run report
	POST   /sessions/:id/run/upload      multipart "file" -> run report
	GET    /sessions/:id/console         banner, entries (?since=N), visibility
	POST   /sessions/:id/console/clear
	POST   /sessions/:id/console/toggle
	GET    /sessions/:id/render          latest sanitized HTML (ETag aware)
	GET    /snippets                     catalog (?profile=)
	GET    /snippets/:id                 one snippet
	GET    /metrics/json                 metrics digest

Snippet failures are part of a successful run report; error statuses are
reserved for requests that could not start a run (unknown session, busy
controller, invalid source).
*/
package http
