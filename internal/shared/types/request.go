package types

import "time"

// RunRequest submits one run. Exactly one of Source and SnippetID is used;
// SnippetID wins when both are set.
type RunRequest struct {
	Source    string `json:"source"`
	SnippetID string `json:"snippet_id,omitempty"`
}

// SessionRequest creates a playground session
type SessionRequest struct {
	Profile string `json:"profile"`
}

// WSMessage represents a WebSocket message in either direction
type WSMessage struct {
	Type      string      `json:"type"`
	Source    string      `json:"source,omitempty"`
	SnippetID string      `json:"snippet_id,omitempty"`
	Entry     *LogEntry   `json:"entry,omitempty"`
	Entries   []LogEntry  `json:"entries,omitempty"`
	Banner    []string    `json:"banner,omitempty"`
	Visible   *bool       `json:"visible,omitempty"`
	HTML      *string     `json:"html,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// WebSocket message types, server to client
const (
	WSSnapshot = "snapshot"
	WSEntry    = "entry"
	WSReset    = "reset"
	WSVisible  = "visibility"
	WSRender   = "render"
	WSResult   = "result"
	WSSystem   = "system"
	WSError    = "error"
	WSPong     = "pong"
)

// WebSocket message types, client to server
const (
	WSPing   = "ping"
	WSRun    = "run"
	WSClear  = "clear"
	WSToggle = "toggle"
)

// SessionInfo is the public view of a playground session
type SessionInfo struct {
	ID        string    `json:"id"`
	Profile   string    `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
	Runs      int64     `json:"runs"`
	Entries   int       `json:"entries"`
	Visible   bool      `json:"visible"`
	State     string    `json:"state"`
}

// Stats contains session manager statistics
type Stats struct {
	TotalSessions int   `json:"total_sessions"`
	TotalRuns     int64 `json:"total_runs"`
}
