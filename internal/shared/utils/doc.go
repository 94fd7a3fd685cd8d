// Package utils holds input validation shared by the HTTP and WebSocket
// surfaces: ids, snippet sources, uploaded files and cache validators.
package utils
