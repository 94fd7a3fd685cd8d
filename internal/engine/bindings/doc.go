// Package bindings provides the handles a snippet receives as parameters:
// the capture console, a React-compatible element API, ReactDOM and a
// minimal Redux store.
//
// React elements are plain objects tagged with a per-runtime symbol.
// Function and class components are invoked only when a tree is resolved
// into render nodes, which happens once the snippet has returned.
package bindings
