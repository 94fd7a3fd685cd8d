// Package render holds the host element tree produced by UI-flavored runs
// and the targets that display it.
//
// A Node tree contains only host elements, text and fragments; components
// have already been resolved by the bindings that built it. HTMLTarget
// serializes trees with golang.org/x/net/html and sanitizes the result with
// bluemonday before handing it to listeners.
package render
