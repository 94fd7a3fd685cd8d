// Package catalog stores canned playground snippets.
//
// The built-in demos (ES6 features, React components, a Redux counter) are
// embedded YAML and TOML files. Extra snippets, which may also be JSON, can
// be loaded from a directory matched with doublestar patterns such as
// "**/*.yaml".
//
// Example Usage:
//
//	cat, err := catalog.NewDefault(logger)
//	if _, err := cat.LoadDir("./snippets", catalog.DefaultPattern); err != nil {
//		...
//	}
//	snippet, err := cat.Get("react-playground")
package catalog
