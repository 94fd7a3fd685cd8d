// Package main is the playground command line tool.
//
// Usage:
//
//	# Run a file, stdin or a catalog snippet locally
//	playground run demo.js
//	echo "console.log(1)" | playground run
//	playground run --snippet react-playground
//	playground run --json --timeout 2s demo.jsx -p react
//
//	# Browse the catalog
//	playground snippets --profile redux
//	playground snippets es6-classes
//
//	# Use a running server
//	playground remote run --addr http://localhost:8000 demo.js
//	playground remote health
//
// Exit status is 1 when a run fails or the command errors.
package main
