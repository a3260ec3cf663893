// Package render formats search results for terminal and script output:
// absolute and relative times, the two-line list entry and the JSON array.
package render
