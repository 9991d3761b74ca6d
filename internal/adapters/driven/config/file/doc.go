// Package file provides the TOML-backed ConfigStore.
//
// The file lives at ~/.ragpipe/config.toml by default. Keys are exposed in
// dot notation and written back as nested tables:
//
//	[embedding]
//	provider = "openai"
//	requests_per_second = 5.0
package file
