package normalisers

import (
	"mime"
	"path/filepath"
	"strings"
)

// extensionTypes maps file extensions to the MIME types of the built-in normalisers.
var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".json":     "application/json",
	".pdf":      "application/pdf",
}

// DetectMIMEType returns the MIME type for a file name based on its
// extension. Unknown extensions yield application/octet-stream.
func DetectMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return canonicalMIME(t)
	}
	return "application/octet-stream"
}
