// Package normalisers turns uploaded file bytes into plain text.
//
// Each sub-package implements driven.Normaliser for a set of MIME types.
// The Registry in this package dispatches by MIME type, preferring the
// highest-priority normaliser, and falls back to the best normaliser with
// a fallback priority (1-9) for unknown types.
package normalisers
