package normalisers

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/normalisers/jsontext"
	"github.com/custodia-labs/ragpipe/internal/normalisers/pdf"
	"github.com/custodia-labs/ragpipe/internal/normalisers/plaintext"
)

// maxFallbackPriority is the highest priority a fallback normaliser may use.
const maxFallbackPriority = 9

// Verify interface compliance.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps MIME types to normalisers.
type Registry struct {
	mu          sync.RWMutex
	byMIME      map[string][]driven.Normaliser
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME: make(map[string][]driven.Normaliser),
	}
}

// NewDefaultRegistry creates a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults registers the built-in normalisers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(jsontext.New())
	r.Register(pdf.New())
}

// Register adds a normaliser for each of its MIME types.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
	for _, mimeType := range normaliser.SupportedMIMETypes() {
		key := canonicalMIME(mimeType)
		list := append(r.byMIME[key], normaliser)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[key] = list
	}
}

// Normalise extracts text with the highest-priority normaliser for
// mimeType, or the best fallback normaliser for unknown types.
func (r *Registry) Normalise(ctx context.Context, content []byte, mimeType string) (string, error) {
	normaliser := r.lookup(canonicalMIME(mimeType))
	if normaliser == nil {
		return "", fmt.Errorf("%w: no normaliser for %q", domain.ErrUnsupportedType, mimeType)
	}

	text, err := normaliser.Normalise(ctx, content, mimeType)
	if err != nil {
		return "", fmt.Errorf("normalising %s: %w", mimeType, err)
	}
	return text, nil
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mimeType := range r.byMIME {
		types = append(types, mimeType)
	}
	sort.Strings(types)
	return types
}

// Supports reports whether mimeType has a dedicated normaliser.
func (r *Registry) Supports(mimeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byMIME[canonicalMIME(mimeType)]
	return ok
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if list := r.byMIME[mimeType]; len(list) > 0 {
		return list[0]
	}

	var fallback driven.Normaliser
	for _, n := range r.normalisers {
		if n.Priority() < 1 || n.Priority() > maxFallbackPriority {
			continue
		}
		if fallback == nil || n.Priority() > fallback.Priority() {
			fallback = n
		}
	}
	return fallback
}

// canonicalMIME lower-cases a media type and drops its parameters,
// so "text/plain; charset=utf-8" matches "text/plain".
func canonicalMIME(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}
