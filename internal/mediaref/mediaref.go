// Package mediaref encodes renderable media pointers as compact symbolic
// references and resolves them back against a live game object registry.
//
// A symbolic reference is "<kind>:<id>" where kind names a registry and id is
// the registered object id. Ids may themselves contain ':'; only the first
// separator belongs to the kind. Values with no symbolic form are stored as a
// fallback "dl:<url>" with the known CDN host rewritten to a short token.
package mediaref

import (
	"strings"

	logpkg "github.com/qaeu/melvor-activity-monitor/pkg/log"
)

// Reference kinds backed by a registry.
const (
	KindItem     = "item"
	KindSkill    = "skill"
	KindCurrency = "currency"
	KindMastery  = "mastery"
	KindMark     = "mark"
	KindStatic   = "static"
)

// FallbackPrefix marks a raw, non-symbolic reference. Fallback references are
// an escape hatch: the optimizer retries symbolic derivation on every persist
// cycle instead of treating them as stable.
const FallbackPrefix = "dl:"

// cdnToken substitutes the CDN base URL inside fallback references.
const cdnToken = "mainCDN:"

// DefaultCDNBase is the asset host prefix rewritten to cdnToken.
const DefaultCDNBase = "https://cdn.melvoridle.com/"

var knownKinds = map[string]bool{
	KindItem:     true,
	KindSkill:    true,
	KindCurrency: true,
	KindMastery:  true,
	KindMark:     true,
	KindStatic:   true,
}

// Source is a live game object that can describe itself symbolically.
type Source interface {
	RefKind() string
	RefID() string
}

// Resolver looks up a live object's media URL by kind and id.
// Production implementations back it with the game's registries; tests use a
// fixed mapping.
type Resolver interface {
	Resolve(kind, id string) (string, bool)
}

// Codec converts media pointers to symbolic references and back. Pure; the
// only external touchpoint is the injected Resolver.
type Codec struct {
	resolver Resolver
	cdnBase  string
	logger   logpkg.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithCDNBase overrides the CDN host prefix recognized in fallback rewrites.
func WithCDNBase(base string) Option {
	return func(c *Codec) { c.cdnBase = base }
}

// WithLogger sets the codec logger.
func WithLogger(l logpkg.Logger) Option {
	return func(c *Codec) { c.logger = l }
}

// New creates a Codec resolving against the given registry.
func New(resolver Resolver, opts ...Option) *Codec {
	c := &Codec{
		resolver: resolver,
		cdnBase:  DefaultCDNBase,
		logger:   logpkg.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("mediaref")
	return c
}

// Encode derives a symbolic reference from a live source object.
// Returns false when the source cannot be expressed symbolically.
func (c *Codec) Encode(src Source) (string, bool) {
	if src == nil {
		return "", false
	}
	kind, id := src.RefKind(), src.RefID()
	if id == "" || !knownKinds[kind] {
		return "", false
	}
	return kind + ":" + id, true
}

// Decode resolves a reference to a media URL. Unresolvable references yield
// "" and a warning, never an error: a missing icon must not block a load.
func (c *Codec) Decode(ref string) (url string) {
	if ref == "" {
		return ""
	}
	if IsFallback(ref) {
		return c.expandFallback(ref)
	}

	// The resolver dispatches into host game objects; shield callers from
	// panics there the same way lookup misses are shielded.
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("media resolver panicked", logpkg.Str("ref", ref), logpkg.Any("panic", r))
			url = ""
		}
	}()

	kind, id, ok := strings.Cut(ref, ":")
	if !ok || id == "" || !knownKinds[kind] {
		c.logger.Warn("malformed media reference", logpkg.Str("ref", ref))
		return ""
	}
	if c.resolver == nil {
		return ""
	}
	u, ok := c.resolver.Resolve(kind, id)
	if !ok {
		c.logger.Warn("media reference did not resolve", logpkg.Str("kind", kind), logpkg.Str("id", id))
		return ""
	}
	return u
}

// Fallback wraps a raw URL as a fallback reference, rewriting the CDN host
// prefix to a short token to save bytes.
func (c *Codec) Fallback(url string) string {
	if url == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(url, c.cdnBase); ok {
		return FallbackPrefix + cdnToken + rest
	}
	return FallbackPrefix + url
}

func (c *Codec) expandFallback(ref string) string {
	raw := strings.TrimPrefix(ref, FallbackPrefix)
	if rest, ok := strings.CutPrefix(raw, cdnToken); ok {
		return c.cdnBase + rest
	}
	return raw
}

// IsFallback reports whether ref is a raw fallback reference rather than a
// re-derivable symbolic one.
func IsFallback(ref string) bool {
	return strings.HasPrefix(ref, FallbackPrefix)
}
