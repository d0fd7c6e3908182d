// Package id generates unique, lexicographically sortable record identifiers.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces monotonically increasing ULIDs per process.
// IDs generated within the same millisecond are ordered by entropy increments.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NowMs returns current time in milliseconds since Unix epoch.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Next returns a new ID string. If the monotonic entropy overflows within a
// single millisecond, entropy is reseeded and generation retried.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(time.UnixMilli(NowMs()))
	u, err := ulid.New(ms, g.entropy)
	if err != nil {
		g.entropy = ulid.Monotonic(rand.Reader, 0)
		u = ulid.MustNew(ms, g.entropy)
	}
	return u.String()
}
