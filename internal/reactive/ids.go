package reactive

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator names the query a projection owns.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 query names.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined names in order, for deterministic
// tests and golden traces.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu    sync.Mutex
	names []string
	idx   int
}

// NewFixedGenerator creates a generator that returns names in order.
//
//	gen := NewFixedGenerator("orders-view", "people-view")
//	gen.Generate() // "orders-view"
//	gen.Generate() // "people-view"
//	gen.Generate() // panic: all names exhausted
func NewFixedGenerator(names ...string) *FixedGenerator {
	return &FixedGenerator{names: names}
}

// Generate returns the next predetermined name.
//
// Panics if all names have been consumed, to catch a test creating more
// projections than it planned for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.names) {
		panic("FixedGenerator: all names exhausted")
	}
	name := g.names[g.idx]
	g.idx++
	return name
}
