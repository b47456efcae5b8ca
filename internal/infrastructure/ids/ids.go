// Package ids generates human-facing document numbers.
package ids

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TransferPrefix prefixes every transfer number
const TransferPrefix = "TRF-"

// Generator produces lexicographically sortable, unique document numbers.
// It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewGenerator creates a generator seeded from the current time
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
		now:     time.Now,
	}
}

// New returns a bare ULID string
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

// NextTransferNo returns a new "TRF-<ULID>" number
func (g *Generator) NextTransferNo() string {
	return TransferPrefix + g.New()
}

// IsTransferNo reports whether s looks like a generated transfer number
func IsTransferNo(s string) bool {
	rest, ok := strings.CutPrefix(s, TransferPrefix)
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(rest)
	return err == nil
}
