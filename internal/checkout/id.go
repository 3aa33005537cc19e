package checkout

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// IDGenerator produces order identifiers.
type IDGenerator interface {
	NewOrderID() string
}

// TimestampIDGenerator builds IDs of the form ORD + last 6 digits of the
// millisecond clock + a 3-digit sequence number.
// The sequence is process-wide so two IDs in the same millisecond differ;
// the workflow still retries if the order store reports a clash.
type TimestampIDGenerator struct {
	now func() time.Time
	seq atomic.Uint32
}

// NewTimestampIDGenerator creates a generator. A nil clock uses time.Now.
func NewTimestampIDGenerator(now func() time.Time) *TimestampIDGenerator {
	if now == nil {
		now = time.Now
	}
	g := &TimestampIDGenerator{now: now}
	g.seq.Store(rand.Uint32N(1000))
	return g
}

// NewOrderID returns the next order ID.
func (g *TimestampIDGenerator) NewOrderID() string {
	stamp := g.now().UnixMilli() % 1_000_000
	seq := g.seq.Add(1) % 1000
	return fmt.Sprintf("ORD%06d%03d", stamp, seq)
}

// TrackingNumber derives the courier tracking number from an order ID.
func TrackingNumber(orderID string) string {
	if len(orderID) <= 6 {
		return "TRK" + orderID
	}
	return "TRK" + orderID[len(orderID)-6:]
}
