package checkout

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var orderIDPattern = regexp.MustCompile(`^ORD\d{9}$`)

func TestTimestampIDGenerator_Format(t *testing.T) {
	gen := NewTimestampIDGenerator(nil)

	for i := 0; i < 20; i++ {
		assert.Regexp(t, orderIDPattern, gen.NewOrderID())
	}
}

func TestTimestampIDGenerator_UsesLastSixClockDigits(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_123_456)
	gen := NewTimestampIDGenerator(func() time.Time { return fixed })

	id := gen.NewOrderID()

	assert.Equal(t, "ORD123456", id[:9])
}

func TestTimestampIDGenerator_SameMillisecondDiffers(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	gen := NewTimestampIDGenerator(func() time.Time { return fixed })

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.NewOrderID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestTrackingNumber(t *testing.T) {
	assert.Equal(t, "TRK456789", TrackingNumber("ORD123456789"))
	assert.Equal(t, "TRKAB", TrackingNumber("AB"))
}
