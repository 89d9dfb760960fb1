package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/beaconkit/beacond/types"
)

func TestSystemSlotClock(t *testing.T) {
	genesis := time.Unix(1_600_000_000, 0)
	clock := NewSystemSlotClock(genesis, 12*time.Second)

	testCases := []struct {
		name string
		now  time.Time
		slot types.Slot
	}{
		{"before genesis", genesis.Add(-time.Hour), 0},
		{"at genesis", genesis, 0},
		{"mid first slot", genesis.Add(11 * time.Second), 0},
		{"second slot", genesis.Add(12 * time.Second), 1},
		{"one hour in", genesis.Add(time.Hour), 300},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			clock.now = func() time.Time { return tc.now }
			assert.Equal(t, tc.slot, clock.CurrentSlot())
		})
	}

	zero := NewSystemSlotClock(genesis, 0)
	assert.Zero(t, zero.CurrentSlot())
}

func TestManualSlotClock(t *testing.T) {
	clock := NewManualSlotClock(5)
	assert.Equal(t, types.Slot(5), clock.CurrentSlot())
	clock.Advance(3)
	assert.Equal(t, types.Slot(8), clock.CurrentSlot())
	clock.Set(1)
	assert.Equal(t, types.Slot(1), clock.CurrentSlot())
}
