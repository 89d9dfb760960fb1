package chain

import (
	"sync/atomic"
	"time"

	"github.com/beaconkit/beacond/types"
)

// SlotClock reports the current slot.
type SlotClock interface {
	// CurrentSlot returns the slot for the current time, 0 before genesis.
	CurrentSlot() types.Slot
}

// SystemSlotClock derives slots from wall-clock time.
type SystemSlotClock struct {
	genesis      time.Time
	slotDuration time.Duration
	now          func() time.Time
}

// NewSystemSlotClock returns a clock for a chain that started at genesis
// with slots of the given duration.
func NewSystemSlotClock(genesis time.Time, slotDuration time.Duration) *SystemSlotClock {
	return &SystemSlotClock{genesis: genesis, slotDuration: slotDuration, now: time.Now}
}

func (c *SystemSlotClock) CurrentSlot() types.Slot {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 || c.slotDuration <= 0 {
		return 0
	}
	return types.Slot(elapsed / c.slotDuration)
}

// ManualSlotClock is a SlotClock set by hand.
type ManualSlotClock struct {
	slot atomic.Uint64
}

func NewManualSlotClock(slot types.Slot) *ManualSlotClock {
	c := &ManualSlotClock{}
	c.Set(slot)
	return c
}

func (c *ManualSlotClock) CurrentSlot() types.Slot { return types.Slot(c.slot.Load()) }

func (c *ManualSlotClock) Set(slot types.Slot) { c.slot.Store(uint64(slot)) }

// Advance moves the clock forward by n slots.
func (c *ManualSlotClock) Advance(n types.Slot) { c.slot.Add(uint64(n)) }
