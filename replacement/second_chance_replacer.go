package replacement

import (
	"github.com/Workiva/go-datastructures/bitarray"
)

// SecondChanceReplacer implements the Second-Chance (modified FIFO) policy.
// Each slot carries a reference bit set on hits. On a fault the hand sweeps
// from the pointer: a slot with its bit set is spared (bit cleared, hand
// advanced); the first slot with a clear bit is the victim.
//
// The sweep clears at most frameCount bits, so it ends within one full lap
// plus one slot even when every bit was set.
type SecondChanceReplacer struct {
	frameCount int
	pointer    int
	refBits    bitarray.BitArray
}

// NewSecondChanceReplacer creates a new Second-Chance replacer
func NewSecondChanceReplacer(frameCount int) *SecondChanceReplacer {
	return &SecondChanceReplacer{
		frameCount: frameCount,
		refBits:    bitarray.NewBitArray(uint64(frameCount)),
	}
}

// Victim sweeps the hand until it finds a slot with a clear reference bit
func (sc *SecondChanceReplacer) Victim(frames FrameState, pos int) int {
	for {
		if !sc.referenced(sc.pointer) {
			return sc.pointer
		}
		// Second chance: spare this slot once
		sc.refBits.ClearBit(uint64(sc.pointer))
		sc.pointer = (sc.pointer + 1) % sc.frameCount
	}
}

// Touch sets the reference bit of a hit slot
func (sc *SecondChanceReplacer) Touch(slot, pos int) {
	sc.refBits.SetBit(uint64(slot))
}

// Load clears the bit of the slot just written and moves the hand past it
func (sc *SecondChanceReplacer) Load(slot, pos int) {
	sc.refBits.ClearBit(uint64(slot))
	sc.pointer = (slot + 1) % sc.frameCount
}

// Pointer returns the current hand position
func (sc *SecondChanceReplacer) Pointer() int {
	return sc.pointer
}

// ReferenceBits returns a copy of the per-slot reference bits
func (sc *SecondChanceReplacer) ReferenceBits() []bool {
	bits := make([]bool, sc.frameCount)
	for i := range bits {
		bits[i] = sc.referenced(i)
	}
	return bits
}

func (sc *SecondChanceReplacer) referenced(slot int) bool {
	set, err := sc.refBits.GetBit(uint64(slot))
	return err == nil && set
}
