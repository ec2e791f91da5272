package replacement

import (
	"sort"
)

// OptimalReplacer evicts the resident page whose next use lies furthest in
// the future. It looks ahead in the reference sequence, so it can only run
// over a complete, known trace.
type OptimalReplacer struct {
	horizon     int           // stands in for "never used again"
	occurrences map[int][]int // page -> ascending positions
}

// NewOptimalReplacer indexes every position at which each page is referenced
func NewOptimalReplacer(references []int) *OptimalReplacer {
	occurrences := make(map[int][]int)
	for pos, page := range references {
		occurrences[page] = append(occurrences[page], pos)
	}
	return &OptimalReplacer{
		horizon:     len(references),
		occurrences: occurrences,
	}
}

// Victim fills the first empty slot, otherwise evicts the page with the
// greatest forward distance. Ties (including several never-used-again pages)
// go to the lowest slot.
func (o *OptimalReplacer) Victim(frames FrameState, pos int) int {
	if slot := frames.FirstEmpty(); slot >= 0 {
		return slot
	}

	victim := 0
	farthest := -1
	for slot, page := range frames {
		next := o.NextUse(page, pos)
		if next > farthest {
			farthest = next
			victim = slot
		}
		if next == o.horizon {
			break
		}
	}
	return victim
}

// Touch does nothing; the decision depends only on the future
func (o *OptimalReplacer) Touch(slot, pos int) {}

// Load does nothing
func (o *OptimalReplacer) Load(slot, pos int) {}

// NextUse returns the first position after pos that references page,
// or the sequence length when the page is never referenced again
func (o *OptimalReplacer) NextUse(page, pos int) int {
	positions := o.occurrences[page]
	i := sort.SearchInts(positions, pos+1)
	if i == len(positions) {
		return o.horizon
	}
	return positions[i]
}
