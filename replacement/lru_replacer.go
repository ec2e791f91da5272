package replacement

// LRUReplacer implements LRU (Least Recently Used) replacement policy.
// Only the minimum is ever queried, so a per-slot timestamp is enough.
type LRUReplacer struct {
	lastUsed []int
}

// NewLRUReplacer creates a new LRU replacer
func NewLRUReplacer(frameCount int) *LRUReplacer {
	lastUsed := make([]int, frameCount)
	for i := range lastUsed {
		lastUsed[i] = -1
	}
	return &LRUReplacer{lastUsed: lastUsed}
}

// Victim fills the first empty slot, otherwise evicts the slot with the
// oldest last use. Ties go to the lowest slot.
func (lru *LRUReplacer) Victim(frames FrameState, pos int) int {
	if slot := frames.FirstEmpty(); slot >= 0 {
		return slot
	}

	victim := 0
	for slot := 1; slot < len(lru.lastUsed); slot++ {
		if lru.lastUsed[slot] < lru.lastUsed[victim] {
			victim = slot
		}
	}
	return victim
}

// Touch moves the slot to most recently used
func (lru *LRUReplacer) Touch(slot, pos int) {
	lru.lastUsed[slot] = pos
}

// Load stamps the slot just written
func (lru *LRUReplacer) Load(slot, pos int) {
	lru.lastUsed[slot] = pos
}
