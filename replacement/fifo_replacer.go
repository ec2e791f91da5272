package replacement

// FIFOReplacer evicts by arrival order.
// The pointer always designates the oldest-loaded (or never-filled) slot.
type FIFOReplacer struct {
	frameCount int
	pointer    int
}

// NewFIFOReplacer creates a new FIFO replacer
func NewFIFOReplacer(frameCount int) *FIFOReplacer {
	return &FIFOReplacer{frameCount: frameCount}
}

// Victim returns the slot under the pointer, empty or not
func (f *FIFOReplacer) Victim(frames FrameState, pos int) int {
	return f.pointer
}

// Touch does nothing; FIFO ignores access recency
func (f *FIFOReplacer) Touch(slot, pos int) {}

// Load advances the pointer past the slot just written
func (f *FIFOReplacer) Load(slot, pos int) {
	f.pointer = (slot + 1) % f.frameCount
}

// Pointer returns the next slot to be written
func (f *FIFOReplacer) Pointer() int {
	return f.pointer
}
