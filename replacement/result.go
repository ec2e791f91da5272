package replacement

import (
	"encoding/json"
	"fmt"
)

const (
	// EmptySlot marks a frame slot that has never been written
	EmptySlot = -1

	// NoSlot is the ReplacedSlot value of a step that wrote nothing
	NoSlot = -1

	// NoPage is the EvictedPage value when no resident page was overwritten
	NoPage = -1
)

// FrameState is the content of physical memory at one instant.
// Slot i holds a page id or EmptySlot.
type FrameState []int

// NewFrameState returns frameCount empty slots
func NewFrameState(frameCount int) FrameState {
	frames := make(FrameState, frameCount)
	for i := range frames {
		frames[i] = EmptySlot
	}
	return frames
}

// Clone returns an independent copy of the frame state
func (f FrameState) Clone() FrameState {
	out := make(FrameState, len(f))
	copy(out, f)
	return out
}

// Find returns the slots holding page, in ascending order
func (f FrameState) Find(page int) []int {
	var slots []int
	for i, p := range f {
		if p == page {
			slots = append(slots, i)
		}
	}
	return slots
}

// FirstEmpty returns the lowest empty slot or -1 if memory is full
func (f FrameState) FirstEmpty() int {
	for i, p := range f {
		if p == EmptySlot {
			return i
		}
	}
	return -1
}

// Equal reports whether two frame states hold the same pages slot by slot
func (f FrameState) Equal(other FrameState) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes empty slots as null
func (f FrameState) MarshalJSON() ([]byte, error) {
	out := make([]*int, len(f))
	for i := range f {
		if f[i] != EmptySlot {
			page := f[i]
			out[i] = &page
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes null slots as EmptySlot
func (f *FrameState) UnmarshalJSON(data []byte) error {
	var in []*int
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	frames := make(FrameState, len(in))
	for i, p := range in {
		if p == nil {
			frames[i] = EmptySlot
		} else {
			frames[i] = *p
		}
	}
	*f = frames
	return nil
}

// Step is one simulation event, produced for each consumed reference
type Step struct {
	Index        int        `json:"index"` // 1-based position in the reference sequence
	Page         int        `json:"page"`
	FramesAfter  FrameState `json:"framesAfter"`
	IsFault      bool       `json:"isFault"`
	ReplacedSlot int        `json:"replacedSlot"` // NoSlot on hits
	EvictedPage  int        `json:"evictedPage"`  // NoPage unless a resident page was overwritten
	HitSlots     []int      `json:"hitSlots"`     // empty on faults
}

// Narration describes the step in one sentence
func (s Step) Narration() string {
	if s.IsFault {
		return fmt.Sprintf("At time T%d, page %d caused a page fault and was loaded into Frame %d.",
			s.Index, s.Page, s.ReplacedSlot+1)
	}
	if len(s.HitSlots) > 0 {
		return fmt.Sprintf("At time T%d, page %d was already in memory (Hit).", s.Index, s.Page)
	}
	return fmt.Sprintf("At time T%d, page %d was already in memory. No page fault occurred.", s.Index, s.Page)
}

// SimulationResult is the complete, immutable history of one run
type SimulationResult struct {
	Algorithm   Algorithm `json:"algorithm"`
	FrameCount  int       `json:"frameCount"`
	References  []int     `json:"references"`
	Steps       []Step    `json:"steps"`
	TotalFaults int       `json:"totalFaults"`
}

// Len returns the number of steps
func (r *SimulationResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Steps)
}

// Hits returns the number of steps that were not faults
func (r *SimulationResult) Hits() int {
	return r.Len() - r.TotalFaults
}
