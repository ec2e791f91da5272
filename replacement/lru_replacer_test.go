package replacement

import (
	"testing"
)

// TestLRUSingleFrame checks that with one frame only immediate repeats hit
func TestLRUSingleFrame(t *testing.T) {
	refs := []int{1, 1, 2, 1, 1, 1, 3, 2, 2, 0}
	result, err := SimulateLRU(refs, 1)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	for i, step := range result.Steps {
		expectFault := i == 0 || refs[i] != refs[i-1]
		if step.IsFault != expectFault {
			t.Errorf("Step %d (page %d): expected fault=%v, got %v", i+1, refs[i], expectFault, step.IsFault)
		}
	}
}

// TestLRUVictim tests victim selection by oldest use
func TestLRUVictim(t *testing.T) {
	replacer := NewLRUReplacer(3)
	frames := FrameState{10, 11, 12}

	replacer.Load(0, 0)
	replacer.Load(1, 1)
	replacer.Load(2, 2)
	replacer.Touch(0, 3)

	victim := replacer.Victim(frames, 4)
	if victim != 1 {
		t.Errorf("Expected victim 1, got %d", victim)
	}

	replacer.Load(1, 4)
	victim = replacer.Victim(frames, 5)
	if victim != 2 {
		t.Errorf("Expected victim 2, got %d", victim)
	}
}

func TestLRUPrefersEmptySlot(t *testing.T) {
	replacer := NewLRUReplacer(3)
	frames := FrameState{10, EmptySlot, 12}
	replacer.Load(0, 0)
	replacer.Load(2, 1)

	if victim := replacer.Victim(frames, 2); victim != 1 {
		t.Errorf("Expected empty slot 1, got %d", victim)
	}
}

func TestLRUTieBreaksLowestSlot(t *testing.T) {
	replacer := NewLRUReplacer(3)
	frames := FrameState{1, 2, 3}
	// never stamped: all slots tie at -1

	if victim := replacer.Victim(frames, 0); victim != 0 {
		t.Errorf("Expected victim 0 on tie, got %d", victim)
	}
}

func TestLRUKeepsRecentlyUsedPage(t *testing.T) {
	result, err := SimulateLRU([]int{1, 2, 3, 1, 4}, 3)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	step := result.Steps[4]
	if step.EvictedPage != 2 {
		t.Errorf("Expected page 2 evicted, got %d", step.EvictedPage)
	}
}
