package replacement

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFrameStateJSONUsesNullForEmpty(t *testing.T) {
	frames := FrameState{4, EmptySlot, 0}

	data, err := json.Marshal(frames)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[4,null,0]" {
		t.Errorf("Expected [4,null,0], got %s", data)
	}

	var decoded FrameState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.Equal(frames) {
		t.Errorf("Expected %v, got %v", frames, decoded)
	}
}

func TestStepJSONShape(t *testing.T) {
	result, _ := SimulateFIFO([]int{2}, 2)

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	for _, field := range []string{`"algorithm":"FIFO"`, `"framesAfter":[2,null]`, `"hitSlots":[]`, `"totalFaults":1`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Expected %s in %s", field, data)
		}
	}
}

func TestFrameStateHelpers(t *testing.T) {
	frames := NewFrameState(3)
	if frames.FirstEmpty() != 0 {
		t.Errorf("Expected first empty 0, got %d", frames.FirstEmpty())
	}

	frames[0] = 5
	frames[2] = 5
	if slots := frames.Find(5); len(slots) != 2 || slots[0] != 0 || slots[1] != 2 {
		t.Errorf("Expected slots [0 2], got %v", slots)
	}
	if frames.FirstEmpty() != 1 {
		t.Errorf("Expected first empty 1, got %d", frames.FirstEmpty())
	}

	frames[1] = 6
	if frames.FirstEmpty() != -1 {
		t.Error("Expected full frame state")
	}

	var nilResult *SimulationResult
	if nilResult.Len() != 0 {
		t.Error("Expected nil result to have no steps")
	}
}
