package replacement

import (
	"strings"
)

// Algorithm names a page replacement policy
type Algorithm string

const (
	FIFO         Algorithm = "FIFO"
	ModifiedFIFO Algorithm = "ModifiedFIFO" // Second-Chance
	LRU          Algorithm = "LRU"
	Optimal      Algorithm = "Optimal"
)

// Algorithms returns every supported policy in enumeration order
func Algorithms() []Algorithm {
	return []Algorithm{FIFO, ModifiedFIFO, LRU, Optimal}
}

// ParseAlgorithm maps a token to an Algorithm.
// Unrecognized tokens are rejected, never defaulted.
func ParseAlgorithm(token string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "fifo":
		return FIFO, nil
	case "modifiedfifo", "modified-fifo", "second-chance", "secondchance", "clock":
		return ModifiedFIFO, nil
	case "lru":
		return LRU, nil
	case "optimal", "opt":
		return Optimal, nil
	default:
		return "", ErrAlgorithmNotSupported("ParseAlgorithm", token)
	}
}

// Replacer is the per-run state of a replacement policy.
// The simulation driver owns hit detection and frame writes; the replacer
// only keeps its bookkeeping and chooses where a faulting page goes.
type Replacer interface {
	// Victim returns the slot that receives the faulting page at position pos
	Victim(frames FrameState, pos int) int

	// Touch records a hit on slot at position pos
	Touch(slot, pos int)

	// Load records that slot was written at position pos
	Load(slot, pos int)
}

// NewReplacer creates a replacer for one run of the given algorithm.
// Optimal needs the full reference sequence for its lookahead.
func NewReplacer(algorithm Algorithm, frameCount int, references []int) (Replacer, error) {
	switch algorithm {
	case FIFO:
		return NewFIFOReplacer(frameCount), nil
	case ModifiedFIFO:
		return NewSecondChanceReplacer(frameCount), nil
	case LRU:
		return NewLRUReplacer(frameCount), nil
	case Optimal:
		return NewOptimalReplacer(references), nil
	default:
		return nil, ErrAlgorithmNotSupported("NewReplacer", string(algorithm))
	}
}

// Simulate validates the inputs and runs the chosen algorithm to completion.
// No partial result is returned on error.
func Simulate(algorithm Algorithm, references []int, frameCount int) (*SimulationResult, error) {
	if err := Validate(references, frameCount); err != nil {
		return nil, err
	}
	replacer, err := NewReplacer(algorithm, frameCount, references)
	if err != nil {
		return nil, err
	}
	return run(algorithm, references, frameCount, replacer), nil
}

// SimulateFIFO runs the FIFO policy
func SimulateFIFO(references []int, frameCount int) (*SimulationResult, error) {
	return Simulate(FIFO, references, frameCount)
}

// SimulateModifiedFIFO runs the Second-Chance policy
func SimulateModifiedFIFO(references []int, frameCount int) (*SimulationResult, error) {
	return Simulate(ModifiedFIFO, references, frameCount)
}

// SimulateLRU runs the Least-Recently-Used policy
func SimulateLRU(references []int, frameCount int) (*SimulationResult, error) {
	return Simulate(LRU, references, frameCount)
}

// SimulateOptimal runs the Optimal policy
func SimulateOptimal(references []int, frameCount int) (*SimulationResult, error) {
	return Simulate(Optimal, references, frameCount)
}

// run drives a replacer over validated inputs
func run(algorithm Algorithm, references []int, frameCount int, replacer Replacer) *SimulationResult {
	refs := make([]int, len(references))
	copy(refs, references)

	result := &SimulationResult{
		Algorithm:  algorithm,
		FrameCount: frameCount,
		References: refs,
		Steps:      make([]Step, 0, len(refs)),
	}

	frames := NewFrameState(frameCount)
	for pos, page := range refs {
		step := Step{
			Index:        pos + 1,
			Page:         page,
			ReplacedSlot: NoSlot,
			EvictedPage:  NoPage,
			HitSlots:     []int{},
		}

		if slots := frames.Find(page); len(slots) > 0 {
			for _, slot := range slots {
				replacer.Touch(slot, pos)
			}
			step.HitSlots = slots
		} else {
			slot := replacer.Victim(frames, pos)
			if frames[slot] != EmptySlot {
				step.EvictedPage = frames[slot]
			}
			frames[slot] = page
			replacer.Load(slot, pos)

			step.IsFault = true
			step.ReplacedSlot = slot
			result.TotalFaults++
		}

		step.FramesAfter = frames.Clone()
		result.Steps = append(result.Steps, step)
	}

	return result
}
