package replacement

import (
	"strconv"
)

// Statistics holds the per-step series a chart needs for one result
type Statistics struct {
	Labels           []string  `json:"labels"` // T1, T2, ...
	FaultsPerStep    []int     `json:"faultsPerStep"`
	HitsPerStep      []int     `json:"hitsPerStep"`
	CumulativeFaults []int     `json:"cumulativeFaults"`
	CumulativeHits   []int     `json:"cumulativeHits"`
	FaultRate        []float64 `json:"faultRate"`     // cumulative, percent
	StepFaultRate    []float64 `json:"stepFaultRate"` // each step alone: 100 or 0

	TotalFaults int     `json:"totalFaults"`
	TotalHits   int     `json:"totalHits"`
	HitRatio    float64 `json:"hitRatio"`
	FaultRatio  float64 `json:"faultRatio"`
}

// ComputeStatistics derives fault/hit counts and rates per step
func ComputeStatistics(result *SimulationResult) Statistics {
	if result == nil {
		return Statistics{}
	}
	n := result.Len()
	stats := Statistics{
		Labels:           make([]string, n),
		FaultsPerStep:    make([]int, n),
		HitsPerStep:      make([]int, n),
		CumulativeFaults: make([]int, n),
		CumulativeHits:   make([]int, n),
		FaultRate:        make([]float64, n),
		StepFaultRate:    make([]float64, n),
	}

	faults, hits := 0, 0
	for i, step := range result.Steps {
		stats.Labels[i] = "T" + strconv.Itoa(step.Index)
		if step.IsFault {
			stats.FaultsPerStep[i] = 1
			stats.StepFaultRate[i] = 100
			faults++
		} else {
			stats.HitsPerStep[i] = 1
			hits++
		}
		stats.CumulativeFaults[i] = faults
		stats.CumulativeHits[i] = hits
		stats.FaultRate[i] = float64(faults) * 100 / float64(i+1)
	}

	stats.TotalFaults = faults
	stats.TotalHits = hits
	if n > 0 {
		stats.HitRatio = float64(hits) / float64(n)
		stats.FaultRatio = float64(faults) / float64(n)
	}
	return stats
}

// AlgorithmFaults is one row of a comparison
type AlgorithmFaults struct {
	Algorithm Algorithm `json:"algorithm"`
	Faults    int       `json:"faults"`
}

// Comparison ranks every algorithm on the same input
type Comparison struct {
	Results []AlgorithmFaults `json:"results"` // enumeration order
	Best    Algorithm         `json:"best"`
}

// Faults returns the fault count recorded for algorithm
func (c Comparison) Faults(algorithm Algorithm) (int, bool) {
	for _, r := range c.Results {
		if r.Algorithm == algorithm {
			return r.Faults, true
		}
	}
	return 0, false
}

// CompareAlgorithms runs all algorithms on the same input.
// Best is the one with the fewest faults, earliest in enumeration on ties.
func CompareAlgorithms(references []int, frameCount int) (Comparison, error) {
	if err := Validate(references, frameCount); err != nil {
		return Comparison{}, err
	}

	var cmp Comparison
	bestFaults := -1
	for _, alg := range Algorithms() {
		result, err := Simulate(alg, references, frameCount)
		if err != nil {
			return Comparison{}, err
		}
		cmp.Results = append(cmp.Results, AlgorithmFaults{Algorithm: alg, Faults: result.TotalFaults})
		if bestFaults < 0 || result.TotalFaults < bestFaults {
			bestFaults = result.TotalFaults
			cmp.Best = alg
		}
	}
	return cmp, nil
}
