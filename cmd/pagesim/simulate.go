package main

import (
	"time"

	"github.com/sibexico/pagesim/replacement"
)

// startSimulation parses user input and runs one simulation. Nothing is
// returned on error, so callers keep whatever result they already hold.
func startSimulation(metrics *replacement.Metrics, refsText string, frameCount int, algorithm string) (*replacement.SimulationResult, error) {
	refs, err := replacement.ParseReferences(refsText)
	if err != nil {
		metrics.RecordRejectedStart()
		return nil, err
	}

	alg, err := replacement.ParseAlgorithm(algorithm)
	if err != nil {
		metrics.RecordRejectedStart()
		return nil, err
	}

	start := time.Now()
	result, err := replacement.Simulate(alg, refs, frameCount)
	if err != nil {
		metrics.RecordRejectedStart()
		return nil, err
	}
	metrics.RecordSimulation(result, time.Since(start))

	return result, nil
}

// metricsSnapshot is the JSON view of Metrics
type metricsSnapshot struct {
	Simulations        uint64                        `json:"simulations"`
	RejectedStarts     uint64                        `json:"rejectedStarts"`
	PageFaults         uint64                        `json:"pageFaults"`
	PageHits           uint64                        `json:"pageHits"`
	PageEvictions      uint64                        `json:"pageEvictions"`
	HitRate            float64                       `json:"hitRate"`
	CommentaryFailures uint64                        `json:"commentaryFailures"`
	LatencyUs          replacement.HistogramSnapshot `json:"latencyUs"`
	UptimeSeconds      float64                       `json:"uptimeSeconds"`
}

func snapshotMetrics(m *replacement.Metrics) metricsSnapshot {
	return metricsSnapshot{
		Simulations:        m.GetSimulations(),
		RejectedStarts:     m.GetRejectedStarts(),
		PageFaults:         m.GetPageFaults(),
		PageHits:           m.GetPageHits(),
		PageEvictions:      m.GetPageEvictions(),
		HitRate:            m.GetHitRate(),
		CommentaryFailures: m.GetCommentaryFailures(),
		LatencyUs:          m.GetSimulationLatency(),
		UptimeSeconds:      m.GetUptime().Seconds(),
	}
}
