package replacement

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Histogram tracks latency distribution with percentile support
type Histogram struct {
	samples []float64 // Latencies in microseconds
	mu      sync.Mutex
	maxSize int
	sorted  bool
}

// NewHistogram creates a new histogram with a max sample size
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
		sorted:  true,
	}
}

// Record adds a latency sample (in microseconds).
// At capacity the oldest sample is dropped.
func (h *Histogram) Record(latencyUs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) >= h.maxSize {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
	}

	h.samples = append(h.samples, latencyUs)
	h.sorted = false
}

// Percentile calculates the given percentile (0-100)
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.percentileLocked(p)
}

func (h *Histogram) percentileLocked(p float64) float64 {
	if len(h.samples) == 0 {
		return 0
	}

	if !h.sorted {
		sort.Float64s(h.samples)
		h.sorted = true
	}

	rank := (p / 100.0) * float64(len(h.samples)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return h.samples[lower]
	}

	weight := rank - float64(lower)
	return h.samples[lower]*(1-weight) + h.samples[upper]*weight
}

// Count returns the number of samples
func (h *Histogram) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.samples)
}

// HistogramSnapshot holds summary statistics of a histogram
type HistogramSnapshot struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
}

// Snapshot captures current histogram statistics
func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := HistogramSnapshot{Count: len(h.samples)}
	if snap.Count == 0 {
		return snap
	}

	snap.P50 = h.percentileLocked(50)
	snap.P95 = h.percentileLocked(95)
	snap.P99 = h.percentileLocked(99)

	// samples are sorted now
	snap.Min = h.samples[0]
	snap.Max = h.samples[len(h.samples)-1]
	sum := 0.0
	for _, v := range h.samples {
		sum += v
	}
	snap.Mean = sum / float64(len(h.samples))
	return snap
}

// Metrics tracks simulation activity for one process
type Metrics struct {
	simulations     atomic.Uint64
	rejectedStarts  atomic.Uint64
	pageFaults      atomic.Uint64
	pageHits        atomic.Uint64
	pageEvictions   atomic.Uint64
	commentaryFails atomic.Uint64

	simulationLatency *Histogram

	startTime time.Time
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		startTime:         time.Now(),
		simulationLatency: NewHistogram(1000),
	}
}

// RecordSimulation folds a completed result into the counters
func (m *Metrics) RecordSimulation(result *SimulationResult, duration time.Duration) {
	m.simulations.Add(1)
	m.pageFaults.Add(uint64(result.TotalFaults))
	m.pageHits.Add(uint64(result.Hits()))
	for _, step := range result.Steps {
		if step.EvictedPage != NoPage {
			m.pageEvictions.Add(1)
		}
	}
	m.simulationLatency.Record(float64(duration.Microseconds()))
}

// RecordRejectedStart counts a start refused for invalid input or algorithm
func (m *Metrics) RecordRejectedStart() {
	m.rejectedStarts.Add(1)
}

// RecordCommentaryFailure counts a commentary request that fell back
func (m *Metrics) RecordCommentaryFailure() {
	m.commentaryFails.Add(1)
}

// Getters

func (m *Metrics) GetSimulations() uint64 {
	return m.simulations.Load()
}

func (m *Metrics) GetRejectedStarts() uint64 {
	return m.rejectedStarts.Load()
}

func (m *Metrics) GetPageFaults() uint64 {
	return m.pageFaults.Load()
}

func (m *Metrics) GetPageHits() uint64 {
	return m.pageHits.Load()
}

func (m *Metrics) GetPageEvictions() uint64 {
	return m.pageEvictions.Load()
}

func (m *Metrics) GetCommentaryFailures() uint64 {
	return m.commentaryFails.Load()
}

func (m *Metrics) GetHitRate() float64 {
	hits := m.pageHits.Load()
	total := hits + m.pageFaults.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.startTime)
}

// GetSimulationLatency returns snapshot of simulation run time distribution
func (m *Metrics) GetSimulationLatency() HistogramSnapshot {
	return m.simulationLatency.Snapshot()
}

// LogMetrics logs all metrics using structured logging
func (m *Metrics) LogMetrics(logger *slog.Logger) {
	latency := m.GetSimulationLatency()

	logger.Info("Simulation Metrics",
		slog.Group("simulations",
			slog.Uint64("completed", m.GetSimulations()),
			slog.Uint64("rejected", m.GetRejectedStarts()),
		),
		slog.Group("references",
			slog.Uint64("faults", m.GetPageFaults()),
			slog.Uint64("hits", m.GetPageHits()),
			slog.Float64("hit_rate", m.GetHitRate()),
			slog.Uint64("evictions", m.GetPageEvictions()),
		),
		slog.Group("latency_us",
			slog.Int("count", latency.Count),
			slog.Float64("mean", latency.Mean),
			slog.Float64("p50", latency.P50),
			slog.Float64("p95", latency.P95),
			slog.Float64("p99", latency.P99),
		),
		slog.Uint64("commentary_failures", m.GetCommentaryFailures()),
		slog.Duration("uptime", m.GetUptime()),
	)
}
