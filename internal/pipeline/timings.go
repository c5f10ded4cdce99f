package pipeline

import (
	"slices"
	"sync"
	"time"
)

// Pipeline phases that are timed.
const (
	PhaseParse    = "parse"
	PhaseClassify = "classify"
	PhaseChunk    = "chunk"
)

type timing struct {
	at time.Time
	d  time.Duration
}

// PhaseSnapshot aggregates the recent durations of one phase.
type PhaseSnapshot struct {
	Count int     `json:"count"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// PhaseTimings keeps per-phase durations observed within a rolling window.
type PhaseTimings struct {
	mu      sync.Mutex
	samples map[string][]timing
	window  time.Duration
}

func NewPhaseTimings(window time.Duration) *PhaseTimings {
	if window <= 0 {
		window = time.Hour
	}
	return &PhaseTimings{
		samples: make(map[string][]timing),
		window:  window,
	}
}

// Observe records one run of phase. Negative durations count as zero.
func (t *PhaseTimings) Observe(phase string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked(now)
	t.samples[phase] = append(t.samples[phase], timing{at: now, d: d})
}

// Snapshot returns aggregates for every phase with samples in the window.
func (t *PhaseTimings) Snapshot() map[string]PhaseSnapshot {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked(now)
	out := make(map[string]PhaseSnapshot, len(t.samples))
	for phase, samples := range t.samples {
		out[phase] = summarize(samples)
	}
	return out
}

func summarize(samples []timing) PhaseSnapshot {
	values := make([]float64, len(samples))
	var sum float64
	for i, s := range samples {
		values[i] = float64(s.d) / float64(time.Millisecond)
		sum += values[i]
	}
	slices.Sort(values)

	return PhaseSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: sum / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

// pruneLocked drops expired samples and phases left empty.
func (t *PhaseTimings) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.window)
	for phase, samples := range t.samples {
		kept := samples[:0]
		for _, s := range samples {
			if !s.at.Before(cutoff) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(t.samples, phase)
			continue
		}
		t.samples[phase] = kept
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*weight
}
