package auditlog

import (
	"fmt"
	"sort"
	"strings"
)

// Percentile returns the p-th percentile (0..1) of sortedValues using linear
// interpolation between closest ranks. Returns 0 for an empty slice.
func Percentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	k := float64(len(sortedValues)-1) * p
	f := int(k)
	c := f + 1
	if c >= len(sortedValues) {
		c = f
	}
	return sortedValues[f] + (sortedValues[c]-sortedValues[f])*(k-float64(f))
}

// StageStats aggregates the durations and cache behavior of one stage.
type StageStats struct {
	Stage      string  `json:"stage"`
	Count      int     `json:"count"`
	Min        float64 `json:"min_s"`
	Median     float64 `json:"median_s"`
	P90        float64 `json:"p90_s"`
	P95        float64 `json:"p95_s"`
	Max        float64 `json:"max_s"`
	CacheHits  int     `json:"cache_hits"`
	CacheTotal int     `json:"cache_total"`
}

// HitRate returns the cache hit rate in percent, or 0 with no samples.
func (s StageStats) HitRate() float64 {
	if s.CacheTotal == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.CacheTotal) * 100
}

// TotalStats aggregates whole-run durations.
type TotalStats struct {
	Min    float64 `json:"min_s"`
	Median float64 `json:"median_s"`
	P90    float64 `json:"p90_s"`
}

// Report is the aggregated view over a set of audit cost records.
type Report struct {
	Stages        []StageStats   `json:"stages"`
	Total         *TotalStats    `json:"total,omitempty"`
	TotalRuns     int            `json:"total_runs"`
	CompletedRuns int            `json:"completed_runs"`
	Decisions     map[string]int `json:"decisions,omitempty"`
}

// runState tracks per-run aggregation during BuildReport.
type runState struct {
	decision       string
	totalDurationS float64
	hasTotal       bool
	stages         map[string]float64
}

// BuildReport aggregates records into per-stage percentile statistics, run
// summaries, and cache hit rates. Runs without a "complete" record get their
// total duration from the sum of their stage durations.
func BuildReport(records []*CostRecord) *Report {
	stageDurations := make(map[string][]float64)
	stageCacheHits := make(map[string]int)
	stageCacheTotal := make(map[string]int)
	runs := make(map[string]*runState)

	runFor := func(runID string) *runState {
		if runID == "" {
			runID = "unknown"
		}
		state, ok := runs[runID]
		if !ok {
			state = &runState{stages: make(map[string]float64)}
			runs[runID] = state
		}
		return state
	}

	for _, record := range records {
		stage := record.Stage
		if stage == "" {
			stage = "unknown"
		}
		state := runFor(record.RunID)

		if stage == StageComplete {
			state.decision = record.Decision
			state.totalDurationS = record.TotalDurationS
			state.hasTotal = record.TotalDurationS > 0
			continue
		}

		stageDurations[stage] = append(stageDurations[stage], record.DurationS)
		stageCacheTotal[stage]++
		if record.CacheHit {
			stageCacheHits[stage]++
		}
		state.stages[stage] = record.DurationS
	}

	report := &Report{
		TotalRuns: len(runs),
		Decisions: make(map[string]int),
	}

	for _, stage := range StageOrder {
		durations := stageDurations[stage]
		if len(durations) == 0 {
			continue
		}
		sorted := append([]float64(nil), durations...)
		sort.Float64s(sorted)
		report.Stages = append(report.Stages, StageStats{
			Stage:      stage,
			Count:      len(sorted),
			Min:        sorted[0],
			Median:     Percentile(sorted, 0.5),
			P90:        Percentile(sorted, 0.9),
			P95:        Percentile(sorted, 0.95),
			Max:        sorted[len(sorted)-1],
			CacheHits:  stageCacheHits[stage],
			CacheTotal: stageCacheTotal[stage],
		})
	}

	var totals []float64
	for _, state := range runs {
		total := state.totalDurationS
		if !state.hasTotal {
			for _, d := range state.stages {
				total += d
			}
		}
		if total > 0 {
			totals = append(totals, total)
		}
		if state.decision != "" {
			report.CompletedRuns++
			report.Decisions[state.decision]++
		}
	}
	if len(totals) > 0 {
		sort.Float64s(totals)
		report.Total = &TotalStats{
			Min:    totals[0],
			Median: Percentile(totals, 0.5),
			P90:    Percentile(totals, 0.9),
		}
	}

	return report
}

// Render formats the report as the plain-text summary printed by
// "ralph report".
func (r *Report) Render() string {
	var sb strings.Builder

	sb.WriteString("Stage Performance (all runs):\n")
	for _, stage := range r.Stages {
		sb.WriteString(fmt.Sprintf("  %s: min=%.0fs, median=%.0fs, p90=%.0fs, p95=%.0fs, max=%.0fs\n",
			stage.Stage, stage.Min, stage.Median, stage.P90, stage.P95, stage.Max))
	}

	if r.Total != nil {
		sb.WriteString(fmt.Sprintf("\nTotal Duration: min=%.0fs, median=%.0fs, p90=%.0fs\n",
			r.Total.Min, r.Total.Median, r.Total.P90))
	}

	sb.WriteString(fmt.Sprintf("\nRun Summary: Total runs=%d, Completed=%d\n", r.TotalRuns, r.CompletedRuns))
	if len(r.Decisions) > 0 {
		keys := make([]string, 0, len(r.Decisions))
		for k := range r.Decisions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, r.Decisions[k]))
		}
		sb.WriteString(fmt.Sprintf("  Decisions: %s\n", strings.Join(parts, ", ")))
	}

	sb.WriteString("\nCache Performance:\n")
	for _, stage := range r.Stages {
		if stage.CacheTotal == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s: hit_rate=%.0f%% (%d/%d)\n",
			stage.Stage, stage.HitRate(), stage.CacheHits, stage.CacheTotal))
	}

	return sb.String()
}
