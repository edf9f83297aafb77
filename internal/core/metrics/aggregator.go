// Copyright 2025 SuperBowl Ad Pulse Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics keeps the running aggregates over pipeline outcomes that
// back the dashboard's metrics endpoint. The aggregator is an explicit,
// injectable object owned by whoever wires the pipeline, never a hidden
// process-wide singleton; tests instantiate a fresh one per case.
//
// Latency averages use the incremental mean update
// (avg += (value - avg) / count) so no sample history is kept and the
// accumulation error stays bounded. Each Record call is one indivisible
// read-modify-write under the mutex, so concurrent segment pipelines never
// lose updates.
package metrics

import (
	"sync"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
)

// Aggregator accumulates pipeline outcome counters and running latency
// means. The zero value is ready to use.
type Aggregator struct {
	mu sync.Mutex

	totalSegments  int64
	adsGenerated   int64
	tierCounts     map[model.Tier]int64
	analysisCount  int64
	analysisAvgMs  float64
	genCount       int64
	genAvgMs       float64
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{tierCounts: make(map[model.Tier]int64)}
}

// Record folds one completed segment-pipeline outcome into the running
// aggregates. It must be called exactly once per completed run.
func (a *Aggregator) Record(out model.PipelineOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tierCounts == nil {
		a.tierCounts = make(map[model.Tier]int64)
	}

	a.totalSegments++
	a.tierCounts[out.Tier]++
	if out.AdGenerated {
		a.adsGenerated++
	}

	a.analysisCount++
	a.analysisAvgMs += (float64(out.GeminiLatencyMs) - a.analysisAvgMs) / float64(a.analysisCount)

	if out.GroqAttempted {
		a.genCount++
		a.genAvgMs += (float64(out.GroqLatencyMs) - a.genAvgMs) / float64(a.genCount)
	}
}

// Snapshot returns an immutable copy of the aggregates. The discard rate
// is 0 (not NaN) when nothing has been processed yet.
func (a *Aggregator) Snapshot() model.MetricsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	discarded := a.tierCounts[model.TierIgnore]
	rate := 0.0
	if a.totalSegments > 0 {
		rate = float64(discarded) / float64(a.totalSegments)
	}
	return model.MetricsSnapshot{
		AvgGeminiLatencyMs: a.analysisAvgMs,
		AvgGroqLatencyMs:   a.genAvgMs,
		DiscardRate:        rate,
		AdsGenerated:       a.adsGenerated,
		TotalSegments:      a.totalSegments,
		SegmentsDiscarded:  discarded,
		TierIgnore:         a.tierCounts[model.TierIgnore],
		TierSoft:           a.tierCounts[model.TierSoft],
		TierAggressive:     a.tierCounts[model.TierAggressive],
	}
}

// Reset zeroes all aggregates atomically. It is invoked together with the
// store reset so the dashboard never sees metrics for rows that no longer
// exist.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSegments = 0
	a.adsGenerated = 0
	a.tierCounts = make(map[model.Tier]int64)
	a.analysisCount = 0
	a.analysisAvgMs = 0
	a.genCount = 0
	a.genAvgMs = 0
}
