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

package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
)

func TestSnapshotOnEmptyAggregator(t *testing.T) {
	a := NewAggregator()
	snap := a.Snapshot()

	assert.Equal(t, int64(0), snap.TotalSegments)
	assert.Equal(t, 0.0, snap.DiscardRate, "discard rate must be 0, not NaN, when empty")
	assert.Equal(t, 0.0, snap.AvgGeminiLatencyMs)
	assert.Equal(t, 0.0, snap.AvgGroqLatencyMs)
}

func TestRecordAccumulatesCountsAndTiers(t *testing.T) {
	a := NewAggregator()
	a.Record(model.PipelineOutcome{Tier: model.TierAggressive, AdGenerated: true, GroqAttempted: true, GeminiLatencyMs: 100, GroqLatencyMs: 50})
	a.Record(model.PipelineOutcome{Tier: model.TierSoft, AdGenerated: true, GroqAttempted: true, GeminiLatencyMs: 200, GroqLatencyMs: 150})
	a.Record(model.PipelineOutcome{Tier: model.TierIgnore, GeminiLatencyMs: 300})
	a.Record(model.PipelineOutcome{Tier: model.TierIgnore, GeminiLatencyMs: 400})

	snap := a.Snapshot()
	assert.Equal(t, int64(4), snap.TotalSegments)
	assert.Equal(t, int64(2), snap.AdsGenerated)
	assert.Equal(t, int64(2), snap.SegmentsDiscarded)
	assert.Equal(t, int64(2), snap.TierIgnore)
	assert.Equal(t, int64(1), snap.TierSoft)
	assert.Equal(t, int64(1), snap.TierAggressive)
	assert.Equal(t, 0.5, snap.DiscardRate)
}

func TestRunningAveragesMatchDirectMean(t *testing.T) {
	a := NewAggregator()
	gemini := []int64{120, 340, 90, 555, 210, 87, 431}
	groq := []int64{45, 80, 33, 120, 66, 91, 12}
	for i := range gemini {
		a.Record(model.PipelineOutcome{
			Tier:            model.TierSoft,
			AdGenerated:     true,
			GroqAttempted:   true,
			GeminiLatencyMs: gemini[i],
			GroqLatencyMs:   groq[i],
		})
	}

	sum := func(xs []int64) (s float64) {
		for _, x := range xs {
			s += float64(x)
		}
		return s
	}
	snap := a.Snapshot()
	assert.InDelta(t, sum(gemini)/float64(len(gemini)), snap.AvgGeminiLatencyMs, 1e-9)
	assert.InDelta(t, sum(groq)/float64(len(groq)), snap.AvgGroqLatencyMs, 1e-9)
}

func TestGenerationLatencyOnlyCountsAttempts(t *testing.T) {
	a := NewAggregator()
	// Ignored segment: generation never attempted, its zero groq latency
	// must not drag the average down.
	a.Record(model.PipelineOutcome{Tier: model.TierIgnore, GeminiLatencyMs: 100})
	a.Record(model.PipelineOutcome{Tier: model.TierSoft, AdGenerated: true, GroqAttempted: true, GeminiLatencyMs: 100, GroqLatencyMs: 80})

	snap := a.Snapshot()
	assert.Equal(t, 80.0, snap.AvgGroqLatencyMs)
}

func TestResetZeroesEverything(t *testing.T) {
	a := NewAggregator()
	a.Record(model.PipelineOutcome{Tier: model.TierAggressive, AdGenerated: true, GroqAttempted: true, GeminiLatencyMs: 100, GroqLatencyMs: 50})
	a.Reset()

	snap := a.Snapshot()
	assert.Equal(t, model.MetricsSnapshot{}, snap)

	// The aggregator is reusable after reset.
	a.Record(model.PipelineOutcome{Tier: model.TierIgnore, GeminiLatencyMs: 10})
	assert.Equal(t, int64(1), a.Snapshot().TotalSegments)
}

func TestRecordIsSafeUnderConcurrency(t *testing.T) {
	a := NewAggregator()
	const workers = 8
	const perWorker = 250

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				a.Record(model.PipelineOutcome{Tier: model.TierSoft, AdGenerated: true, GroqAttempted: true, GeminiLatencyMs: 100, GroqLatencyMs: 40})
			}
		}()
	}
	wg.Wait()

	snap := a.Snapshot()
	assert.Equal(t, int64(workers*perWorker), snap.TotalSegments)
	assert.Equal(t, int64(workers*perWorker), snap.AdsGenerated)
	assert.InDelta(t, 100.0, snap.AvgGeminiLatencyMs, 1e-6)
	assert.InDelta(t, 40.0, snap.AvgGroqLatencyMs, 1e-6)
}
