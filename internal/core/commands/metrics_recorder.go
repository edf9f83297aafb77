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

package commands

import (
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/cor"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/metrics"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
)

// MetricsRecorder folds one completed segment into the dashboard
// aggregates. It runs last, after the segment row is safely persisted.
type MetricsRecorder struct {
	cor.BaseCommand
	aggregator *metrics.Aggregator
}

func NewMetricsRecorder(name string, aggregator *metrics.Aggregator) *MetricsRecorder {
	return &MetricsRecorder{
		BaseCommand: *cor.NewBaseCommand(name),
		aggregator:  aggregator,
	}
}

func (t *MetricsRecorder) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(GetDecisionParameterName()).(*model.Decision)
	return ok
}

func (t *MetricsRecorder) Execute(context cor.Context) {
	decision := context.Get(GetDecisionParameterName()).(*model.Decision)

	outcome := model.PipelineOutcome{Tier: decision.Tier}
	if analysis, ok := context.Get(GetSegmentAnalysisParameterName()).(*SegmentAnalysis); ok {
		outcome.GeminiLatencyMs = analysis.GeminiLatencyMs
	}
	if _, ok := context.Get(GetAdParameterName()).(*model.Ad); ok {
		outcome.AdGenerated = true
	}
	if latency, ok := context.Get(GetAdLatencyParameterName()).(int64); ok {
		outcome.GroqAttempted = true
		outcome.GroqLatencyMs = latency
	}

	t.aggregator.Record(outcome)
	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), &outcome)
}
