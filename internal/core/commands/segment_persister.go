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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/cor"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/services"
)

// SegmentPersister joins the pipeline outputs for a segment into one
// SegmentRecord row and writes it, plus the ad row when one was generated.
// Unlike analysis and generation, persistence failures are hard errors:
// a segment that cannot be stored stops the chain.
type SegmentPersister struct {
	cor.BaseCommand
	store *services.PulseStore
}

func NewSegmentPersister(name string, store *services.PulseStore) *SegmentPersister {
	return &SegmentPersister{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
	}
}

func (t *SegmentPersister) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, okEvent := context.Get(GetEventParameterName()).(*model.Event)
	_, okScore := context.Get(GetScoreParameterName()).(*model.ScoreResult)
	_, okDecision := context.Get(GetDecisionParameterName()).(*model.Decision)
	return okEvent && okScore && okDecision
}

func (t *SegmentPersister) Execute(context cor.Context) {
	event := context.Get(GetEventParameterName()).(*model.Event)
	score := context.Get(GetScoreParameterName()).(*model.ScoreResult)
	decision := context.Get(GetDecisionParameterName()).(*model.Decision)
	analysis, _ := context.Get(GetSegmentAnalysisParameterName()).(*SegmentAnalysis)

	record := &model.SegmentRecord{
		ID:             uuid.New().String(),
		Event:          *event,
		Score:          score.Score,
		Breakdown:      score.Breakdown,
		GenerateAd:     decision.GenerateAd,
		Urgency:        decision.Tier,
		DecisionReason: decision.Reason,
		CreatedAt:      time.Now().UTC(),
	}
	if analysis != nil {
		record.RawResponse = analysis.Raw
		record.GeminiLatencyMs = analysis.GeminiLatencyMs
	}

	if err := t.store.InsertSegment(context.GetContext(), record); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to persist segment: %w", err))
		return
	}

	if ad, ok := context.Get(GetAdParameterName()).(*model.Ad); ok {
		ad.EventID = record.ID
		if err := t.store.InsertAd(context.GetContext(), ad); err != nil {
			t.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(t.GetName(), fmt.Errorf("failed to persist ad: %w", err))
			return
		}
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetSegmentRecordParameterName(), record)
	context.Add(t.GetOutputParam(), record)
}
