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

// Package workflow assembles the pipeline commands into executable chains.
// This file defines the per-segment pipeline: analyze, normalize, score,
// decide, generate, persist, record.
package workflow

import (
	goctx "context"
	"errors"
	"fmt"
	"text/template"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/cloud"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/commands"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/cor"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/metrics"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/scoring"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/services"
)

// AgentModelName is the logical config key of the Gemini model used for
// segment analysis.
const AgentModelName = "segment-analyzer"

// AdWriterName is the logical config key of the ad-generation model.
const AdWriterName = "groq"

// SegmentPipeline runs the full lifecycle of one video segment. The chain
// is stateless between runs; every Analyze call gets a fresh context.
type SegmentPipeline struct {
	chain cor.Chain
}

// NewSegmentPipeline wires the seven pipeline commands into a chain using
// the configured models, prompt templates, thresholds, store, and metrics
// aggregator.
func NewSegmentPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	store *services.PulseStore,
	aggregator *metrics.Aggregator,
) (*SegmentPipeline, error) {
	agentModel, ok := serviceClients.AgentModels[AgentModelName]
	if !ok {
		return nil, fmt.Errorf("no agent model configured under %q", AgentModelName)
	}
	adWriter, ok := serviceClients.AdWriters[AdWriterName]
	if !ok {
		return nil, fmt.Errorf("no ad model configured under %q", AdWriterName)
	}

	analysisTemplate, err := template.New("segment-analysis").Parse(config.PromptTemplates.SegmentAnalysisPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse segment analysis template: %w", err)
	}
	adTemplate, err := template.New("ad-copy").Parse(config.PromptTemplates.AdCopyPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ad copy template: %w", err)
	}

	thresholds := scoring.DefaultThresholds()
	if config.Thresholds.Soft > 0 || config.Thresholds.Aggressive > 0 {
		thresholds = scoring.Thresholds{
			Soft:       config.Thresholds.Soft,
			Aggressive: config.Thresholds.Aggressive,
		}
	}

	chain := cor.NewBaseChain("segment-pipeline")
	chain.AddCommand(commands.NewSegmentAnalyzer("analyze-segment", agentModel, analysisTemplate))
	chain.AddCommand(commands.NewEventNormalizer("normalize-event"))
	chain.AddCommand(commands.NewEventScorer("score-event"))
	chain.AddCommand(commands.NewAdDecision("decide-ad", thresholds))
	chain.AddCommand(commands.NewAdGenerator("generate-ad", config, adWriter, adTemplate))
	chain.AddCommand(commands.NewSegmentPersister("persist-segment", store))
	chain.AddCommand(commands.NewMetricsRecorder("record-metrics", aggregator))

	return &SegmentPipeline{chain: chain}, nil
}

// AnalysisOutcome is what one pipeline run hands back to the API layer:
// the persisted record, the ad if one was generated, and the tolerated
// generation error when an ad was attempted but failed.
type AnalysisOutcome struct {
	Record  *model.SegmentRecord
	Ad      *model.Ad
	AdError error
}

// Analyze runs the pipeline for one segment window of an uploaded video.
// Analysis and generation failures are absorbed into the outcome; only
// template and persistence failures surface as errors.
func (p *SegmentPipeline) Analyze(ctx goctx.Context, request *commands.SegmentRequest) (*AnalysisOutcome, error) {
	if request == nil || request.VideoFile == nil {
		return nil, fmt.Errorf("no video to analyze")
	}
	if request.EndSec <= request.StartSec {
		return nil, fmt.Errorf("invalid segment window [%d, %d)", request.StartSec, request.EndSec)
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	defer chainCtx.Close()

	chainCtx.Add(cor.CtxIn, request)

	p.chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		errs := make([]error, 0, len(chainCtx.GetErrors()))
		for name, err := range chainCtx.GetErrors() {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return nil, errors.Join(errs...)
	}

	record, ok := chainCtx.Get(commands.GetSegmentRecordParameterName()).(*model.SegmentRecord)
	if !ok {
		return nil, fmt.Errorf("pipeline completed without a segment record")
	}

	outcome := &AnalysisOutcome{Record: record}
	if ad, ok := chainCtx.Get(commands.GetAdParameterName()).(*model.Ad); ok {
		outcome.Ad = ad
	}
	if adErr, ok := chainCtx.Get(commands.GetAdErrorParameterName()).(error); ok {
		outcome.AdError = adErr
	}
	return outcome, nil
}
