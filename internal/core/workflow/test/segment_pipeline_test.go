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

package workflow_test

import (
	goctx "context"
	"errors"
	"testing"
	"text/template"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/commands"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/cor"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/metrics"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/scoring"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/services"
	test "github.com/kbruhadesh/superbowl-ad-pulse/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdWriter stands in for the Groq client so the generation command can
// run without network access.
type fakeAdWriter struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeAdWriter) Generate(_ goctx.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// newSegmentChain wires the pipeline the same way production does, minus
// the Gemini analyzer: tests seed its output directly.
func newSegmentChain(t *testing.T, store *services.PulseStore, aggregator *metrics.Aggregator, writer commands.AdWriter) cor.Chain {
	t.Helper()

	adTemplate, err := template.New("ad-copy").Parse(config.PromptTemplates.AdCopyPrompt)
	require.NoError(t, err)

	thresholds := scoring.Thresholds{
		Soft:       config.Thresholds.Soft,
		Aggressive: config.Thresholds.Aggressive,
	}

	chain := cor.NewBaseChain("segment-pipeline")
	chain.AddCommand(commands.NewEventNormalizer("normalize-event"))
	chain.AddCommand(commands.NewEventScorer("score-event"))
	chain.AddCommand(commands.NewAdDecision("decide-ad", thresholds))
	chain.AddCommand(commands.NewAdGenerator("generate-ad", config, writer, adTemplate))
	chain.AddCommand(commands.NewSegmentPersister("persist-segment", store))
	chain.AddCommand(commands.NewMetricsRecorder("record-metrics", aggregator))
	return chain
}

func newTestStore(t *testing.T) *services.PulseStore {
	t.Helper()
	store, err := services.NewPulseStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// runSegment seeds a chain context with a canned analyzer output for the
// window [30, 35) and executes the chain.
func runSegment(chain cor.Chain, analysisText string) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)

	analysis := &commands.SegmentAnalysis{Raw: analysisText, GeminiLatencyMs: 42}
	chainCtx.Add(commands.GetSegmentRequestParameterName(), &commands.SegmentRequest{StartSec: 30, EndSec: 35})
	chainCtx.Add(commands.GetSegmentAnalysisParameterName(), analysis)
	chainCtx.Add(cor.CtxIn, analysis)

	chain.Execute(chainCtx)
	return chainCtx
}

func TestSegmentPipelineGeneratesAggressiveAd(t *testing.T) {
	store := newTestStore(t)
	aggregator := metrics.NewAggregator()
	writer := &fakeAdWriter{response: test.GetTestAdCreativeText()}
	chain := newSegmentChain(t, store, aggregator, writer)

	chainCtx := runSegment(chain, test.GetTestAnalysisText())
	require.False(t, chainCtx.HasErrors(), "errors: %v", chainCtx.GetErrors())

	record, ok := chainCtx.Get(commands.GetSegmentRecordParameterName()).(*model.SegmentRecord)
	require.True(t, ok)
	assert.Equal(t, "touchdown", record.Event.EventType)
	assert.Equal(t, 30, record.Event.StartSec)
	assert.Equal(t, 35, record.Event.EndSec)
	assert.True(t, record.Event.CrowdLoud)
	// major type 4 + high intensity 2 + loud crowd 2.
	assert.InDelta(t, 8.0, record.Score, 0.001)
	assert.Equal(t, model.TierAggressive, record.Urgency)
	assert.True(t, record.GenerateAd)
	assert.Equal(t, test.GetTestAnalysisText(), record.RawResponse)
	assert.Equal(t, int64(42), record.GeminiLatencyMs)

	ad, ok := chainCtx.Get(commands.GetAdParameterName()).(*model.Ad)
	require.True(t, ok)
	assert.Equal(t, record.ID, ad.EventID)
	assert.Equal(t, model.TierAggressive, ad.Urgency)
	assert.Equal(t, config.Business.Name, ad.BusinessName)
	assert.NotEmpty(t, ad.AdCopy)
	assert.Len(t, ad.SocialHashtags, 2)

	// The rendered prompt carries the event and the sponsor.
	assert.Equal(t, 1, writer.calls)
	assert.Contains(t, writer.lastPrompt, "touchdown")
	assert.Contains(t, writer.lastPrompt, config.Business.Name)

	events, err := store.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, record.ID, events[0].ID)

	ads, err := store.ListAds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, ad.ID, ads[0].ID)

	snapshot := aggregator.Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalSegments)
	assert.Equal(t, int64(1), snapshot.AdsGenerated)
	assert.Equal(t, int64(1), snapshot.TierAggressive)
	assert.InDelta(t, 42.0, snapshot.AvgGeminiLatencyMs, 0.001)
}

func TestSegmentPipelineSoftTier(t *testing.T) {
	store := newTestStore(t)
	aggregator := metrics.NewAggregator()
	writer := &fakeAdWriter{response: test.GetTestAdCreativeText()}
	chain := newSegmentChain(t, store, aggregator, writer)

	// Celebration is known but not a scoring play: high intensity 2 +
	// loud crowd 2 lands exactly on the soft threshold.
	chainCtx := runSegment(chain, `{
  "event_type": "celebration",
  "intensity": "high",
  "summary": "Players celebrate in the end zone.",
  "crowd_reaction": "The crowd cheers loudly.",
  "confidence": 0.8
}`)
	require.False(t, chainCtx.HasErrors(), "errors: %v", chainCtx.GetErrors())

	record := chainCtx.Get(commands.GetSegmentRecordParameterName()).(*model.SegmentRecord)
	assert.InDelta(t, 4.0, record.Score, 0.001)
	assert.Equal(t, model.TierSoft, record.Urgency)

	ad, ok := chainCtx.Get(commands.GetAdParameterName()).(*model.Ad)
	require.True(t, ok)
	assert.Equal(t, model.TierSoft, ad.Urgency)
	assert.Contains(t, writer.lastPrompt, string(model.TierSoft))

	snapshot := aggregator.Snapshot()
	assert.Equal(t, int64(1), snapshot.TierSoft)
}

func TestSegmentPipelineIgnoresQuietSegment(t *testing.T) {
	store := newTestStore(t)
	aggregator := metrics.NewAggregator()
	writer := &fakeAdWriter{response: test.GetTestAdCreativeText()}
	chain := newSegmentChain(t, store, aggregator, writer)

	chainCtx := runSegment(chain, test.GetTestQuietAnalysisText())
	require.False(t, chainCtx.HasErrors(), "errors: %v", chainCtx.GetErrors())

	record := chainCtx.Get(commands.GetSegmentRecordParameterName()).(*model.SegmentRecord)
	assert.Equal(t, model.TierIgnore, record.Urgency)
	assert.False(t, record.GenerateAd)
	assert.Zero(t, writer.calls)

	// The quiet segment is still persisted for the dashboard, just
	// without an ad.
	ads, err := store.ListAds(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ads)

	snapshot := aggregator.Snapshot()
	assert.Equal(t, int64(1), snapshot.SegmentsDiscarded)
	assert.InDelta(t, 1.0, snapshot.DiscardRate, 0.001)
}

func TestSegmentPipelineToleratesAdFailure(t *testing.T) {
	store := newTestStore(t)
	aggregator := metrics.NewAggregator()
	writer := &fakeAdWriter{err: errors.New("groq unavailable")}
	chain := newSegmentChain(t, store, aggregator, writer)

	chainCtx := runSegment(chain, test.GetTestAnalysisText())

	// Generation failure never stops the chain: the segment row lands and
	// the failure is remembered on the context instead.
	require.False(t, chainCtx.HasErrors(), "errors: %v", chainCtx.GetErrors())

	adErr, ok := chainCtx.Get(commands.GetAdErrorParameterName()).(error)
	require.True(t, ok)
	assert.Contains(t, adErr.Error(), "groq unavailable")
	assert.Nil(t, chainCtx.Get(commands.GetAdParameterName()))

	events, err := store.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ads, err := store.ListAds(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ads)

	snapshot := aggregator.Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalSegments)
	assert.Zero(t, snapshot.AdsGenerated)
}

func TestSegmentPipelineNormalizesFencedAnalysis(t *testing.T) {
	store := newTestStore(t)
	aggregator := metrics.NewAggregator()
	writer := &fakeAdWriter{response: test.GetTestAdCreativeText()}
	chain := newSegmentChain(t, store, aggregator, writer)

	chainCtx := runSegment(chain, test.GetTestFencedAnalysisText())
	require.False(t, chainCtx.HasErrors(), "errors: %v", chainCtx.GetErrors())

	record := chainCtx.Get(commands.GetSegmentRecordParameterName()).(*model.SegmentRecord)
	assert.Equal(t, "touchdown", record.Event.EventType)
	// The raw response keeps the fence; only normalization strips it.
	assert.Equal(t, test.GetTestFencedAnalysisText(), record.RawResponse)
}

func TestSegmentPipelineBusinessOverride(t *testing.T) {
	store := newTestStore(t)
	aggregator := metrics.NewAggregator()
	writer := &fakeAdWriter{response: test.GetTestAdCreativeText()}
	chain := newSegmentChain(t, store, aggregator, writer)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	analysis := &commands.SegmentAnalysis{Raw: test.GetTestAnalysisText(), GeminiLatencyMs: 42}
	chainCtx.Add(commands.GetSegmentRequestParameterName(), &commands.SegmentRequest{
		StartSec:     30,
		EndSec:       35,
		BusinessName: "Mia's Tacos",
		BusinessType: "taqueria",
	})
	chainCtx.Add(commands.GetSegmentAnalysisParameterName(), analysis)
	chainCtx.Add(cor.CtxIn, analysis)
	chain.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors(), "errors: %v", chainCtx.GetErrors())

	ad, ok := chainCtx.Get(commands.GetAdParameterName()).(*model.Ad)
	require.True(t, ok)
	assert.Equal(t, "Mia's Tacos", ad.BusinessName)
	assert.Equal(t, "taqueria", ad.BusinessType)
	assert.Contains(t, writer.lastPrompt, "Mia's Tacos")
	assert.NotContains(t, writer.lastPrompt, config.Business.Name)
}

func TestSegmentPipelineDegradedAnalysis(t *testing.T) {
	store := newTestStore(t)
	aggregator := metrics.NewAggregator()
	writer := &fakeAdWriter{response: test.GetTestAdCreativeText()}
	chain := newSegmentChain(t, store, aggregator, writer)

	// An analyzer failure degrades to empty text. The segment still flows
	// through as an unknown event and is discarded by the decision.
	chainCtx := runSegment(chain, "")
	require.False(t, chainCtx.HasErrors(), "errors: %v", chainCtx.GetErrors())

	record := chainCtx.Get(commands.GetSegmentRecordParameterName()).(*model.SegmentRecord)
	assert.Equal(t, model.EventTypeUnknown, record.Event.EventType)
	assert.Equal(t, model.TierIgnore, record.Urgency)
	assert.Zero(t, writer.calls)
}
