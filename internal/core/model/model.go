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

// Package model defines the core data structures for the ad pulse pipeline.
// The entities follow a strict one-way lifecycle:
//
//	raw analysis -> Event -> ScoreResult -> Decision -> (optional) Ad
//
// None of these are ever updated in place; a re-analysis of a segment
// produces brand new instances. The persisted SegmentRecord is an
// append-only join of the pipeline outputs for one segment.
package model

import "time"

// Intensity levels reported by the vision model for an event. An empty
// string means the intensity was absent from the analysis.
const (
	IntensityLow    = "low"
	IntensityMedium = "medium"
	IntensityHigh   = "high"
)

// Tier is the three-way ad-generation decision outcome.
type Tier string

const (
	TierIgnore     Tier = "ignore"
	TierSoft       Tier = "soft"
	TierAggressive Tier = "aggressive"
)

// EventTypeUnknown is the fallback classification for segments where the
// vision model saw nothing significant or returned something unparseable.
const EventTypeUnknown = "unknown"

// Event is the normalized description of what happened in one video
// segment. It is immutable once produced by the normalizer; the scoring
// engine only ever reads it.
type Event struct {
	StartSec      int     `json:"start_sec"`
	EndSec        int     `json:"end_sec"`
	EventType     string  `json:"event_type"`
	Intensity     string  `json:"intensity,omitempty"`
	CrowdLoud     bool    `json:"crowd_loud"`
	CrowdReaction string  `json:"crowd_reaction,omitempty"`
	Confidence    float64 `json:"confidence"`
	Summary       string  `json:"summary"`
}

// RuleDelta is one named contribution to an event score. The breakdown is
// kept as an ordered slice, not a map, so that evaluation order survives
// serialization and two identical events always produce byte-identical
// breakdowns.
type RuleDelta struct {
	Rule  string  `json:"rule"`
	Delta float64 `json:"delta"`
}

// ScoreResult is the output of the scoring engine for exactly one Event.
// Score is clamped to [0, 10]; Breakdown lists the non-zero rule deltas in
// evaluation order for auditability.
type ScoreResult struct {
	Score     float64     `json:"score"`
	Breakdown []RuleDelta `json:"breakdown"`
}

// Decision is the output of the decision layer for exactly one ScoreResult.
type Decision struct {
	Tier       Tier   `json:"tier"`
	GenerateAd bool   `json:"generate_ad"`
	Reason     string `json:"reason"`
}

// GeminiAnalysis is the strict JSON contract the vision model is prompted
// to return for a segment. Anything that does not parse into this shape is
// degraded to defaults by the normalizer rather than rejected.
type GeminiAnalysis struct {
	EventType     string  `json:"event_type"`
	Intensity     string  `json:"intensity"`
	Summary       string  `json:"summary"`
	CrowdReaction string  `json:"crowd_reaction"`
	Confidence    float64 `json:"confidence"`
}

// AdCreative is the strict JSON contract the text model is prompted to
// return when a segment earns an ad.
type AdCreative struct {
	AdCopy          string   `json:"ad_copy"`
	PromoSuggestion string   `json:"promo_suggestion"`
	SocialHashtags  []string `json:"social_hashtags"`
}

// Ad is a generated advertisement linked to its source segment row.
type Ad struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	AdCopy          string    `json:"ad_copy"`
	PromoSuggestion string    `json:"promo_suggestion,omitempty"`
	SocialHashtags  []string  `json:"social_hashtags,omitempty"`
	Urgency         Tier      `json:"urgency"`
	BusinessName    string    `json:"business_name,omitempty"`
	BusinessType    string    `json:"business_type,omitempty"`
	GroqLatencyMs   int64     `json:"groq_latency_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// SegmentRecord is the persisted row for one analyzed segment: the Event
// fields joined with the scoring and decision outputs plus the analysis
// latency. Rows are append-only; the reset operation clears the table
// rather than editing rows.
type SegmentRecord struct {
	ID              string    `json:"id"`
	Event           Event     `json:"event"`
	Score           float64   `json:"score"`
	Breakdown       []RuleDelta `json:"breakdown"`
	GenerateAd      bool      `json:"generate_ad"`
	Urgency         Tier      `json:"urgency"`
	DecisionReason  string    `json:"decision_reason"`
	RawResponse     string    `json:"raw_response,omitempty"`
	GeminiLatencyMs int64     `json:"gemini_latency_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// PipelineOutcome is what one completed segment-pipeline run reports to the
// metrics aggregator. GroqAttempted distinguishes "no ad: score too low"
// (no generation call was made) from "no ad: generation failed".
type PipelineOutcome struct {
	Tier            Tier
	AdGenerated     bool
	GroqAttempted   bool
	GeminiLatencyMs int64
	GroqLatencyMs   int64
}

// MetricsSnapshot is an immutable copy of the running pipeline aggregates,
// shaped for the dashboard. DiscardRate is defined as 0 when no segments
// have been processed.
type MetricsSnapshot struct {
	AvgGeminiLatencyMs float64 `json:"avg_gemini_latency_ms"`
	AvgGroqLatencyMs   float64 `json:"avg_groq_latency_ms"`
	DiscardRate        float64 `json:"discard_rate"`
	AdsGenerated       int64   `json:"ads_generated"`
	TotalSegments      int64   `json:"total_segments"`
	SegmentsDiscarded  int64   `json:"segments_discarded"`
	TierIgnore         int64   `json:"tier_ignore"`
	TierSoft           int64   `json:"tier_soft"`
	TierAggressive     int64   `json:"tier_aggressive"`
}
