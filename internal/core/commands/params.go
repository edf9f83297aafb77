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

// Package commands provides the concrete Command implementations of the
// segment pipeline: Gemini analysis, normalization, scoring, the ad
// decision, Groq ad generation, persistence, and metrics recording.
//
// Besides the chain's default input/output piping, commands publish their
// results under the canonical keys below so that downstream commands (the
// persister in particular) can read the full pipeline state for a segment.
package commands

import "google.golang.org/genai"

// SegmentRequest is the unit of work entering the pipeline: one uploaded
// video file and the half-open time window [StartSec, EndSec) to analyze.
// BusinessName and BusinessType, when set, override the configured sponsor
// for this segment's ad copy.
type SegmentRequest struct {
	VideoFile    *genai.File
	StartSec     int
	EndSec       int
	BusinessName string
	BusinessType string
}

// SegmentAnalysis is the output of the analyzer command: the raw model
// text for a segment plus call latency. Degraded marks segments where the
// model call failed and the pipeline continues with an empty description.
type SegmentAnalysis struct {
	Raw             string
	GeminiLatencyMs int64
	Degraded        bool
}

// GetSegmentRequestParameterName returns the canonical context key for the
// *SegmentRequest being processed.
func GetSegmentRequestParameterName() string {
	return "__SEGMENT_REQUEST__"
}

// GetSegmentAnalysisParameterName returns the canonical context key for the
// analyzer's *SegmentAnalysis output.
func GetSegmentAnalysisParameterName() string {
	return "__SEGMENT_ANALYSIS__"
}

// GetEventParameterName returns the canonical context key for the
// normalized *model.Event.
func GetEventParameterName() string {
	return "__EVENT__"
}

// GetScoreParameterName returns the canonical context key for the
// *model.ScoreResult.
func GetScoreParameterName() string {
	return "__SCORE__"
}

// GetDecisionParameterName returns the canonical context key for the
// *model.Decision.
func GetDecisionParameterName() string {
	return "__DECISION__"
}

// GetAdParameterName returns the canonical context key for the generated
// *model.Ad, present only when generation succeeded.
func GetAdParameterName() string {
	return "__AD__"
}

// GetAdErrorParameterName returns the canonical context key for the error
// recorded when ad generation was attempted but failed. Generation
// failures are tolerated, so they are stored here instead of on the
// chain's error map.
func GetAdErrorParameterName() string {
	return "__AD_ERROR__"
}

// GetAdLatencyParameterName returns the canonical context key for the ad
// generation latency in milliseconds, set whenever a generation call was
// attempted, whether or not it succeeded.
func GetAdLatencyParameterName() string {
	return "__AD_LATENCY_MS__"
}

// GetSegmentRecordParameterName returns the canonical context key for the
// persisted *model.SegmentRecord.
func GetSegmentRecordParameterName() string {
	return "__SEGMENT_RECORD__"
}
