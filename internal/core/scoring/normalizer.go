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

// Package scoring contains the deterministic brain of the pipeline: the
// event normalizer, the scoring engine, and the decision layer. Everything
// in this package is a pure function over its inputs. No I/O, no clocks,
// no randomness, no model calls; two identical inputs always produce
// bit-identical outputs. That property is the whole point: every score and
// every ad decision can be explained and unit tested without touching a
// remote model.
//
// This file implements the normalizer. The vision model is prompted for
// strict JSON, but remote models drift: they wrap JSON in markdown fences,
// invent intensity spellings, or answer in prose. The normalizer absorbs
// all of that and always emits a well-formed Event, because a single bad
// segment must never abort the pipeline.
package scoring

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
)

// knownEventTypeOrder is the closed vocabulary the open-ended model output
// is folded onto, in the fixed order used for free-text scanning. The scan
// order matters for determinism when a prose answer mentions several types.
var knownEventTypeOrder = []string{
	"goal",
	"touchdown",
	"interception",
	"fumble",
	"big_play",
	"tackle",
	"penalty",
	"celebration",
	"injury",
	"halftime",
	"timeout",
	"score",
	model.EventTypeUnknown,
}

// knownEventTypes is the set view of the vocabulary. Anything outside it
// becomes "unknown" so that downstream components never have to
// special-case raw text.
var knownEventTypes = func() map[string]bool {
	set := make(map[string]bool, len(knownEventTypeOrder))
	for _, t := range knownEventTypeOrder {
		set[t] = true
	}
	return set
}()

// loudCrowdCues are the crowd-reaction keywords that flip the crowd_loud
// signal on. Matching is substring based on the lowercased reaction text.
var loudCrowdCues = []string{"loud", "roar", "cheer", "wild"}

// confidencePattern pulls a confidence figure out of free text, e.g.
// "confidence: 0.85" or "Confidence 0.4".
var confidencePattern = regexp.MustCompile(`(?i)confidence[^0-9]{0,5}([01](?:\.[0-9]+)?)`)

// Normalize maps whatever the vision collaborator returned for a segment
// onto a canonical Event. The input may be strict JSON, JSON wrapped in
// markdown fences, or a free-text blob. Missing or unparseable fields
// degrade to documented defaults (event_type "unknown", intensity absent,
// confidence 0, empty summary); Normalize never fails.
func Normalize(raw string, startSec, endSec int) model.Event {
	ev := model.Event{
		StartSec:  startSec,
		EndSec:    endSec,
		EventType: model.EventTypeUnknown,
	}

	text := StripFences(raw)
	if text == "" {
		return ev
	}

	var analysis model.GeminiAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err == nil {
		ev.EventType = NormalizeEventType(analysis.EventType)
		ev.Intensity = NormalizeIntensity(analysis.Intensity)
		ev.Confidence = clampConfidence(analysis.Confidence)
		ev.Summary = strings.TrimSpace(analysis.Summary)
		ev.CrowdReaction = strings.TrimSpace(analysis.CrowdReaction)
		ev.CrowdLoud = crowdIsLoud(ev.CrowdReaction)
		return ev
	}

	// Not JSON. Do a light keyword pass over the text so a prose answer
	// still yields a usable event instead of a discarded segment.
	lower := strings.ToLower(text)
	for _, t := range knownEventTypeOrder {
		if t != model.EventTypeUnknown && strings.Contains(lower, strings.ReplaceAll(t, "_", " ")) {
			ev.EventType = t
			break
		}
	}
	switch {
	case strings.Contains(lower, model.IntensityHigh):
		ev.Intensity = model.IntensityHigh
	case strings.Contains(lower, model.IntensityMedium):
		ev.Intensity = model.IntensityMedium
	case strings.Contains(lower, model.IntensityLow):
		ev.Intensity = model.IntensityLow
	}
	if m := confidencePattern.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			ev.Confidence = clampConfidence(f)
		}
	}
	ev.Summary = strings.TrimSpace(text)
	ev.CrowdLoud = crowdIsLoud(lower)
	return ev
}

// StripFences removes a surrounding markdown code fence (```json ... ``` or
// ``` ... ```) from a model response, returning the trimmed inner text.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+len("```"):]
	}
	if i := strings.Index(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// NormalizeEventType folds a raw event type string onto the closed
// vocabulary, lowercasing and snake_casing it first. Unrecognized values
// become "unknown".
func NormalizeEventType(raw string) string {
	t := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	if knownEventTypes[t] {
		return t
	}
	return model.EventTypeUnknown
}

// NormalizeIntensity folds a raw intensity string onto low/medium/high.
// Anything else, including empty input, maps to absent (empty string).
func NormalizeIntensity(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case model.IntensityLow:
		return model.IntensityLow
	case model.IntensityMedium:
		return model.IntensityMedium
	case model.IntensityHigh:
		return model.IntensityHigh
	}
	return ""
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func crowdIsLoud(reaction string) bool {
	lower := strings.ToLower(reaction)
	for _, cue := range loudCrowdCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
