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

// This file implements the scoring engine: a fold over an ordered list of
// independent rule evaluators. Each rule inspects the Event and returns a
// delta; non-zero deltas are recorded into the breakdown in rule order, the
// deltas are summed once, and the sum is clamped once to [0, 10]. Keeping
// the rules as data makes each one testable in isolation and keeps the
// breakdown order stable across runs.
package scoring

import (
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
)

// Score bounds for the clamp. Clamping happens exactly once, after all
// rule deltas are summed.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// lowConfidenceThreshold is the confidence below which the penalty rule
// fires.
const lowConfidenceThreshold = 0.5

// majorScoringTypes is the vocabulary of event types that carry the big
// ad-worthiness bonus.
var majorScoringTypes = map[string]bool{
	"goal":      true,
	"touchdown": true,
	"score":     true,
}

// rule is one named, independent score contribution. Eval must be a pure
// function of the Event.
type rule struct {
	name string
	eval func(ev model.Event) float64
}

// rules is the fixed evaluation order. Rules 1-4 are bonuses, 5-6 are
// penalties; all are evaluated independently per event. The high and
// medium intensity rules cannot co-fire because intensity is a
// single-valued field.
var rules = []rule{
	{name: "major_type", eval: func(ev model.Event) float64 {
		if majorScoringTypes[ev.EventType] {
			return 4
		}
		return 0
	}},
	{name: "high_intensity", eval: func(ev model.Event) float64 {
		if ev.Intensity == model.IntensityHigh {
			return 2
		}
		return 0
	}},
	{name: "loud_crowd", eval: func(ev model.Event) float64 {
		if ev.CrowdLoud {
			return 2
		}
		return 0
	}},
	{name: "medium_intensity", eval: func(ev model.Event) float64 {
		if ev.Intensity == model.IntensityMedium {
			return 1
		}
		return 0
	}},
	{name: "low_confidence", eval: func(ev model.Event) float64 {
		if ev.Confidence < lowConfidenceThreshold {
			return -3
		}
		return 0
	}},
	{name: "unknown_type", eval: func(ev model.Event) float64 {
		if ev.EventType == "" || ev.EventType == model.EventTypeUnknown || !knownEventTypes[ev.EventType] {
			return -2
		}
		return 0
	}},
}

// Score evaluates the rule set against an Event and returns the clamped
// score with its breakdown. Pure, deterministic, and total: defined for
// every well-formed Event, never errors, never mutates its input.
func Score(ev model.Event) model.ScoreResult {
	sum := 0.0
	breakdown := make([]model.RuleDelta, 0, len(rules))
	for _, r := range rules {
		delta := r.eval(ev)
		if delta == 0 {
			continue
		}
		sum += delta
		breakdown = append(breakdown, model.RuleDelta{Rule: r.name, Delta: delta})
	}
	return model.ScoreResult{Score: clampScore(sum), Breakdown: breakdown}
}

func clampScore(s float64) float64 {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
