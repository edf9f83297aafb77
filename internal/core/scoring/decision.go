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

// This file implements the decision layer. It consumes only the numeric
// score and maps it onto one of three tiers through two half-open
// intervals. No model is consulted here: the decision must be auditable
// from the reason string alone, without re-deriving the score.
package scoring

import (
	"fmt"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
)

// Thresholds are the tier boundaries on the clamped score. Boundary values
// belong to the upper tier: exactly Soft is a soft ad, exactly Aggressive
// is an aggressive ad.
type Thresholds struct {
	Soft       float64
	Aggressive float64
}

// DefaultThresholds returns the baseline tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Soft: 4.0, Aggressive: 7.0}
}

// Decide maps a ScoreResult onto a Decision. Pure, deterministic, total.
// Tiers: score < Soft -> ignore; Soft <= score < Aggressive -> soft;
// score >= Aggressive -> aggressive. GenerateAd is true iff the tier is
// not ignore.
func Decide(res model.ScoreResult, th Thresholds) model.Decision {
	score := res.Score
	switch {
	case score < th.Soft:
		return model.Decision{
			Tier:       model.TierIgnore,
			GenerateAd: false,
			Reason:     fmt.Sprintf("score %.1f < %.0f -> ignore, no ad", score, th.Soft),
		}
	case score < th.Aggressive:
		return model.Decision{
			Tier:       model.TierSoft,
			GenerateAd: true,
			Reason:     fmt.Sprintf("score %.1f in [%.0f, %.0f) -> soft ad", score, th.Soft, th.Aggressive),
		}
	default:
		return model.Decision{
			Tier:       model.TierAggressive,
			GenerateAd: true,
			Reason:     fmt.Sprintf("score %.1f >= %.0f -> aggressive ad", score, th.Aggressive),
		}
	}
}
