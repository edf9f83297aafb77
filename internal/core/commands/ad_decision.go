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
	"log/slog"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/cor"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/scoring"
)

// AdDecision maps a score to the three-way ad tier using the configured
// thresholds. The decision is pure and deterministic; this command only
// adapts it to the chain.
type AdDecision struct {
	cor.BaseCommand
	thresholds scoring.Thresholds
}

func NewAdDecision(name string, thresholds scoring.Thresholds) *AdDecision {
	return &AdDecision{
		BaseCommand: *cor.NewBaseCommand(name),
		thresholds:  thresholds,
	}
}

func (t *AdDecision) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(t.GetInputParam()).(*model.ScoreResult)
	return ok
}

func (t *AdDecision) Execute(context cor.Context) {
	result := context.Get(t.GetInputParam()).(*model.ScoreResult)

	decision := scoring.Decide(*result, t.thresholds)
	slog.InfoContext(context.GetContext(), "ad decision",
		"score", result.Score, "tier", decision.Tier, "reason", decision.Reason)

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetDecisionParameterName(), &decision)
	context.Add(t.GetOutputParam(), &decision)
}
