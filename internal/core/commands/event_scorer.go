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
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/scoring"
)

// EventScorer runs the deterministic rule set over the normalized event
// and publishes the clamped score with its per-rule breakdown.
type EventScorer struct {
	cor.BaseCommand
}

func NewEventScorer(name string) *EventScorer {
	return &EventScorer{BaseCommand: *cor.NewBaseCommand(name)}
}

func (t *EventScorer) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(t.GetInputParam()).(*model.Event)
	return ok
}

func (t *EventScorer) Execute(context cor.Context) {
	event := context.Get(t.GetInputParam()).(*model.Event)

	result := scoring.Score(*event)

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetScoreParameterName(), &result)
	context.Add(t.GetOutputParam(), &result)
}
