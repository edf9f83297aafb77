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
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/scoring"
)

// EventNormalizer converts the raw model text for a segment into a
// normalized Event. Normalization is total: malformed or empty responses
// degrade to an unknown event rather than stopping the chain.
type EventNormalizer struct {
	cor.BaseCommand
}

func NewEventNormalizer(name string) *EventNormalizer {
	return &EventNormalizer{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires the analyzer output plus the originating request
// for the segment's time window.
func (t *EventNormalizer) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, okAnalysis := context.Get(t.GetInputParam()).(*SegmentAnalysis)
	_, okRequest := context.Get(GetSegmentRequestParameterName()).(*SegmentRequest)
	return okAnalysis && okRequest
}

func (t *EventNormalizer) Execute(context cor.Context) {
	analysis := context.Get(t.GetInputParam()).(*SegmentAnalysis)
	request := context.Get(GetSegmentRequestParameterName()).(*SegmentRequest)

	event := scoring.Normalize(analysis.Raw, request.StartSec, request.EndSec)

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetEventParameterName(), &event)
	context.Add(t.GetOutputParam(), &event)
}
