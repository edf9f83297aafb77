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

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
)

func TestNormalizeStrictJSON(t *testing.T) {
	raw := `{"event_type": "Touchdown", "intensity": "HIGH", "summary": "QB sneak for six.",
		"crowd_reaction": "The crowd roars", "confidence": 0.92}`
	ev := Normalize(raw, 10, 15)

	assert.Equal(t, 10, ev.StartSec)
	assert.Equal(t, 15, ev.EndSec)
	assert.Equal(t, "touchdown", ev.EventType)
	assert.Equal(t, model.IntensityHigh, ev.Intensity)
	assert.Equal(t, 0.92, ev.Confidence)
	assert.Equal(t, "QB sneak for six.", ev.Summary)
	assert.True(t, ev.CrowdLoud)
}

func TestNormalizeMarkdownFencedJSON(t *testing.T) {
	raw := "```json\n{\"event_type\": \"big play\", \"intensity\": \"medium\", \"confidence\": 0.7}\n```"
	ev := Normalize(raw, 0, 5)

	assert.Equal(t, "big_play", ev.EventType)
	assert.Equal(t, model.IntensityMedium, ev.Intensity)
	assert.Equal(t, 0.7, ev.Confidence)
	assert.False(t, ev.CrowdLoud)
}

func TestNormalizeEmptyInputDegrades(t *testing.T) {
	for _, raw := range []string{"", "   ", "```\n```"} {
		ev := Normalize(raw, 5, 10)
		assert.Equal(t, model.EventTypeUnknown, ev.EventType)
		assert.Equal(t, "", ev.Intensity)
		assert.Equal(t, 0.0, ev.Confidence)
		assert.Equal(t, "", ev.Summary)
	}
}

func TestNormalizeProseFallback(t *testing.T) {
	raw := "A fumble near midfield, high intensity, the crowd goes wild. Confidence: 0.8"
	ev := Normalize(raw, 20, 25)

	assert.Equal(t, "fumble", ev.EventType)
	assert.Equal(t, model.IntensityHigh, ev.Intensity)
	assert.Equal(t, 0.8, ev.Confidence)
	assert.True(t, ev.CrowdLoud)
	assert.NotEmpty(t, ev.Summary)
}

func TestNormalizeUnrecognizedTypeAndIntensity(t *testing.T) {
	raw := `{"event_type": "zamboni crash", "intensity": "extreme", "confidence": 0.6}`
	ev := Normalize(raw, 0, 5)

	assert.Equal(t, model.EventTypeUnknown, ev.EventType)
	assert.Equal(t, "", ev.Intensity, "unrecognized intensity maps to absent")
}

func TestNormalizeClampsConfidence(t *testing.T) {
	ev := Normalize(`{"event_type": "goal", "confidence": 3.5}`, 0, 5)
	assert.Equal(t, 1.0, ev.Confidence)

	ev = Normalize(`{"event_type": "goal", "confidence": -0.3}`, 0, 5)
	assert.Equal(t, 0.0, ev.Confidence)
}

func TestNormalizeNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{
		"{not json",
		"[]",
		`{"event_type": 42}`,
		"```json\ngarbage\n```",
		"\x00\x01binary",
	}
	for _, raw := range inputs {
		ev := Normalize(raw, 0, 5)
		assert.Equal(t, 0, ev.StartSec)
		assert.Equal(t, 5, ev.EndSec)
		assert.NotEmpty(t, ev.EventType)
	}
}

func TestNormalizeQuietCrowdIsNotLoud(t *testing.T) {
	raw := `{"event_type": "timeout", "crowd_reaction": "stadium falls silent", "confidence": 0.9}`
	ev := Normalize(raw, 0, 5)
	assert.False(t, ev.CrowdLoud)
	assert.Equal(t, "stadium falls silent", ev.CrowdReaction)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, StripFences("Sure, here you go:\n```json\n{\"a\":1}\n```"))
}
