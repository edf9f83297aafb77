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

// Package test provides shared helpers and canned model payloads for the
// test suite: a cached test configuration and realistic Gemini/Groq
// responses for exercising the pipeline without network calls.
package test

import (
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/cloud"
)

// StateManager caches the test configuration so TOML files are read once
// per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// SetupOS points the configuration loader at the test TOML files. The
// configs directory is resolved relative to this source file so tests can
// load it from any package's working directory.
func SetupOS() (err error) {
	_, thisFile, _, _ := runtime.Caller(0)
	configDir := filepath.Join(filepath.Dir(thisFile), "..", "..", "configs")
	err = os.Setenv(cloud.EnvConfigFilePrefix, configDir)
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// GetTestAnalysisText returns a well-formed Gemini segment analysis, the
// way the model responds when the strict-JSON prompt works.
func GetTestAnalysisText() string {
	return `{
  "event_type": "touchdown",
  "intensity": "high",
  "summary": "Quarterback connects on a 40-yard pass for a touchdown.",
  "crowd_reaction": "The crowd erupts with a deafening roar.",
  "confidence": 0.93
}`
}

// GetTestFencedAnalysisText returns the same analysis wrapped in a
// markdown code fence, which the model emits despite the JSON mime type
// often enough that the normalizer has to cope.
func GetTestFencedAnalysisText() string {
	return "```json\n" + GetTestAnalysisText() + "\n```"
}

// GetTestQuietAnalysisText returns an uneventful segment analysis.
func GetTestQuietAnalysisText() string {
	return `{
  "event_type": "unknown",
  "intensity": "low",
  "summary": "Players regroup between plays.",
  "crowd_reaction": "Scattered chatter.",
  "confidence": 0.35
}`
}

// GetTestAdCreativeText returns a well-formed Groq chat completion
// message content for an ad.
func GetTestAdCreativeText() string {
	return `{
  "ad_copy": "That touchdown deserves a touchdown deal! Grab a slice while the crowd is still roaring.",
  "promo_suggestion": "20% off all large pizzas for the next 30 minutes",
  "social_hashtags": ["#TouchdownDeal", "#GameDayPizza"]
}`
}

// GetTestGroqResponseBody wraps creative content in the OpenAI-compatible
// chat completions envelope returned by the Groq API.
func GetTestGroqResponseBody(content string) string {
	escaped := ""
	for _, r := range content {
		switch r {
		case '"':
			escaped += `\"`
		case '\\':
			escaped += `\\`
		case '\n':
			escaped += `\n`
		default:
			escaped += string(r)
		}
	}
	return `{"id":"chatcmpl-test","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"` + escaped + `"},"finish_reason":"stop"}]}`
}
