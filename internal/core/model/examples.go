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

// Package model defines the data structures for the application. This file
// provides factory functions for hardcoded example instances used for
// few-shot prompting: embedding a concrete example of the desired JSON
// shape in the prompt keeps the model output consistent and parsable.
package model

// GetExampleAnalysis returns a sample GeminiAnalysis used in the segment
// analysis prompt to show the vision model the exact JSON shape expected.
func GetExampleAnalysis() *GeminiAnalysis {
	return &GeminiAnalysis{
		EventType:     "touchdown",
		Intensity:     IntensityHigh,
		Summary:       "Quarterback scrambles right and dives into the end zone for a 12-yard touchdown.",
		CrowdReaction: "The crowd roars and jumps to its feet.",
		Confidence:    0.92,
	}
}

// GetExampleAdCreative returns a sample AdCreative used in the ad
// generation prompt to pin down the JSON contract for the text model.
func GetExampleAdCreative() *AdCreative {
	return &AdCreative{
		AdCopy:          "That touchdown deserves a victory slice! Celebrate the big play with us tonight.",
		PromoSuggestion: "20% off any large pizza for the next hour",
		SocialHashtags:  []string{"#TouchdownDeal", "#GameDayEats"},
	}
}
