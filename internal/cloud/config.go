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

// Package cloud holds the configuration structures loaded from TOML files
// and the clients for the external AI services (Gemini for segment
// analysis, Groq for ad generation).
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking for all harm categories.
// The inputs are trusted broadcast footage, so filtering only introduces
// spurious empty responses.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// PromptTemplates holds the text templates rendered before each model call.
type PromptTemplates struct {
	SegmentAnalysisPrompt string `toml:"segment_analysis"` // Template for the Gemini per-segment description prompt.
	AdCopyPrompt          string `toml:"ad_copy"`          // Template for the Groq ad-copy prompt.
}

// Storage configures where uploaded game footage is kept on local disk
// before it is shipped to the Gemini Files API.
type Storage struct {
	UploadDir    string `toml:"upload_dir"`     // Directory for uploaded video files.
	MaxUploadMB  int64  `toml:"max_upload_mb"`  // Upload size cap in megabytes.
	AllowedTypes string `toml:"allowed_types"`  // Comma-separated list of accepted video extensions.
}

// Database configures the embedded relational store.
type Database struct {
	Path string `toml:"path"` // SQLite database path; ":memory:" for tests.
}

// GeminiModel is the configuration for one named Gemini model.
type GeminiModel struct {
	Model              string  `toml:"model"`               // Model identifier (e.g. "gemini-2.0-flash").
	SystemInstructions string  `toml:"system_instructions"` // System instructions for the model.
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"` // Response MIME type (e.g. "application/json").
	RateLimit          int     `toml:"rate_limit"`    // Requests per second.
}

// AdModel is the configuration for one named ad-generation model served
// over an OpenAI-compatible chat completions endpoint.
type AdModel struct {
	Model            string  `toml:"model"`              // Model identifier (e.g. "llama-3.3-70b-versatile").
	Endpoint         string  `toml:"endpoint"`           // Chat completions URL.
	APIKeyEnvVar     string  `toml:"api_key_env_var"`    // Environment variable holding the API key.
	SystemPrompt     string  `toml:"system_prompt"`      // System prompt constraining the output shape.
	Temperature      float32 `toml:"temperature"`
	MaxTokens        int     `toml:"max_tokens"`
	RateLimit        int     `toml:"rate_limit"`         // Requests per second.
	TimeoutInSeconds int     `toml:"timeout_in_seconds"` // Per-request HTTP timeout.
}

// Thresholds configures the two score cut points of the ad decision.
type Thresholds struct {
	Soft       float64 `toml:"soft"`       // Minimum score for a soft ad.
	Aggressive float64 `toml:"aggressive"` // Minimum score for an aggressive ad.
}

// Business describes the sponsor on whose behalf ads are generated.
type Business struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// Config is the root application configuration, loaded from the base TOML
// file and overlaid by the runtime-specific one.
type Config struct {
	Application struct {
		Name              string `toml:"name"`
		GoogleProjectId   string `toml:"google_project_id"`      // Project used by the Cloud Trace/Monitoring exporters.
		GeminiAPIKeyEnv   string `toml:"gemini_api_key_env_var"` // Environment variable holding the Gemini API key.
		SegmentSeconds    int    `toml:"segment_seconds"`        // Length of each analyzed segment.
		ServerPort        int    `toml:"server_port"`
		FilePollSeconds   int    `toml:"file_poll_seconds"` // Interval for polling Gemini file processing state.
		FilePollMaxChecks int    `toml:"file_poll_max_checks"`
	} `toml:"application"`
	Storage         Storage                `toml:"storage"`
	Database        Database               `toml:"database"`
	PromptTemplates PromptTemplates        `toml:"prompt_templates"`
	Thresholds      Thresholds             `toml:"thresholds"`
	Business        Business               `toml:"business"`
	AgentModels     map[string]GeminiModel `toml:"agent_models"` // Gemini models, keyed by a logical name (e.g. "segment-analyzer").
	AdModels        map[string]AdModel     `toml:"ad_models"`    // Ad generators, keyed by a logical name (e.g. "groq").
}

// NewConfig returns a Config with its map fields initialized so the TOML
// decoder can populate them.
func NewConfig() *Config {
	return &Config{
		AgentModels: make(map[string]GeminiModel),
		AdModels:    make(map[string]AdModel),
	}
}
