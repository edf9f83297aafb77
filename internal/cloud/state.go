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

// This file initializes and holds the clients for the external AI
// services. It acts as a dependency injection container: a single shared
// ServiceClients struct is created at startup and passed to the workflow
// commands that need model access.
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/genai"
)

// ServiceClients is the central container for external service handles.
type ServiceClients struct {
	GenAIClient *genai.Client                           // Client for the Gemini API (analysis + file uploads).
	AgentModels map[string]*QuotaAwareGenerativeAIModel // Configured Gemini models, keyed by logical name.
	AdWriters   map[string]*GroqClient                  // Configured ad-generation clients, keyed by logical name.

	filePollInterval  time.Duration
	filePollMaxChecks int
}

// NewCloudServiceClients builds all external clients from the loaded
// configuration. The Gemini client authenticates with an API key read from
// the environment variable named in the config.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	apiKey := os.Getenv(config.Application.GeminiAPIKeyEnv)
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	// Build a rate-limited wrapper for each configured Gemini model.
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		generationConfig := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
		}
		agentModels[amKey] = NewQuotaAwareModel(generationConfig, values.Model, gc.Models, values.RateLimit)
	}

	adWriters := make(map[string]*GroqClient)
	for adKey, values := range config.AdModels {
		adWriters[adKey] = NewGroqClient(values)
	}

	pollInterval := time.Duration(config.Application.FilePollSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	maxChecks := config.Application.FilePollMaxChecks
	if maxChecks <= 0 {
		maxChecks = 150
	}

	return &ServiceClients{
		GenAIClient:       gc,
		AgentModels:       agentModels,
		AdWriters:         adWriters,
		filePollInterval:  pollInterval,
		filePollMaxChecks: maxChecks,
	}, nil
}

// UploadVideo ships a local video file to the Gemini Files API and blocks
// until the service finishes processing it, returning the active file
// handle whose URI can be referenced from analysis prompts.
func (c *ServiceClients) UploadVideo(ctx context.Context, path string, mimeType string) (*genai.File, error) {
	file, err := c.GenAIClient.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("failed to upload video %s: %w", path, err)
	}

	// Uploaded videos stay in PROCESSING until the service has extracted
	// frames; the file is unusable in prompts before it turns ACTIVE.
	name := file.Name
	for i := 0; file.State == genai.FileStateProcessing; i++ {
		if i >= c.filePollMaxChecks {
			return nil, fmt.Errorf("file %s still processing after %d checks", name, i)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.filePollInterval):
		}
		file, err = c.GenAIClient.Files.Get(ctx, name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to poll file %s: %w", name, err)
		}
	}

	if file.State != genai.FileStateActive {
		return nil, fmt.Errorf("file %s entered state %s instead of ACTIVE", file.Name, file.State)
	}
	slog.Info("video ready for analysis", "file", file.Name, "uri", file.URI)
	return file, nil
}
