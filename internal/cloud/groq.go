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

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// GroqClient talks to Groq's OpenAI-compatible chat completions endpoint.
// It carries its own rate limiter and HTTP timeout so a slow or throttled
// generation call never stalls the rest of the pipeline.
type GroqClient struct {
	model        string
	endpoint     string
	apiKey       string
	systemPrompt string
	temperature  float32
	maxTokens    int
	limiter      *rate.Limiter
	httpClient   *http.Client
}

type groqChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatRequest struct {
	Model          string            `json:"model"`
	Messages       []groqChatMessage `json:"messages"`
	Temperature    float32           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat *groqRespFormat   `json:"response_format,omitempty"`
}

type groqRespFormat struct {
	Type string `json:"type"`
}

type groqChatResponse struct {
	Choices []struct {
		Message groqChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewGroqClient builds a client from an AdModel config block. The API key
// is read from the environment variable the config names.
func NewGroqClient(config AdModel) *GroqClient {
	rps := config.RateLimit
	if rps <= 0 {
		rps = 1
	}
	timeout := time.Duration(config.TimeoutInSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GroqClient{
		model:        config.Model,
		endpoint:     config.Endpoint,
		apiKey:       os.Getenv(config.APIKeyEnvVar),
		systemPrompt: config.SystemPrompt,
		temperature:  config.Temperature,
		maxTokens:    config.MaxTokens,
		limiter:      rate.NewLimiter(rate.Limit(rps), rps),
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Generate sends the rendered prompt as a single-turn chat completion and
// returns the raw message content. The request asks for a JSON object
// response so the caller can unmarshal directly.
func (g *GroqClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	payload := groqChatRequest{
		Model: g.model,
		Messages: []groqChatMessage{
			{Role: "system", Content: g.systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    g.temperature,
		MaxTokens:      g.maxTokens,
		ResponseFormat: &groqRespFormat{Type: "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed groqChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat completion error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
