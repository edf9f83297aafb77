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
	"context"
	"errors"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type retryCountKey struct{}

// QuotaAwareGenerativeAIModel decorates a Gemini model with a token-bucket
// rate limiter and a bounded retry loop, so callers never trip the per-model
// request quota and transient failures are absorbed here rather than in
// every command.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
}

// NewQuotaAwareModel wraps the given model handle and generation config
// with a limiter allowing requestsPerSecond calls per second.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// GenerateContent blocks until the rate limiter grants a slot, then calls
// the underlying model. Failed calls are retried up to MaxRetries, with the
// attempt count carried on the context.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
	if err != nil {
		retryCount, ok := ctx.Value(retryCountKey{}).(int)
		if !ok {
			retryCount = 0
		}
		if retryCount >= MaxRetries {
			return nil, errors.New("failed generation on max retries")
		}
		return q.GenerateContent(context.WithValue(ctx, retryCountKey{}, retryCount+1), content)
	}
	return resp, nil
}
