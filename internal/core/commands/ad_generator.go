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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/cloud"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/cor"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/scoring"
)

// AdWriter generates ad creative text from a rendered prompt. It is the
// seam that lets tests substitute a canned writer for the Groq client.
type AdWriter interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AdGenerator asks the text model for ad creative when the decision tier
// calls for one. Generation failures are tolerated: the segment is still
// persisted, with the failure stored under the ad-error parameter instead
// of the chain's error map.
type AdGenerator struct {
	cor.BaseCommand
	config   *cloud.Config
	adWriter AdWriter
	template *template.Template
}

func NewAdGenerator(
	name string,
	config *cloud.Config,
	adWriter AdWriter,
	template *template.Template) *AdGenerator {
	return &AdGenerator{
		BaseCommand: *cor.NewBaseCommand(name),
		config:      config,
		adWriter:    adWriter,
		template:    template,
	}
}

func (t *AdGenerator) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(t.GetInputParam()).(*model.Decision)
	return ok
}

// businessFor resolves the sponsor for a segment: the per-request override
// when the caller set one, otherwise the configured business.
func (t *AdGenerator) businessFor(request *SegmentRequest) (name, businessType string) {
	name = t.config.Business.Name
	businessType = t.config.Business.Type
	if request != nil && request.BusinessName != "" {
		name = request.BusinessName
	}
	if request != nil && request.BusinessType != "" {
		businessType = request.BusinessType
	}
	return name, businessType
}

// GenerateParams builds the template substitutions from the event, the
// decision tier, and the resolved sponsor.
func (t *AdGenerator) GenerateParams(event *model.Event, decision *model.Decision, businessName, businessType string) map[string]interface{} {
	params := make(map[string]interface{})
	params["EVENT_TYPE"] = event.EventType
	params["EVENT_SUMMARY"] = event.Summary
	params["INTENSITY"] = event.Intensity
	params["URGENCY"] = string(decision.Tier)
	params["BUSINESS_NAME"] = businessName
	params["BUSINESS_TYPE"] = businessType

	exampleCreative, _ := json.Marshal(model.GetExampleAdCreative())
	params["EXAMPLE_JSON"] = string(exampleCreative)
	return params
}

func (t *AdGenerator) Execute(context cor.Context) {
	decision := context.Get(t.GetInputParam()).(*model.Decision)
	context.Add(t.GetOutputParam(), decision)

	if !decision.GenerateAd {
		t.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	event, ok := context.Get(GetEventParameterName()).(*model.Event)
	if !ok {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("missing normalized event for ad generation"))
		return
	}

	request, _ := context.Get(GetSegmentRequestParameterName()).(*SegmentRequest)
	businessName, businessType := t.businessFor(request)

	var buffer bytes.Buffer
	if err := t.template.Execute(&buffer, t.GenerateParams(event, decision, businessName, businessType)); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute ad prompt template: %w", err))
		return
	}

	start := time.Now()
	raw, err := t.adWriter.Generate(context.GetContext(), buffer.String())
	latency := time.Since(start).Milliseconds()
	context.Add(GetAdLatencyParameterName(), latency)
	if err != nil {
		// Ad generation is best effort. Keep the segment, remember why the
		// ad is missing.
		t.GetErrorCounter().Add(context.GetContext(), 1)
		slog.Warn("ad generation failed, persisting segment without ad",
			"tier", decision.Tier, "error", err)
		context.Add(GetAdErrorParameterName(), err)
		return
	}

	var creative model.AdCreative
	if err := json.Unmarshal([]byte(scoring.StripFences(raw)), &creative); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		slog.Warn("ad creative was not valid JSON, persisting segment without ad", "error", err)
		context.Add(GetAdErrorParameterName(), fmt.Errorf("unparseable ad creative: %w", err))
		return
	}

	ad := &model.Ad{
		ID:              uuid.New().String(),
		AdCopy:          creative.AdCopy,
		PromoSuggestion: creative.PromoSuggestion,
		SocialHashtags:  creative.SocialHashtags,
		Urgency:         decision.Tier,
		BusinessName:    businessName,
		BusinessType:    businessType,
		GroqLatencyMs:   latency,
		CreatedAt:       time.Now().UTC(),
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetAdParameterName(), ad)
}
