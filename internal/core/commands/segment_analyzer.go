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
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/cloud"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/cor"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
	"google.golang.org/genai"
)

// SegmentAnalyzer asks the vision model to describe one time window of the
// uploaded game video. The prompt pins the model to a strict JSON shape
// with a few-shot example, and the video part carries start/end offsets so
// only the segment's frames are considered.
//
// A failed model call does not stop the chain: the command emits a
// degraded, empty analysis and the rest of the pipeline records a
// no-event segment for the window.
type SegmentAnalyzer struct {
	cor.BaseCommand
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel
	template                 *template.Template
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
	geminiRetryCounter       metric.Int64Counter
}

// NewSegmentAnalyzer constructs the analyzer command with its token and
// retry counters registered.
func NewSegmentAnalyzer(
	name string,
	generativeAIModel *cloud.QuotaAwareGenerativeAIModel,
	template *template.Template) *SegmentAnalyzer {
	out := &SegmentAnalyzer{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		template:          template}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.geminiRetryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.retry", out.GetName()))

	return out
}

// IsExecutable requires a *SegmentRequest on the input parameter.
func (t *SegmentAnalyzer) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(t.GetInputParam()).(*SegmentRequest)
	return ok
}

// GenerateParams builds the template substitutions for one request.
func (t *SegmentAnalyzer) GenerateParams(request *SegmentRequest) map[string]interface{} {
	params := make(map[string]interface{})
	params["TIME_START"] = fmt.Sprintf("%d", request.StartSec)
	params["TIME_END"] = fmt.Sprintf("%d", request.EndSec)

	// Few-shot prompting: a complete well-formed JSON example keeps the
	// model's output parseable far more often than schema prose alone.
	exampleAnalysis, _ := json.Marshal(model.GetExampleAnalysis())
	params["EXAMPLE_JSON"] = string(exampleAnalysis)
	return params
}

// Execute renders the prompt, calls Gemini with the segment's video
// offsets, and publishes a *SegmentAnalysis for the normalizer.
func (t *SegmentAnalyzer) Execute(context cor.Context) {
	request := context.Get(t.GetInputParam()).(*SegmentRequest)
	context.Add(GetSegmentRequestParameterName(), request)

	var buffer bytes.Buffer
	if err := t.template.Execute(&buffer, t.GenerateParams(request)); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{
			{Text: buffer.String()},
			{
				FileData: &genai.FileData{
					FileURI:  request.VideoFile.URI,
					MIMEType: request.VideoFile.MIMEType,
				},
				VideoMetadata: &genai.VideoMetadata{
					StartOffset: time.Duration(request.StartSec) * time.Second,
					EndOffset:   time.Duration(request.EndSec) * time.Second,
				},
			},
		},
			Role: "user"},
	}

	start := time.Now()
	out, err := cloud.GenerateMultiModalResponse(context.GetContext(), t.geminiInputTokenCounter, t.geminiOutputTokenCounter, t.geminiRetryCounter, 0, t.generativeAIModel, contents)
	latency := time.Since(start).Milliseconds()

	analysis := &SegmentAnalysis{Raw: out, GeminiLatencyMs: latency}
	if err != nil {
		// Degrade instead of failing: the segment is still recorded, as a
		// no-event row, so the timeline has no holes.
		t.GetErrorCounter().Add(context.GetContext(), 1)
		slog.Warn("segment analysis failed, recording degraded segment",
			"start_sec", request.StartSec, "end_sec", request.EndSec, "error", err)
		analysis.Raw = ""
		analysis.Degraded = true
	} else {
		t.GetSuccessCounter().Add(context.GetContext(), 1)
	}

	context.Add(GetSegmentAnalysisParameterName(), analysis)
	context.Add(t.GetOutputParam(), analysis)
}
