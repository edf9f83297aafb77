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

// Package cor (Chain of Responsibility) provides the building blocks for
// workflows: a Command is an atomic unit of work, a Chain executes commands
// in order while piping each command's output into the next command's
// input, and a Context is the shared property bag that carries data and
// errors through one workflow execution.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn is the default key for a command's primary input. The chain
	// populates it with the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command places its primary
	// output for the chain to pipe forward.
	CtxOut = "__OUT__"
)

// Context is the shared state for a single workflow execution. Commands
// read their inputs from it and write their results back to it.
type Context interface {
	// SetContext sets the standard Go context, used for cancellation and
	// trace propagation.
	SetContext(ctx context.Context)

	// GetContext returns the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair, returning the Context for chaining.
	Add(key string, value interface{}) Context

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// AddError records an error, keyed by the command that produced it.
	AddError(key string, err error)

	// GetErrors returns all errors collected so far.
	GetErrors() map[string]error

	// HasErrors reports whether any error has been recorded.
	HasErrors() bool

	// AddTempFile tracks a temporary file for cleanup at Close.
	AddTempFile(file string)

	// GetTempFiles returns the tracked temporary file paths.
	GetTempFiles() []string

	// Close releases workflow resources, deleting tracked temp files.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	// Execute runs the business logic against the shared Context.
	Execute(context Context)
}

// Command is an atomic, testable unit of work within a chain.
type Command interface {
	Executable

	// GetName returns the command name used for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key holding the primary input.
	GetInputParam() string

	// GetOutputParam returns the context key for the primary output.
	GetOutputParam() string

	// IsExecutable reports whether the command can run with the current
	// context state.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter for successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter for failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command composed of other Commands, executed in order.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing
	// after a command records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
