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

// This file holds the application state container and its initialization:
// configuration loading, external AI clients, the SQLite store, the metrics
// aggregator, and the assembled segment pipeline.
package main

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/cloud"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/metrics"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/services"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/workflow"
	"google.golang.org/genai"
)

// uploadState is the lifecycle of the current game video.
type uploadState string

const (
	uploadStateNone      uploadState = "none"
	uploadStateUploading uploadState = "uploading"
	uploadStateReady     uploadState = "ready"
	uploadStateFailed    uploadState = "failed"
)

// StateManager holds all shared dependencies plus the single remembered
// game video. One video is live at a time; a new upload or a reset
// replaces it.
type StateManager struct {
	config     *cloud.Config
	cloud      *cloud.ServiceClients
	store      *services.PulseStore
	aggregator *metrics.Aggregator
	pipeline   *workflow.SegmentPipeline

	mu          sync.Mutex
	videoFile   *genai.File
	videoState  uploadState
	uploadError error
}

var state = &StateManager{videoState: uploadStateNone}

// setVideoState records a transition of the remembered video.
func (s *StateManager) setVideoState(st uploadState, file *genai.File, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videoState = st
	s.videoFile = file
	s.uploadError = err
}

// videoStatus returns the current upload state, the file if ready, and the
// last upload error if any.
func (s *StateManager) videoStatus() (uploadState, *genai.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoState, s.videoFile, s.uploadError
}

// SetupOS points the configuration loader at the configs directory. The
// runtime defaults to "local" and can be overridden before startup.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the application configuration exactly once and caches it.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to set up environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// InitState creates the external clients, opens the store, and assembles
// the segment pipeline.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	dbPath := config.Database.Path
	if dbPath == "" {
		dbPath = "ad_pulse.db"
	}
	store, err := services.NewPulseStore(dbPath)
	if err != nil {
		panic(err)
	}
	state.store = store

	state.aggregator = metrics.NewAggregator()

	pipeline, err := workflow.NewSegmentPipeline(config, cloudClients, store, state.aggregator)
	if err != nil {
		panic(err)
	}
	state.pipeline = pipeline
}
