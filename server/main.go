// Copyright 2025 SuperBowl Ad Pulse Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the ad pulse backend server.
//
// The server accepts a game video upload, ships it to the Gemini Files
// API, and then analyzes five-second segments on demand: each analyze call
// runs the full pipeline (describe, normalize, score, decide, generate,
// persist, record) and the dashboard endpoints expose the stored events,
// ads, and running metrics.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/commands"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware("ad-pulse-server"))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		UploadRouter(apiV1)
		SegmentRouter(apiV1)
		DashboardRouter(apiV1)
	}

	port := config.Application.ServerPort
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	_ = state.store.Close()

	log.Println("Server exiting")
}

// UploadRouter registers the game video upload endpoints. The server
// remembers exactly one video at a time: the upload is accepted
// immediately and shipped to the Gemini Files API in the background, and
// the status endpoint reports when segment analysis can begin.
func UploadRouter(r *gin.RouterGroup) {
	uploads := r.Group("/uploads")
	{
		uploads.POST("", func(c *gin.Context) {
			file, err := c.FormFile("file")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing video file: %s", err.Error())})
				return
			}

			if !allowedVideoType(file.Filename) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type: %s", filepath.Ext(file.Filename))})
				return
			}
			if maxBytes := state.config.Storage.MaxUploadMB * 1024 * 1024; maxBytes > 0 && file.Size > maxBytes {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file exceeds %d MB limit", state.config.Storage.MaxUploadMB)})
				return
			}

			uploadDir := state.config.Storage.UploadDir
			if uploadDir == "" {
				uploadDir = os.TempDir()
			}
			if err := os.MkdirAll(uploadDir, 0o755); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create upload directory"})
				return
			}
			localPath := filepath.Join(uploadDir, filepath.Base(file.Filename))
			if err := c.SaveUploadedFile(file, localPath); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("upload file err: %s", err.Error())})
				return
			}

			state.setVideoState(uploadStateUploading, nil, nil)

			// The Files API upload plus processing poll can take minutes
			// for a long broadcast; do it off the request goroutine.
			go func(path, name string) {
				uploaded, err := state.cloud.UploadVideo(context.Background(), path, mimeTypeFor(name))
				if err != nil {
					slog.Error("video upload failed", "file", name, "error", err)
					state.setVideoState(uploadStateFailed, nil, err)
					return
				}
				state.setVideoState(uploadStateReady, uploaded, nil)
			}(localPath, file.Filename)

			c.JSON(http.StatusAccepted, gin.H{"status": string(uploadStateUploading), "file": file.Filename})
		})

		uploads.GET("/status", func(c *gin.Context) {
			st, videoFile, uploadErr := state.videoStatus()
			resp := gin.H{"status": string(st)}
			if videoFile != nil {
				resp["uri"] = videoFile.URI
			}
			if uploadErr != nil {
				resp["error"] = uploadErr.Error()
			}
			c.JSON(http.StatusOK, resp)
		})
	}
}

// analyzeRequest is the body of POST /segments/analyze. VideoURI, when
// set, must match the currently remembered upload; the business fields
// override the configured sponsor for this segment only.
type analyzeRequest struct {
	StartSec     int    `json:"start_sec"`
	EndSec       int    `json:"end_sec"`
	VideoURI     string `json:"video_uri"`
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
}

// SegmentRouter registers the per-segment analysis endpoint.
func SegmentRouter(r *gin.RouterGroup) {
	segments := r.Group("/segments")
	{
		segments.POST("/analyze", func(c *gin.Context) {
			var req analyzeRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %s", err.Error())})
				return
			}
			if req.StartSec < 0 || req.EndSec <= req.StartSec {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid segment window [%d, %d)", req.StartSec, req.EndSec)})
				return
			}

			st, videoFile, _ := state.videoStatus()
			if st != uploadStateReady || videoFile == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "no video ready for analysis; upload one first"})
				return
			}
			if req.VideoURI != "" && req.VideoURI != videoFile.URI {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown video %q", req.VideoURI)})
				return
			}

			outcome, err := state.pipeline.Analyze(c.Request.Context(), &commands.SegmentRequest{
				VideoFile:    videoFile,
				StartSec:     req.StartSec,
				EndSec:       req.EndSec,
				BusinessName: req.BusinessName,
				BusinessType: req.BusinessType,
			})
			if err != nil {
				slog.Error("segment analysis failed", "start_sec", req.StartSec, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}

			resp := gin.H{
				"event":           outcome.Record,
				"decision_reason": outcome.Record.DecisionReason,
			}
			if outcome.Ad != nil {
				resp["ad"] = outcome.Ad
			}
			if outcome.AdError != nil {
				resp["ad_error"] = outcome.AdError.Error()
			}
			c.JSON(http.StatusOK, resp)
		})
	}
}

// DashboardRouter registers the read side: event and ad lists, the metrics
// snapshot, health, and the demo reset.
func DashboardRouter(r *gin.RouterGroup) {
	r.GET("/events", func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
		if err != nil {
			limit = 0
		}
		events, err := state.store.ListEvents(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, events)
	})

	r.GET("/ads", func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
		if err != nil {
			limit = 0
		}
		ads, err := state.store.ListAds(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, ads)
	})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, state.aggregator.Snapshot())
	})

	r.POST("/reset", func(c *gin.Context) {
		if err := state.store.Reset(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		state.aggregator.Reset()
		state.setVideoState(uploadStateNone, nil, nil)
		c.JSON(http.StatusOK, gin.H{"status": "reset"})
	})

	r.GET("/health", func(c *gin.Context) {
		if err := state.store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	})
}

func allowedVideoType(filename string) bool {
	allowed := state.config.Storage.AllowedTypes
	if allowed == "" {
		allowed = ".mp4,.mov,.webm"
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range strings.Split(allowed, ",") {
		if ext == strings.TrimSpace(a) {
			return true
		}
	}
	return false
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	default:
		return "video/mp4"
	}
}
