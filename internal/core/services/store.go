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

// Package services contains the persistence layer: an embedded SQLite
// store holding the analyzed segments and their generated ads.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                TEXT PRIMARY KEY,
	start_sec         INTEGER NOT NULL,
	end_sec           INTEGER NOT NULL,
	event_type        TEXT NOT NULL,
	intensity         TEXT NOT NULL DEFAULT '',
	crowd_loud        INTEGER NOT NULL DEFAULT 0,
	crowd_reaction    TEXT NOT NULL DEFAULT '',
	confidence        REAL NOT NULL DEFAULT 0,
	summary           TEXT NOT NULL DEFAULT '',
	score             REAL NOT NULL,
	breakdown         TEXT NOT NULL DEFAULT '[]',
	generate_ad       INTEGER NOT NULL DEFAULT 0,
	urgency           TEXT NOT NULL,
	decision_reason   TEXT NOT NULL DEFAULT '',
	raw_response      TEXT NOT NULL DEFAULT '',
	gemini_latency_ms INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS ads (
	id               TEXT PRIMARY KEY,
	event_id         TEXT NOT NULL REFERENCES events(id),
	ad_copy          TEXT NOT NULL,
	promo_suggestion TEXT NOT NULL DEFAULT '',
	social_hashtags  TEXT NOT NULL DEFAULT '[]',
	urgency          TEXT NOT NULL,
	business_name    TEXT NOT NULL DEFAULT '',
	business_type    TEXT NOT NULL DEFAULT '',
	groq_latency_ms  INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at);
CREATE INDEX IF NOT EXISTS idx_ads_event_id ON ads (event_id);
`

// PulseStore is the relational store for segment records and ads. Rows are
// append-only; Reset clears both tables for a fresh game.
type PulseStore struct {
	db *sql.DB
}

// NewPulseStore opens (or creates) the SQLite database at path and ensures
// the schema exists. Use ":memory:" for an ephemeral store in tests.
func NewPulseStore(path string) (*PulseStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// The pure-Go driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent pipeline workers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PulseStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *PulseStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *PulseStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertSegment appends one analyzed segment row.
func (s *PulseStore) InsertSegment(ctx context.Context, rec *model.SegmentRecord) error {
	breakdown, err := json.Marshal(rec.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal score breakdown: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (
			id, start_sec, end_sec, event_type, intensity, crowd_loud,
			crowd_reaction, confidence, summary, score, breakdown,
			generate_ad, urgency, decision_reason, raw_response,
			gemini_latency_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Event.StartSec, rec.Event.EndSec, rec.Event.EventType,
		rec.Event.Intensity, rec.Event.CrowdLoud, rec.Event.CrowdReaction,
		rec.Event.Confidence, rec.Event.Summary, rec.Score, string(breakdown),
		rec.GenerateAd, string(rec.Urgency), rec.DecisionReason,
		rec.RawResponse, rec.GeminiLatencyMs, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert segment %s: %w", rec.ID, err)
	}
	return nil
}

// InsertAd appends one generated ad row linked to its segment.
func (s *PulseStore) InsertAd(ctx context.Context, ad *model.Ad) error {
	hashtags, err := json.Marshal(ad.SocialHashtags)
	if err != nil {
		return fmt.Errorf("failed to marshal hashtags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ads (
			id, event_id, ad_copy, promo_suggestion, social_hashtags,
			urgency, business_name, business_type, groq_latency_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ad.ID, ad.EventID, ad.AdCopy, ad.PromoSuggestion, string(hashtags),
		string(ad.Urgency), ad.BusinessName, ad.BusinessType,
		ad.GroqLatencyMs, ad.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ad %s: %w", ad.ID, err)
	}
	return nil
}

// ListEvents returns segment records newest first, up to limit rows.
// A non-positive limit returns everything.
func (s *PulseStore) ListEvents(ctx context.Context, limit int) ([]*model.SegmentRecord, error) {
	query := `
		SELECT id, start_sec, end_sec, event_type, intensity, crowd_loud,
			crowd_reaction, confidence, summary, score, breakdown,
			generate_ad, urgency, decision_reason, raw_response,
			gemini_latency_ms, created_at
		FROM events ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*model.SegmentRecord, 0)
	for rows.Next() {
		rec := &model.SegmentRecord{}
		var breakdown, urgency string
		if err := rows.Scan(
			&rec.ID, &rec.Event.StartSec, &rec.Event.EndSec,
			&rec.Event.EventType, &rec.Event.Intensity, &rec.Event.CrowdLoud,
			&rec.Event.CrowdReaction, &rec.Event.Confidence, &rec.Event.Summary,
			&rec.Score, &breakdown, &rec.GenerateAd, &urgency,
			&rec.DecisionReason, &rec.RawResponse, &rec.GeminiLatencyMs,
			&rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		if err := json.Unmarshal([]byte(breakdown), &rec.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown for %s: %w", rec.ID, err)
		}
		rec.Urgency = model.Tier(urgency)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListAds returns generated ads newest first, up to limit rows.
// A non-positive limit returns everything.
func (s *PulseStore) ListAds(ctx context.Context, limit int) ([]*model.Ad, error) {
	query := `
		SELECT id, event_id, ad_copy, promo_suggestion, social_hashtags,
			urgency, business_name, business_type, groq_latency_ms, created_at
		FROM ads ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*model.Ad, 0)
	for rows.Next() {
		ad := &model.Ad{}
		var hashtags, urgency string
		if err := rows.Scan(
			&ad.ID, &ad.EventID, &ad.AdCopy, &ad.PromoSuggestion, &hashtags,
			&urgency, &ad.BusinessName, &ad.BusinessType, &ad.GroqLatencyMs,
			&ad.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ad row: %w", err)
		}
		if err := json.Unmarshal([]byte(hashtags), &ad.SocialHashtags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hashtags for %s: %w", ad.ID, err)
		}
		ad.Urgency = model.Tier(urgency)
		out = append(out, ad)
	}
	return out, rows.Err()
}

// CountSegments returns the number of persisted segment rows.
func (s *PulseStore) CountSegments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// Reset clears both tables in one transaction so the dashboard never sees
// ads without their events during a fresh demo run.
func (s *PulseStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ads`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear ads: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear events: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
