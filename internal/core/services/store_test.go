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

package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kbruhadesh/superbowl-ad-pulse/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PulseStore {
	t.Helper()
	store, err := NewPulseStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestRecord(startSec int, created time.Time) *model.SegmentRecord {
	return &model.SegmentRecord{
		ID: uuid.New().String(),
		Event: model.Event{
			StartSec:      startSec,
			EndSec:        startSec + 5,
			EventType:     "touchdown",
			Intensity:     model.IntensityHigh,
			CrowdLoud:     true,
			CrowdReaction: "the crowd roars",
			Confidence:    0.9,
			Summary:       "a long touchdown pass",
		},
		Score: 8,
		Breakdown: []model.RuleDelta{
			{Rule: "major_type", Delta: 4},
			{Rule: "high_intensity", Delta: 2},
			{Rule: "loud_crowd", Delta: 2},
		},
		GenerateAd:      true,
		Urgency:         model.TierAggressive,
		DecisionReason:  "score 8.0 >= 7 -> aggressive ad",
		RawResponse:     `{"event_type":"touchdown"}`,
		GeminiLatencyMs: 420,
		CreatedAt:       created,
	}
}

func TestInsertAndListEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	first := newTestRecord(0, base)
	second := newTestRecord(5, base.Add(time.Second))
	require.NoError(t, store.InsertSegment(ctx, first))
	require.NoError(t, store.InsertSegment(ctx, second))

	events, err := store.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, second.ID, events[0].ID)
	assert.Equal(t, first.ID, events[1].ID)

	got := events[1]
	assert.Equal(t, first.Event, got.Event)
	assert.Equal(t, first.Score, got.Score)
	assert.Equal(t, first.Breakdown, got.Breakdown)
	assert.Equal(t, first.Urgency, got.Urgency)
	assert.Equal(t, first.DecisionReason, got.DecisionReason)
	assert.Equal(t, first.GeminiLatencyMs, got.GeminiLatencyMs)
	assert.True(t, got.GenerateAd)
}

func TestListEventsHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.InsertSegment(ctx, newTestRecord(i*5, base.Add(time.Duration(i)*time.Second))))
	}

	events, err := store.ListEvents(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	n, err := store.CountSegments(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestInsertAndListAds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := newTestRecord(0, time.Now().UTC())
	require.NoError(t, store.InsertSegment(ctx, rec))

	ad := &model.Ad{
		ID:              uuid.New().String(),
		EventID:         rec.ID,
		AdCopy:          "Touchdown! Celebrate with a slice.",
		PromoSuggestion: "20% off large pizzas",
		SocialHashtags:  []string{"#TouchdownDeal", "#GameDay"},
		Urgency:         model.TierAggressive,
		BusinessName:    "Tony's Pizzeria",
		BusinessType:    "pizza restaurant",
		GroqLatencyMs:   150,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.InsertAd(ctx, ad))

	ads, err := store.ListAds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, ad.EventID, ads[0].EventID)
	assert.Equal(t, ad.AdCopy, ads[0].AdCopy)
	assert.Equal(t, ad.SocialHashtags, ads[0].SocialHashtags)
	assert.Equal(t, model.TierAggressive, ads[0].Urgency)
}

func TestResetClearsBothTables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := newTestRecord(0, time.Now().UTC())
	require.NoError(t, store.InsertSegment(ctx, rec))
	require.NoError(t, store.InsertAd(ctx, &model.Ad{
		ID:        uuid.New().String(),
		EventID:   rec.ID,
		AdCopy:    "buy now",
		Urgency:   model.TierSoft,
		CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, store.Reset(ctx))

	events, err := store.ListEvents(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, events)

	ads, err := store.ListAds(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ads)
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
