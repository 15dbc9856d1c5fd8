// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/storage"
)

// Run exercises a backend. newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Run("days and meals", func(t *testing.T) { testDaysAndMeals(t, newStore(t)) })
	t.Run("meal ownership", func(t *testing.T) { testMealOwnership(t, newStore(t)) })
	t.Run("workouts", func(t *testing.T) { testWorkouts(t, newStore(t)) })
	t.Run("profiles", func(t *testing.T) { testProfiles(t, newStore(t)) })
	t.Run("chat", func(t *testing.T) { testChat(t, newStore(t)) })
	t.Run("weekly plan and targets", func(t *testing.T) { testPlanAndTargets(t, newStore(t)) })
	t.Run("reports", func(t *testing.T) { testReports(t, newStore(t)) })
}

func testDaysAndMeals(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	snap, err := s.GetDaySnapshot(ctx, "u1", "2026-03-04")
	require.NoError(t, err)
	assert.Nil(t, snap.Day)
	assert.Empty(t, snap.Meals)

	mood := "tired"
	day := &storage.Day{UserID: "u1", Date: "2026-03-04", MoodNote: &mood}
	require.NoError(t, s.UpsertDay(ctx, day))
	assert.Equal(t, "u1:2026-03-04", day.ID)

	// A later upsert without a note keeps the stored one.
	require.NoError(t, s.UpsertDay(ctx, &storage.Day{UserID: "u1", Date: "2026-03-04"}))

	m := &storage.MealLog{
		UserID:     "u1",
		Date:       "2026-03-04",
		MealType:   meal.Dinner,
		SourceText: "a soft pretzel",
		Items: []meal.Item{{
			RawText: "a soft pretzel",
			Name:    "soft pretzel",
			NutritionEstimate: &meal.NutritionEstimate{
				CaloriesKcal: meal.Float(390),
				Source:       meal.SourceHeuristic,
				Confidence:   meal.ConfidenceLow,
			},
		}},
		Totals:     &meal.NutritionEstimate{CaloriesKcal: meal.Float(390)},
		Confidence: meal.ConfidenceMedium,
	}
	require.NoError(t, s.UpsertMeal(ctx, m))
	require.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, "u1:2026-03-04", m.DayID)

	require.NoError(t, s.UpsertMeal(ctx, &storage.MealLog{UserID: "u1", Date: "2026-03-05", MealType: meal.Lunch}))

	snap, err = s.GetDaySnapshot(ctx, "u1", "2026-03-04")
	require.NoError(t, err)
	require.NotNil(t, snap.Day)
	require.NotNil(t, snap.Day.MoodNote)
	assert.Equal(t, "tired", *snap.Day.MoodNote)
	require.Len(t, snap.Meals, 1)
	assert.Equal(t, meal.Dinner, snap.Meals[0].MealType)
	require.Len(t, snap.Meals[0].Items, 1)
	assert.Equal(t, "soft pretzel", snap.Meals[0].Items[0].Name)
	require.NotNil(t, snap.Meals[0].Totals)
	assert.Equal(t, 390.0, *snap.Meals[0].Totals.CaloriesKcal)

	got, err := s.GetMeal(ctx, "u1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, "a soft pretzel", got.SourceText)

	got.MealType = meal.Snack
	require.NoError(t, s.UpsertMeal(ctx, got))
	again, err := s.GetMeal(ctx, "u1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, meal.Snack, again.MealType)

	meals, err := s.ListMeals(ctx, "u1", "2026-03-01", "2026-03-07")
	require.NoError(t, err)
	assert.Len(t, meals, 2)

	meals, err = s.ListMeals(ctx, "u1", "2026-03-05", "")
	require.NoError(t, err)
	assert.Len(t, meals, 1)
}

func testMealOwnership(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	m := &storage.MealLog{UserID: "owner", Date: "2026-03-04", MealType: meal.Lunch}
	require.NoError(t, s.UpsertMeal(ctx, m))

	_, err := s.GetMeal(ctx, "someone-else", m.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetMeal(ctx, "owner", uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	hijack := &storage.MealLog{ID: m.ID, UserID: "someone-else", Date: "2026-03-04", MealType: meal.Snack}
	assert.ErrorIs(t, s.UpsertMeal(ctx, hijack), storage.ErrNotFound)
}

func testWorkouts(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	dist := 5.0
	w := &storage.WorkoutLog{
		UserID: "u1", Date: "2026-03-02", Type: "Run", Minutes: 60,
		Intensity: "hard", Description: "ran 5 km", Status: "completed", DistanceKm: &dist,
	}
	require.NoError(t, s.UpsertWorkout(ctx, w))
	require.NoError(t, s.UpsertWorkout(ctx, &storage.WorkoutLog{
		UserID: "u1", Date: "2026-03-04", Type: "Yoga", Minutes: 30, Intensity: "easy", Status: "completed",
	}))

	list, err := s.ListWorkouts(ctx, "u1", "2026-03-02", "2026-03-08")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Run", list[0].Type)
	require.NotNil(t, list[0].DistanceKm)
	assert.Equal(t, 5.0, *list[0].DistanceKm)

	snap, err := s.GetDaySnapshot(ctx, "u1", "2026-03-04")
	require.NoError(t, err)
	require.NotNil(t, snap.Day)
	require.Len(t, snap.Workouts, 1)
	assert.Equal(t, "Yoga", snap.Workouts[0].Type)
}

func testProfiles(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, s.UpsertProfile(ctx, &storage.Profile{
		UserID:         "u1",
		Name:           "Sam",
		OnboardingStep: 2,
		Answers:        map[string]string{"name": "Sam"},
		Insights:       []string{"Protein was low"},
	}))

	p, err = s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Sam", p.Name)
	assert.Equal(t, 2, p.OnboardingStep)
	assert.False(t, p.OnboardingCompleted)
	assert.Equal(t, "Sam", p.Answers["name"])
	assert.Equal(t, []string{"Protein was low"}, p.Insights)

	p.OnboardingCompleted = true
	p.Goal = "lose"
	require.NoError(t, s.UpsertProfile(ctx, p))

	p, err = s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, p.OnboardingCompleted)
	assert.Equal(t, "lose", p.Goal)
}

func testChat(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	base := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"one", "two", "three"} {
		require.NoError(t, s.InsertMessage(ctx, &storage.ChatMessage{
			UserID:    "u1",
			Role:      "user",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.InsertMessage(ctx, &storage.ChatMessage{UserID: "u2", Role: "user", Content: "other"}))

	msgs, err := s.ListMessages(ctx, "u1", 2, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Content)
	assert.Equal(t, "three", msgs[1].Content)

	before := base.Add(2 * time.Minute)
	msgs, err = s.ListMessages(ctx, "u1", 10, &before)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)
}

func testPlanAndTargets(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	plan, err := s.GetWeeklyPlan(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, plan)

	require.NoError(t, s.UpsertWeeklyPlan(ctx, &storage.WeeklyPlan{
		UserID: "u1",
		Entries: []storage.WeeklyPlanEntry{
			{Weekday: 0, Type: "Strength", Minutes: 45, Intensity: "moderate"},
			{Weekday: 6, Type: "Rest", Minutes: 0, Intensity: "easy"},
		},
	}))
	plan, err = s.GetWeeklyPlan(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, plan)
	require.Len(t, plan.Entries, 2)
	assert.Equal(t, "Rest", plan.Entries[1].Type)

	targets, err := s.GetTargets(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, targets)

	require.NoError(t, s.UpsertTargets(ctx, &storage.NutritionTargets{UserID: "u1", CaloriesKcal: 1800, ProteinG: 140, FatG: 60, CarbsG: 180}))
	require.NoError(t, s.UpsertTargets(ctx, &storage.NutritionTargets{UserID: "u1", CaloriesKcal: 2000, ProteinG: 150, FatG: 60, CarbsG: 200}))

	targets, err = s.GetTargets(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, targets)
	assert.Equal(t, 2000, targets.CaloriesKcal)
	assert.Equal(t, 150, targets.ProteinG)
}

func testReports(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	r := &storage.ReportMeta{
		UserID: "u1", Format: "csv", FromDate: "2026-03-02", ToDate: "2026-03-08",
		SizeBytes: 3, Status: "ready", Data: []byte("a,b"),
	}
	require.NoError(t, s.CreateReport(ctx, r))
	require.NotEqual(t, uuid.Nil, r.ID)

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "csv", got.Format)
	assert.Equal(t, "u1", got.UserID)

	list, err := s.ListReports(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteReport(ctx, r.ID))
	_, err = s.GetReport(ctx, r.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteReport(ctx, r.ID), storage.ErrNotFound)
}
