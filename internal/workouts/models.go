package workouts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/storage"
)

// ============================================================================
// DTOs
// ============================================================================

// WorkoutDTO represents a logged workout for API responses.
type WorkoutDTO struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	Type        string    `json:"type"`
	Minutes     int       `json:"minutes"`
	Intensity   string    `json:"intensity"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DistanceKm  *float64  `json:"distance_km,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PlanEntryDTO is one weekday of the weekly template. Weekday 0 is Monday.
type PlanEntryDTO struct {
	Weekday   int    `json:"weekday"`
	Type      string `json:"type"`
	Minutes   int    `json:"minutes"`
	Intensity string `json:"intensity"`
	Focus     string `json:"focus,omitempty"`
}

// ============================================================================
// Requests / Responses
// ============================================================================

// ReplacePlanRequest replaces the whole weekly template.
type ReplacePlanRequest struct {
	Entries []PlanEntryDTO `json:"entries"`
}

// PlanResponse returns the weekly template.
type PlanResponse struct {
	Entries      []PlanEntryDTO `json:"entries"`
	TotalMinutes int            `json:"total_minutes"`
	IsDefault    bool           `json:"is_default"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`
}

// ListWorkoutsResponse returns workouts in a date range.
type ListWorkoutsResponse struct {
	Workouts []WorkoutDTO `json:"workouts"`
}

// ============================================================================
// Validation
// ============================================================================

const (
	DaysPerWeek   = 7
	MaxMinutes    = 240
	MaxTypeLength = 40
	MaxFocusChars = 200
)

var ValidIntensities = map[string]bool{
	IntensityEasy:     true,
	IntensityModerate: true,
	IntensityHard:     true,
}

// ValidateReplacePlanRequest checks that the template has exactly one entry per
// weekday. Empty intensity defaults to moderate, or easy for zero-minute days.
func ValidateReplacePlanRequest(req *ReplacePlanRequest) error {
	if len(req.Entries) != DaysPerWeek {
		return fmt.Errorf("entries must contain exactly %d weekdays, got %d", DaysPerWeek, len(req.Entries))
	}

	seen := make(map[int]bool, DaysPerWeek)
	for i := range req.Entries {
		e := &req.Entries[i]
		if e.Weekday < 0 || e.Weekday >= DaysPerWeek {
			return fmt.Errorf("entries[%d]: weekday must be between 0 and 6", i)
		}
		if seen[e.Weekday] {
			return fmt.Errorf("entries[%d]: duplicate weekday %d", i, e.Weekday)
		}
		seen[e.Weekday] = true

		e.Type = strings.TrimSpace(e.Type)
		if e.Type == "" {
			return fmt.Errorf("entries[%d]: type is required", i)
		}
		if len(e.Type) > MaxTypeLength {
			return fmt.Errorf("entries[%d]: type too long: max %d chars", i, MaxTypeLength)
		}
		if e.Minutes < 0 || e.Minutes > MaxMinutes {
			return fmt.Errorf("entries[%d]: minutes must be between 0 and %d", i, MaxMinutes)
		}
		if len(e.Focus) > MaxFocusChars {
			return fmt.Errorf("entries[%d]: focus too long: max %d chars", i, MaxFocusChars)
		}

		if e.Intensity == "" {
			e.Intensity = IntensityModerate
			if e.Minutes == 0 {
				e.Intensity = IntensityEasy
			}
		}
		if !ValidIntensities[e.Intensity] {
			return fmt.Errorf("entries[%d]: invalid intensity: %s", i, e.Intensity)
		}
	}

	return nil
}

// ValidateDateRange checks optional YYYY-MM-DD bounds.
func ValidateDateRange(from, to string) error {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("dates must be in YYYY-MM-DD format")
		}
	}
	if from != "" && to != "" && from > to {
		return fmt.Errorf("from must not be after to")
	}
	return nil
}

// ============================================================================
// Weekly template
// ============================================================================

// DefaultWeeklyPlan is the 240-minute template used until the user saves one.
// Sunday is an explicit rest entry.
func DefaultWeeklyPlan() []storage.WeeklyPlanEntry {
	return []storage.WeeklyPlanEntry{
		{Weekday: 0, Type: "Run", Minutes: 30, Intensity: IntensityModerate, Focus: "Easy aerobic base"},
		{Weekday: 1, Type: "Strength", Minutes: 45, Intensity: IntensityModerate, Focus: "Full body"},
		{Weekday: 2, Type: "Walk", Minutes: 30, Intensity: IntensityEasy, Focus: "Active recovery"},
		{Weekday: 3, Type: "Run", Minutes: 40, Intensity: IntensityModerate, Focus: "Tempo intervals"},
		{Weekday: 4, Type: "Strength", Minutes: 45, Intensity: IntensityModerate, Focus: "Lower body and core"},
		{Weekday: 5, Type: "Ride", Minutes: 50, Intensity: IntensityHard, Focus: "Long ride"},
		{Weekday: 6, Type: "Rest", Minutes: 0, Intensity: IntensityEasy, Focus: "Rest and mobility"},
	}
}

// PlanMinutes sums the template minutes.
func PlanMinutes(entries []storage.WeeklyPlanEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Minutes
	}
	return total
}

func sortEntries(entries []storage.WeeklyPlanEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Weekday < entries[j].Weekday })
}

func entriesToDTO(entries []storage.WeeklyPlanEntry) []PlanEntryDTO {
	out := make([]PlanEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, PlanEntryDTO(e))
	}
	return out
}

func entriesFromDTO(entries []PlanEntryDTO) []storage.WeeklyPlanEntry {
	out := make([]storage.WeeklyPlanEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, storage.WeeklyPlanEntry(e))
	}
	return out
}

func WorkoutToDTO(w storage.WorkoutLog) WorkoutDTO {
	return WorkoutDTO{
		ID:          w.ID,
		Date:        w.Date,
		Type:        w.Type,
		Minutes:     w.Minutes,
		Intensity:   w.Intensity,
		Description: w.Description,
		Status:      w.Status,
		DistanceKm:  w.DistanceKm,
		CreatedAt:   w.CreatedAt,
	}
}
