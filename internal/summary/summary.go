// Package summary holds the read-side aggregations over a user's log: daily
// macro totals, weekly workout adherence and the next planned session. Every
// function is pure and safe to call repeatedly while building a response.
package summary

import (
	"math"
	"sort"
	"time"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/storage"
)

const dateLayout = "2006-01-02"

// Totals is a fully numeric macro sum.
type Totals struct {
	CaloriesKcal float64 `json:"calories_kcal"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
	FiberG       float64 `json:"fiber_g"`
}

// Add accumulates the known fields of an estimate. Unknown fields count as zero.
func (t Totals) Add(e *meal.NutritionEstimate) Totals {
	if e == nil {
		return t
	}
	return Totals{
		CaloriesKcal: meal.Round2(t.CaloriesKcal + deref(e.CaloriesKcal)),
		ProteinG:     meal.Round2(t.ProteinG + deref(e.ProteinG)),
		CarbsG:       meal.Round2(t.CarbsG + deref(e.CarbsG)),
		FatG:         meal.Round2(t.FatG + deref(e.FatG)),
		FiberG:       meal.Round2(t.FiberG + deref(e.FiberG)),
	}
}

// WeeklyStats describes completed workouts in one ISO week.
type WeeklyStats struct {
	WeekStart         string `json:"week_start"`
	WeekEnd           string `json:"week_end"`
	WorkoutsCompleted int    `json:"workouts_completed"`
	TotalMinutes      int    `json:"total_minutes"`
	PlanMinutes       int    `json:"plan_minutes"`
	Adherence         int    `json:"adherence"`
}

// CalculateDailyTotals sums the macros of the given meals. Meals without stored
// totals contribute the sum of their items.
func CalculateDailyTotals(meals []storage.MealLog) Totals {
	var t Totals
	for _, m := range meals {
		totals := m.Totals
		if totals == nil {
			totals = meal.SumTotals(m.Items)
		}
		t = t.Add(totals)
	}
	return t
}

// ProjectTotals adds pending draft estimates to confirmed daily totals.
func ProjectTotals(totals Totals, drafts []*meal.NutritionEstimate) Totals {
	for _, d := range drafts {
		totals = totals.Add(d)
	}
	return totals
}

// GetWeeklyWorkoutStats counts completed workouts in the Monday-Sunday week that
// contains today.
func GetWeeklyWorkoutStats(workouts []storage.WorkoutLog, plan []storage.WeeklyPlanEntry, today time.Time) WeeklyStats {
	start, end := WeekBounds(today)
	stats := WeeklyStats{
		WeekStart: start.Format(dateLayout),
		WeekEnd:   end.Format(dateLayout),
	}

	for _, w := range workouts {
		if w.Status != "completed" {
			continue
		}
		if w.Date < stats.WeekStart || w.Date > stats.WeekEnd {
			continue
		}
		stats.WorkoutsCompleted++
		stats.TotalMinutes += w.Minutes
	}

	for _, e := range plan {
		stats.PlanMinutes += e.Minutes
	}
	if stats.PlanMinutes > 0 {
		pct := math.Round(float64(stats.TotalMinutes) / float64(stats.PlanMinutes) * 100)
		stats.Adherence = int(math.Min(100, pct))
	}
	return stats
}

// GetUpcomingPlan returns the first entry whose weekday is today or later,
// wrapping to the start of the week. It reports false only for an empty plan.
func GetUpcomingPlan(plan []storage.WeeklyPlanEntry, today time.Time) (storage.WeeklyPlanEntry, bool) {
	if len(plan) == 0 {
		return storage.WeeklyPlanEntry{}, false
	}

	sorted := append([]storage.WeeklyPlanEntry(nil), plan...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weekday < sorted[j].Weekday })

	wd := ISOWeekday(today)
	for _, e := range sorted {
		if e.Weekday >= wd {
			return e, true
		}
	}
	return sorted[0], true
}

// ISOWeekday maps Monday to 0 and Sunday to 6.
func ISOWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekBounds returns midnight Monday and midnight Sunday of t's ISO week, in
// t's location.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	start := day.AddDate(0, 0, -ISOWeekday(t))
	return start, start.AddDate(0, 0, 6)
}

// WeekdayName is the English name of an ISO weekday index.
func WeekdayName(weekday int) string {
	return time.Weekday((weekday + 1) % 7).String()
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
