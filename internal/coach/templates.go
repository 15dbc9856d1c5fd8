package coach

import (
	"fmt"
	"math"
	"strings"

	"github.com/fdg312/coach-hub/internal/intent"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/summary"
)

const (
	signInMessage  = "Sign in to log workouts so I can save them to your history."
	emptyMessage   = "I didn't catch that. Tell me what you ate or how you trained."
	noItemsMessage = "I couldn't find any food in that message. Try something like \"2 eggs and toast\"."
)

func kcal(v float64) int {
	return int(math.Round(v))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func mealTemplate(items int, draftKcal float64, projected summary.Totals, targets nutrition.TargetsDTO) string {
	return fmt.Sprintf(
		"Added %s as a draft (about %d kcal). With it you'd be at %d of %d kcal today. Confirm when it looks right.",
		plural(items, "item", "items"), kcal(draftKcal), kcal(projected.CaloriesKcal), targets.CaloriesKcal,
	)
}

func workoutTemplate(w storage.WorkoutLog, stats summary.WeeklyStats) string {
	return fmt.Sprintf(
		"Logged %d min of %s. This week: %s, %d min, %d%% of your plan.",
		w.Minutes, strings.ToLower(w.Type), plural(stats.WorkoutsCompleted, "workout", "workouts"),
		stats.TotalMinutes, stats.Adherence,
	)
}

func moodTemplate(mood intent.Mood) string {
	switch mood {
	case intent.MoodTired:
		return "Sorry you're running low. Keep today gentle: drink some water, get some protein in and rest if you can."
	case intent.MoodSore:
		return "Soreness is normal after hard work. Easy movement and stretching help, and a rest day is fine."
	case intent.MoodEnergized:
		return "Love that energy! It's a great day for your planned session."
	default:
		return "Thanks for checking in. Listen to your body today."
	}
}

// moodNote is stored on the day row.
func moodNote(mood intent.Mood, text string) string {
	if mood == "" {
		return strings.TrimSpace(text)
	}
	return fmt.Sprintf("%s: %s", mood, strings.TrimSpace(text))
}

func smallTalkTemplate(hasMeal, hasWorkout bool) string {
	switch {
	case hasMeal && hasWorkout:
		return "Meals and a workout logged today. Nice consistency! What's next?"
	case hasMeal:
		return "You've logged food today. Any movement planned for later?"
	case hasWorkout:
		return "Great job on today's workout. Don't forget to log what you eat."
	default:
		return "Tell me what you ate or how you trained today and I'll keep track."
	}
}

func planTemplate(entry storage.WeeklyPlanEntry, ok bool) string {
	if !ok {
		return "You don't have a weekly plan yet."
	}
	day := summary.WeekdayName(entry.Weekday)
	if entry.Minutes == 0 || strings.EqualFold(entry.Type, "Rest") {
		return fmt.Sprintf("Next up: %s is a rest day.", day)
	}
	msg := fmt.Sprintf("Next up: %s, %s for %d min (%s).", day, entry.Type, entry.Minutes, entry.Intensity)
	if entry.Focus != "" {
		msg += " Focus: " + entry.Focus + "."
	}
	return msg
}

func nutritionTemplate(t summary.Totals, targets nutrition.TargetsDTO) string {
	remaining := targets.CaloriesKcal - kcal(t.CaloriesKcal)
	msg := fmt.Sprintf(
		"Today so far: %d kcal, %dg protein, %dg carbs, %dg fat. Targets: %d kcal, %dg protein, %dg carbs, %dg fat.",
		kcal(t.CaloriesKcal), kcal(t.ProteinG), kcal(t.CarbsG), kcal(t.FatG),
		targets.CaloriesKcal, targets.ProteinG, targets.CarbsG, targets.FatG,
	)
	if remaining >= 0 {
		return msg + fmt.Sprintf(" %d kcal left.", remaining)
	}
	return msg + fmt.Sprintf(" %d kcal over.", -remaining)
}

func progressTemplate(stats summary.WeeklyStats) string {
	return fmt.Sprintf(
		"This week: %s, %d of %d planned minutes (%d%%).",
		plural(stats.WorkoutsCompleted, "workout", "workouts"), stats.TotalMinutes, stats.PlanMinutes, stats.Adherence,
	)
}

func onboardingDoneTemplate(name string, targets nutrition.TargetsDTO) string {
	greeting := "Thanks"
	if name != "" {
		greeting = "Thanks, " + name
	}
	return fmt.Sprintf(
		"%s! I've set your daily targets to %d kcal with %dg protein. Tell me what you eat or how you train and I'll keep track.",
		greeting, targets.CaloriesKcal, targets.ProteinG,
	)
}

// weekFacts describes the week for coaching prompts.
func weekFacts(stats summary.WeeklyStats) string {
	return fmt.Sprintf("Week %s to %s: %d workouts completed, %d of %d planned minutes, adherence %d%%",
		stats.WeekStart, stats.WeekEnd, stats.WorkoutsCompleted, stats.TotalMinutes, stats.PlanMinutes, stats.Adherence)
}

func totalsFact(label string, t summary.Totals, targets nutrition.TargetsDTO) string {
	return fmt.Sprintf("%s: %d kcal, %.1fg protein, %.1fg carbs, %.1fg fat (targets %d kcal, %dg protein)",
		label, kcal(t.CaloriesKcal), t.ProteinG, t.CarbsG, t.FatG, targets.CaloriesKcal, targets.ProteinG)
}

// workoutLabel is used in workout facts.
func workoutLabel(w storage.WorkoutLog) string {
	label := fmt.Sprintf("%s, %d min", w.Type, w.Minutes)
	if w.Intensity != "" {
		label += ", " + w.Intensity
	}
	if w.DistanceKm != nil {
		label += fmt.Sprintf(", %.2f km", *w.DistanceKm)
	}
	return label
}
