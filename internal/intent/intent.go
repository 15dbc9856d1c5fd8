package intent

import (
	"regexp"
	"strings"
)

// Kind names what the user wants from a message.
type Kind string

const (
	LogMeal             Kind = "logMeal"
	LogWorkout          Kind = "logWorkout"
	StatusUpdate        Kind = "statusUpdate"
	AskPlan             Kind = "askPlan"
	AskNutritionSummary Kind = "askNutritionSummary"
	AskProgress         Kind = "askProgress"
	SmallTalk           Kind = "smallTalk"
	Unknown             Kind = "unknown"
)

// Mood is set only for StatusUpdate.
type Mood string

const (
	MoodTired     Mood = "tired"
	MoodSore      Mood = "sore"
	MoodEnergized Mood = "energized"
)

// Intent is the classification of one message.
type Intent struct {
	Kind Kind `json:"kind"`
	Mood Mood `json:"mood,omitempty"`
}

func words(list ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(list, "|") + `)\b`)
}

var (
	nutritionQuestion = regexp.MustCompile(`how many calories|how much (?:protein|fat|carbs?|sugar|fiber)|nutrition(?:al)? (?:info|facts|information)|calories (?:in|of) |macros (?:in|of|for) `)

	mealWords = words("ate", "eat", "eaten", "eating", "had", "consumed", "enjoyed", "grabbed",
		"breakfast", "brunch", "lunch", "dinner", "supper", "snack", "snacked", "snacking",
		"drank", "drink", "drinking", "meal", "food")

	workoutWords = words("ran", "run", "running", "jogged", "jog", "jogging", "walk", "walking", "walked", "hiked",
		"lifted", "lifting", "swam", "swim", "swimming", "biked", "bike ride", "rode", "cycled", "cycling",
		"rowed", "rowing", "yoga", "pilates", "hiit", "plank", "planks", "squats", "pushups", "push-ups",
		"lunges", "mobility", "worked out", "work out", "exercised", "trained", "miles", "km", "5k", "10k")

	tiredWords     = words("tired", "exhausted", "drained", "sleepy", "wiped")
	soreWords      = words("sore", "aching", "achy")
	energizedWords = words("energized", "energised", "great", "amazing", "pumped")

	planWords      = words("plan", "planned", "schedule", "next workout", "today's workout", "tomorrow")
	nutritionWords = words("calories", "macros", "protein", "carbs", "nutrition", "intake", "totals?")
	progressWords  = words("progress", "adherence", "streak", "this week", "how am i doing", "how did i do", "on track")
	greetingWords  = words("hi", "hello", "hey", "yo", "good morning", "good afternoon", "good evening", "thanks", "thank you", "sup")
)

// Detect classifies a message. Checks run in a fixed order and the first hit wins.
func Detect(message string) Intent {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return Intent{Kind: Unknown}
	}

	switch {
	case nutritionQuestion.MatchString(text):
		return Intent{Kind: Unknown}
	case mealWords.MatchString(text):
		return Intent{Kind: LogMeal}
	case workoutWords.MatchString(text):
		return Intent{Kind: LogWorkout}
	case tiredWords.MatchString(text):
		return Intent{Kind: StatusUpdate, Mood: MoodTired}
	case soreWords.MatchString(text):
		return Intent{Kind: StatusUpdate, Mood: MoodSore}
	case energizedWords.MatchString(text):
		return Intent{Kind: StatusUpdate, Mood: MoodEnergized}
	case planWords.MatchString(text):
		return Intent{Kind: AskPlan}
	case nutritionWords.MatchString(text):
		return Intent{Kind: AskNutritionSummary}
	case progressWords.MatchString(text):
		return Intent{Kind: AskProgress}
	case greetingWords.MatchString(text):
		return Intent{Kind: SmallTalk}
	}
	return Intent{Kind: Unknown}
}
