package coach

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
)

func runOnboarding(t *testing.T, answers ...string) (storage.Profile, []onboardingTurn) {
	t.Helper()
	p := storage.Profile{UserID: "u1"}
	var turns []onboardingTurn
	for _, a := range answers {
		out := advanceOnboarding(p, a)
		turns = append(turns, out)
		p = out.Profile
	}
	return p, turns
}

func TestOnboardingStepZeroAsksWelcome(t *testing.T) {
	p, turns := runOnboarding(t, "hey")

	assert.Equal(t, WelcomeQuestion, turns[0].Reply)
	assert.Equal(t, 1, p.OnboardingStep)
	assert.False(t, p.OnboardingCompleted)
	assert.Empty(t, p.Answers, "the first message is not an answer")
}

func TestOnboardingFullFlow(t *testing.T) {
	p, turns := runOnboarding(t,
		"hello",
		"I'm Sam",
		"I want to lose weight",
		"70 kg",
		"desk job, some walking",
		"4 days",
		"vegetarian",
	)

	require.Len(t, turns, 7)
	assert.Contains(t, turns[2].Reply, "target weight")
	last := turns[6]
	assert.True(t, last.Completed)
	require.NotNil(t, last.Targets)
	assert.Equal(t, 1800, last.Targets.CaloriesKcal)

	assert.True(t, p.OnboardingCompleted)
	assert.Equal(t, "Sam", p.Name)
	assert.Equal(t, GoalLoseWeight, p.Goal)
	assert.Equal(t, "Name: Sam. Goal: lose weight (target 70 kg). Activity: desk job, some walking. Wants to train 4 days a week. Diet: vegetarian.", p.Summary)
	assert.Contains(t, last.Reply, "Thanks, Sam!")
	assert.False(t, NeedsOnboarding(&p))
}

func TestOnboardingSkipsTargetWeight(t *testing.T) {
	p, turns := runOnboarding(t, "hi", "Alex", "just eat healthier")

	assert.Equal(t, "How active is a typical week for you?", turns[2].Reply)
	assert.Equal(t, 4, p.OnboardingStep)
	_, asked := p.Answers["target_weight"]
	assert.False(t, asked)

	p, turns = runOnboarding(t, "hi", "Alex", "eat better", "very active", "3", "no")
	assert.True(t, turns[len(turns)-1].Completed)
	assert.Equal(t, GoalEatHealthier, p.Goal)
	assert.Equal(t, "Name: Alex. Goal: eat healthier. Activity: very active. Wants to train 3 days a week.", p.Summary)
	got, want := turns[len(turns)-1].Targets, nutrition.DefaultTargets()
	require.NotNil(t, got)
	assert.Equal(t, want.CaloriesKcal, got.CaloriesKcal)
	assert.Equal(t, want.ProteinG, got.ProteinG)
	assert.Equal(t, want.FatG, got.FatG)
	assert.Equal(t, want.CarbsG, got.CarbsG)
}

func TestOnboardingDoesNotMutateInput(t *testing.T) {
	p := storage.Profile{UserID: "u1", OnboardingStep: 2, Answers: map[string]string{"name": "Sam"}}
	_ = advanceOnboarding(p, "build muscle")
	assert.Len(t, p.Answers, 1)
}

func TestParseGoal(t *testing.T) {
	tests := map[string]string{
		"lose weight":           GoalLoseWeight,
		"cut for summer":        GoalLoseWeight,
		"build muscle":          GoalBuildMuscle,
		"get stronger":          GoalBuildMuscle,
		"run a marathon":        GoalGetFitter,
		"get fitter":            GoalGetFitter,
		"just eat more veggies": GoalEatHealthier,
		"":                      GoalEatHealthier,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseGoal(in), in)
	}
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "Sam", cleanName("I'm Sam"))
	assert.Equal(t, "Sam", cleanName("hi, my name is Sam."))
	assert.Equal(t, "Jo", cleanName("call me Jo please"))
	assert.Equal(t, "Alex", cleanName("Alex"))

	long := cleanName(strings.Repeat("é", 45))
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, 40, utf8.RuneCountInString(long))
}

func TestResetOnboarding(t *testing.T) {
	p := storage.Profile{
		OnboardingStep:      6,
		OnboardingCompleted: true,
		Answers:             map[string]string{"name": "Sam"},
		Goal:                GoalGetFitter,
		Summary:             "x",
		Insights:            []string{"likes oats"},
	}
	reset := ResetOnboarding(p)
	assert.Equal(t, 0, reset.OnboardingStep)
	assert.False(t, reset.OnboardingCompleted)
	assert.Empty(t, reset.Answers)
	assert.Equal(t, []string{"likes oats"}, reset.Insights)
	assert.True(t, NeedsOnboarding(&reset))
}
