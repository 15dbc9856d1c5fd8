package coach

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
)

// WelcomeQuestion opens onboarding for every new profile.
const WelcomeQuestion = "Hi! I'm your nutrition and training coach. Before we start, what should I call you?"

// Goals derived from the onboarding answer.
const (
	GoalLoseWeight   = "lose_weight"
	GoalBuildMuscle  = "build_muscle"
	GoalGetFitter    = "get_fitter"
	GoalEatHealthier = "eat_healthier"
)

type question struct {
	key  string
	text string
	// skip is evaluated against the answers collected so far.
	skip func(answers map[string]string) bool
}

var onboardingQuestions = []question{
	{key: "name", text: WelcomeQuestion},
	{key: "goal", text: "What's your main goal right now: lose weight, build muscle, get fitter or eat healthier?"},
	{
		key:  "target_weight",
		text: "Do you have a target weight in mind? Something like \"75 kg\", or say skip.",
		skip: func(answers map[string]string) bool {
			g := ParseGoal(answers["goal"])
			return g != GoalLoseWeight && g != GoalBuildMuscle
		},
	},
	{key: "activity", text: "How active is a typical week for you?"},
	{key: "training_days", text: "How many days a week would you like to train?"},
	{key: "diet", text: "Any dietary preferences or restrictions I should know about?"},
}

// onboardingTurn is the outcome of one onboarding message.
type onboardingTurn struct {
	Profile   storage.Profile
	Reply     string
	Completed bool
	Targets   *nutrition.TargetsDTO
}

// advanceOnboarding applies one message to the onboarding state. Step 0 asks
// the welcome question. Step N stores the answer to question N-1 and asks the
// next question whose skip condition is false.
func advanceOnboarding(p storage.Profile, message string) onboardingTurn {
	answers := make(map[string]string, len(p.Answers)+1)
	for k, v := range p.Answers {
		answers[k] = v
	}
	p.Answers = answers

	if p.OnboardingStep <= 0 {
		p.OnboardingStep = 1
		return onboardingTurn{Profile: p, Reply: onboardingQuestions[0].text}
	}

	answered := p.OnboardingStep - 1
	if answered < len(onboardingQuestions) {
		q := onboardingQuestions[answered]
		answer := strings.TrimSpace(message)
		p.Answers[q.key] = answer
		if q.key == "name" {
			p.Name = cleanName(answer)
		}
	}

	for i := p.OnboardingStep; i < len(onboardingQuestions); i++ {
		q := onboardingQuestions[i]
		if q.skip != nil && q.skip(p.Answers) {
			continue
		}
		p.OnboardingStep = i + 1
		return onboardingTurn{Profile: p, Reply: q.text}
	}

	p.OnboardingStep = len(onboardingQuestions)
	p.OnboardingCompleted = true
	p.Goal = ParseGoal(p.Answers["goal"])
	p.Summary = summarizeProfile(p)
	targets := TargetsForGoal(p.Goal)
	return onboardingTurn{
		Profile:   p,
		Reply:     onboardingDoneTemplate(p.Name, targets),
		Completed: true,
		Targets:   &targets,
	}
}

var namePrefix = regexp.MustCompile(`(?i)^(?:hi|hey|hello)?[,!\s]*(?:i'?m|i am|my name is|call me|it'?s)\s+`)

func cleanName(answer string) string {
	name := namePrefix.ReplaceAllString(strings.TrimSpace(answer), "")
	name = strings.Trim(name, " .!,")
	if fields := strings.Fields(name); len(fields) > 0 {
		name = fields[0]
	}
	if runes := []rune(name); len(runes) > 40 {
		name = string(runes[:40])
	}
	return name
}

var goalRules = []struct {
	re   *regexp.Regexp
	goal string
}{
	{regexp.MustCompile(`(?i)\b(?:lose|loss|cut|cutting|lean out|slim|drop)\b`), GoalLoseWeight},
	{regexp.MustCompile(`(?i)\b(?:muscle|bulk|bulking|gain|stronger|strength)\b`), GoalBuildMuscle},
	{regexp.MustCompile(`(?i)\b(?:fit|fitter|fitness|endurance|cardio|run|marathon|stamina)\b`), GoalGetFitter},
}

// ParseGoal maps a free-text answer onto a goal. Anything unrecognized means
// eating healthier.
func ParseGoal(answer string) string {
	for _, r := range goalRules {
		if r.re.MatchString(answer) {
			return r.goal
		}
	}
	return GoalEatHealthier
}

// TargetsForGoal derives daily targets from a goal.
func TargetsForGoal(goal string) nutrition.TargetsDTO {
	switch goal {
	case GoalLoseWeight:
		return nutrition.TargetsDTO{CaloriesKcal: 1800, ProteinG: 140, FatG: 60, CarbsG: 170}
	case GoalBuildMuscle:
		return nutrition.TargetsDTO{CaloriesKcal: 2600, ProteinG: 160, FatG: 80, CarbsG: 300}
	case GoalGetFitter:
		return nutrition.TargetsDTO{CaloriesKcal: 2300, ProteinG: 130, FatG: 70, CarbsG: 270}
	default:
		return nutrition.DefaultTargets()
	}
}

var goalLabels = map[string]string{
	GoalLoseWeight:   "lose weight",
	GoalBuildMuscle:  "build muscle",
	GoalGetFitter:    "get fitter",
	GoalEatHealthier: "eat healthier",
}

var daysPattern = regexp.MustCompile(`\d+`)

func summarizeProfile(p storage.Profile) string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, "Name: "+p.Name+".")
	}
	goal := "Goal: " + goalLabels[p.Goal]
	if tw := strings.TrimSpace(p.Answers["target_weight"]); tw != "" && !strings.EqualFold(tw, "skip") {
		goal += " (target " + tw + ")"
	}
	parts = append(parts, goal+".")
	if a := strings.TrimSpace(p.Answers["activity"]); a != "" {
		parts = append(parts, "Activity: "+a+".")
	}
	if d := daysPattern.FindString(p.Answers["training_days"]); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n >= 0 && n <= 7 {
			parts = append(parts, fmt.Sprintf("Wants to train %s a week.", plural(n, "day", "days")))
		}
	}
	if diet := strings.TrimSpace(p.Answers["diet"]); diet != "" && !isNone(diet) {
		parts = append(parts, "Diet: "+diet+".")
	}
	return strings.Join(parts, " ")
}

func isNone(s string) bool {
	switch strings.ToLower(strings.Trim(s, " .!")) {
	case "no", "none", "nope", "nothing", "n/a", "skip":
		return true
	}
	return false
}

// NeedsOnboarding reports whether messages go to the onboarding flow.
func NeedsOnboarding(p *storage.Profile) bool {
	return p != nil && !p.OnboardingCompleted && p.OnboardingStep >= 0
}

// ResetOnboarding returns the profile at step 0 with collected answers cleared.
// Insights survive a reset.
func ResetOnboarding(p storage.Profile) storage.Profile {
	p.OnboardingStep = 0
	p.OnboardingCompleted = false
	p.Answers = map[string]string{}
	p.Summary = ""
	p.Goal = ""
	return p
}
