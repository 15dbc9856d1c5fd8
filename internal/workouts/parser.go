package workouts

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	StatusCompleted = "completed"

	IntensityEasy     = "easy"
	IntensityModerate = "moderate"
	IntensityHard     = "hard"

	defaultMinutes = 20
	// minutesPerDistanceUnit is the pace assumed when only a distance is given.
	minutesPerDistanceUnit = 12
	kmPerMile              = 1.609344
)

// Distance is a parsed distance in the unit the user wrote.
type Distance struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"` // "km" | "mi"
}

// Km converts the distance to kilometers.
func (d Distance) Km() float64 {
	if d.Unit == "mi" {
		return math.Round(d.Value*kmPerMile*100) / 100
	}
	return d.Value
}

// Parsed is the structured form of a workout description.
type Parsed struct {
	Type        string    `json:"type"`
	Minutes     int       `json:"minutes"`
	Intensity   string    `json:"intensity"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Distance    *Distance `json:"distance,omitempty"`
}

type typeRule struct {
	name string
	re   *regexp.Regexp
}

func words(alts ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
}

var typeRules = []typeRule{
	{"Run", words("run", "runs", "ran", "running", "jog", "jogs", "jogged", "jogging")},
	{"Walk", words("walk", "walks", "walked", "walking", "hike", "hiked", "hiking")},
	{"Strength", words(
		"lift", "lifts", "lifted", "lifting", "weights?", "weightlifting", "strength",
		`push[- ]?ups?`, `pull[- ]?ups?`, "squats?", "squatted", "squatting", "lunges?", "deadlifts?", "bench",
	)},
	{"Core", words("planks?", "planking", "core", "abs", "crunch(?:es)?", `sit[- ]?ups?`)},
	{"Ride", words("bike", "biked", "biking", "ride", "rode", "riding", "cycle", "cycled", "cycling", "spin", "spinning")},
	{"Swim", words("swim", "swam", "swimming", "laps")},
	{"Row", words("row", "rowed", "rowing", "rower", "erg")},
	{"Yoga", words("yoga", "vinyasa")},
	{"Mobility", words("mobility", "stretch", "stretched", "stretching", "foam roll(?:ed|ing)?")},
	{"Pilates", words("pilates")},
	{"HIIT", words("hiit", "intervals?", "tabata", "crossfit", "circuit")},
}

var (
	hardRe     = words("hard", "intense", "tough", "brutal", "heavy", "sprints?", "all[- ]out", "max effort", "exhausting")
	moderateRe = words("moderate", "steady", "medium", "tempo")
	easyRe     = words("easy", "light", "gentle", "relaxed", "chill", "slow", "recovery")

	numberPattern = `(\d+(?:\.\d+)?)`
	minutesRe     = regexp.MustCompile(numberPattern + `\s*(?:-\s*)?(?:minutes?|mins?|m)\b`)
	hoursRe       = regexp.MustCompile(numberPattern + `\s*(?:-\s*)?(?:hours?|hrs?|h)\b`)
	hourHalfRe    = regexp.MustCompile(`\b(?:an?|one)\s+hour\s+and\s+a\s+half\b`)
	halfHourRe    = regexp.MustCompile(`\bhalf\s+(?:an\s+)?hour\b`)
	anHourRe      = regexp.MustCompile(`\b(?:an|one)\s+hour\b`)
	distanceRe    = regexp.MustCompile(numberPattern + `\s*(km|k|kilometers?|kilometres?|mi|miles?)\b`)
)

// Parse extracts a workout from free text. It never fails: missing values fall
// back to defaults and Minutes is always positive.
func Parse(text string) Parsed {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	out := Parsed{
		Type:        detectType(lower),
		Status:      StatusCompleted,
		Description: trimmed,
	}
	if out.Description == "" {
		out.Description = out.Type
	}

	out.Distance = parseDistance(lower)

	minutes, ok := parseMinutes(lower)
	switch {
	case ok:
		out.Minutes = minutes
	case out.Distance != nil:
		out.Minutes = int(math.Round(out.Distance.Value * minutesPerDistanceUnit))
	}
	if out.Minutes <= 0 {
		out.Minutes = defaultMinutes
	}

	out.Intensity = detectIntensity(lower, out.Type, out.Minutes)
	return out
}

func detectType(lower string) string {
	for _, r := range typeRules {
		if r.re.MatchString(lower) {
			return r.name
		}
	}
	return "Activity"
}

func detectIntensity(lower, workoutType string, minutes int) string {
	switch {
	case hardRe.MatchString(lower):
		return IntensityHard
	case moderateRe.MatchString(lower):
		return IntensityModerate
	case easyRe.MatchString(lower):
		return IntensityEasy
	}

	switch {
	case workoutType == "Yoga" || workoutType == "Walk" || minutes <= 20:
		return IntensityEasy
	case minutes >= 50:
		return IntensityHard
	default:
		return IntensityModerate
	}
}

// parseMinutes adds up hour and minute mentions ("1 hour 15 min" is 75).
func parseMinutes(lower string) (int, bool) {
	total := 0.0
	found := false

	switch {
	case hourHalfRe.MatchString(lower):
		total += 90
		found = true
	case halfHourRe.MatchString(lower):
		total += 30
		found = true
	case anHourRe.MatchString(lower):
		total += 60
		found = true
	}

	if m := hoursRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			total += v * 60
			found = true
		}
	}
	if m := minutesRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			total += v
			found = true
		}
	}

	if !found {
		return 0, false
	}
	return int(math.Round(total)), true
}

func parseDistance(lower string) *Distance {
	m := distanceRe.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return nil
	}
	unit := "km"
	if strings.HasPrefix(m[2], "mi") {
		unit = "mi"
	}
	return &Distance{Value: v, Unit: unit}
}
