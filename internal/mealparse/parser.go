package mealparse

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/meal"
)

const (
	HeuristicVersion = "heuristic-2"
	RemoteVersion    = "llm-1"
)

// TextUnderstanding is the remote structured-extraction collaborator.
type TextUnderstanding interface {
	Request(ctx context.Context, system, user string) (string, error)
}

// Outcome carries the parse result and which tier produced it.
type Outcome struct {
	Result meal.ParseResult `json:"result"`
	Source meal.ParsePath   `json:"source"`
}

type Parser struct {
	remote TextUnderstanding
	now    func() time.Time
}

// New returns a parser. A nil remote leaves only the heuristic tier.
func New(remote TextUnderstanding) *Parser {
	return &Parser{remote: remote, now: time.Now}
}

// HasRemote reports whether a remote extraction tier is configured.
func (p *Parser) HasRemote() bool {
	return p.remote != nil
}

// Parse parses meal text using the current wall clock for meal-type inference.
func (p *Parser) Parse(ctx context.Context, text string, hint meal.Type) Outcome {
	return p.ParseAt(ctx, text, hint, p.now())
}

// ParseAt never fails: a remote error or an invalid remote reply falls through
// to the heuristic tier.
func (p *Parser) ParseAt(ctx context.Context, text string, hint meal.Type, at time.Time) Outcome {
	text = strings.TrimSpace(text)

	if p.remote != nil && text != "" {
		reply, err := p.remote.Request(ctx, extractionInstructions, text)
		if err != nil {
			log.Printf("WARN mealparse: remote extraction failed, using heuristic: %v", err)
		} else if result, err := decodeRemoteResult(reply); err != nil {
			log.Printf("WARN mealparse: remote reply rejected, using heuristic: %v", err)
		} else {
			result.MealType = resolveMealType(hint, result.MealType, text, at)
			if result.Confidence == "" {
				result.Confidence = meal.InferConfidence(result.Items)
			}
			if result.Totals == nil {
				result.Totals = meal.SumTotals(result.Items)
			}
			result.Audit = meal.Audit{InputText: text, ParsePath: meal.PathLLM, ParserVersion: RemoteVersion}
			return Outcome{Result: result, Source: meal.PathLLM}
		}
	}

	items := parseItems(text)
	result := meal.ParseResult{
		MealType:   resolveMealType(hint, "", text, at),
		Items:      items,
		Totals:     meal.SumTotals(items),
		Confidence: meal.InferConfidence(items),
		Audit:      meal.Audit{InputText: text, ParsePath: meal.PathHeuristic, ParserVersion: HeuristicVersion},
	}
	return Outcome{Result: result, Source: meal.PathHeuristic}
}

var mealTypeKeywords = []struct {
	re *regexp.Regexp
	t  meal.Type
}{
	{regexp.MustCompile(`(?i)\b(?:breakfast|brunch)\b`), meal.Breakfast},
	{regexp.MustCompile(`(?i)\blunch\b`), meal.Lunch},
	{regexp.MustCompile(`(?i)\b(?:dinner|supper)\b`), meal.Dinner},
	{regexp.MustCompile(`(?i)\bsnack(?:ed|ing|s)?\b`), meal.Snack},
}

// resolveMealType prefers an explicit hint, then the remote guess, then a
// keyword in the text, then the hour of day.
func resolveMealType(hint, remote meal.Type, text string, at time.Time) meal.Type {
	if hint != "" && hint != meal.Unknown {
		return hint
	}
	if remote != "" && remote != meal.Unknown {
		return remote
	}
	for _, kw := range mealTypeKeywords {
		if kw.re.MatchString(text) {
			return kw.t
		}
	}
	return MealTypeForHour(at.Hour())
}

// MealTypeForHour maps a local hour to the meal slot it most likely belongs to.
func MealTypeForHour(hour int) meal.Type {
	switch {
	case hour < 11:
		return meal.Breakfast
	case hour < 15:
		return meal.Lunch
	case hour < 20:
		return meal.Dinner
	default:
		return meal.Snack
	}
}
