package mealparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fdg312/coach-hub/internal/macros"
	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/units"
)

// Conversational prefixes, removed in this order. Each pattern assumes the
// ones before it already ran.
var prefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Za-z][A-Za-z '\-]{0,39}:\s*`),
	regexp.MustCompile(`(?i)^(?:for|at|during|my)\s+(?:breakfast|brunch|lunch|dinner|supper|snack|dessert|meal)(?:\s+(?:today|tonight|yesterday|earlier|this morning|this afternoon|this evening))?\s*(?:was|is)?\s*[,:\-]?\s*`),
	regexp.MustCompile(`(?i)^(?:i\s+)?(?:just\s+|also\s+)?(?:had|ate|was eating|drank)\s+`),
	regexp.MustCompile(`(?i)^(?:today\s+)?i\s+(?:just\s+|also\s+)?(?:consumed|enjoyed|grabbed|had|ate)\s+`),
}

var (
	segmentSplit  = regexp.MustCompile(`(?i)\s+and\s+|\s*,\s*|\s*\+\s*|\s*&\s*`)
	leadingAnd    = regexp.MustCompile(`(?i)^and\s+`)
	articlePrefix = regexp.MustCompile(`(?i)^(?:a|an|the|some)\s+`)
	ofPrefix      = regexp.MustCompile(`(?i)^of\s+`)
	leadingNumish = regexp.MustCompile(`^[\d\s/.]+`)
	spaces        = regexp.MustCompile(`\s+`)

	quantityPattern = regexp.MustCompile(`(?i)(?:^|\s)(\d+\s+\d+/\d+|\d+/\d+|\d*\.\d+|\d+)\s*(?:(fl\.?\s*oz|fluid\s+ounces?|ounces?|oz|grams?|g|kilograms?|kg|milligrams?|mg|pounds?|lbs?|milliliters?|millilitres?|ml|liters?|litres?|l|cups?|c|tablespoons?|tbsp|tbs|teaspoons?|tsp|pieces?|pcs?|slices?|servings?|bottles?|cans?|glass(?:es)?|pints?|shots?|bowls?|scoops?|handfuls?)\b\.?)?`)

	wordNumberPattern = regexp.MustCompile(`(?i)^(one|two|three|four|five|six|seven|eight|nine|ten|half(?:\s+an?)?)\b\s*`)

	sizePattern = regexp.MustCompile(`(?i)\b(extra[- ]large|small|medium|regular|large|big|huge|jumbo|tall|grande|venti)\b`)

	preparationPattern = regexp.MustCompile(`(?i)\b(deep[- ]fried|grilled|fried|baked|roasted|steamed|boiled|scrambled|poached|raw|toasted|smoked|sauteed|mashed|iced)\b`)
)

var wordNumbers = map[string]float64{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"half": 0.5,
}

var sizeHints = map[string]meal.SizeHint{
	"small": meal.SizeSmall, "tall": meal.SizeSmall,
	"medium": meal.SizeMedium, "regular": meal.SizeMedium, "grande": meal.SizeMedium,
	"large": meal.SizeLarge, "big": meal.SizeLarge, "huge": meal.SizeLarge, "jumbo": meal.SizeLarge,
	"extra large": meal.SizeLarge, "extra-large": meal.SizeLarge, "venti": meal.SizeLarge,
}

type drinkKind struct {
	re        *regexp.Regexp
	alcoholic bool
	abv       float64
	servingML float64
}

// drinkKinds is matched in order; alcoholic kinds come first so "hard seltzer"
// does not read as plain seltzer.
var drinkKinds = []drinkKind{
	{regexp.MustCompile(`(?i)\b(?:light|lite)\s+beer\b`), true, 4.2, 355},
	{regexp.MustCompile(`(?i)\b(?:ipa|double ipa)\b`), true, 6.5, 355},
	{regexp.MustCompile(`(?i)\b(?:beers?|lagers?|ales?|pilsners?|stouts?|porters?|ciders?|hard seltzers?)\b`), true, 5, 355},
	{regexp.MustCompile(`(?i)\b(?:wines?|prosecco|champagne|rose|sangria)\b`), true, 12, 148},
	{regexp.MustCompile(`(?i)\bsake\b`), true, 15, 180},
	{regexp.MustCompile(`(?i)\b(?:margaritas?|cocktails?|mojitos?|martinis?|negronis?|daiquiris?|old fashioned)\b`), true, 15, 180},
	{regexp.MustCompile(`(?i)\b(?:whiske?y|vodka|tequila|rum|gin|bourbon|scotch|brandy|mezcal)\b`), true, 40, 44},
	{regexp.MustCompile(`(?i)\b(?:coffee|latte|cappuccino|espresso|tea|juice|soda|cola|coke|pepsi|water|seltzer|milk|smoothie|shake|kombucha|lemonade)\b`), false, 0, 240},
}

func stripPrefixes(text string) string {
	out := strings.TrimSpace(text)
	for _, re := range prefixPatterns {
		out = strings.TrimSpace(re.ReplaceAllString(out, ""))
	}
	return strings.TrimRight(out, ".!?; ")
}

// splitSegments breaks meal text into per-item substrings.
func splitSegments(text string) []string {
	parts := segmentSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(leadingAnd.ReplaceAllString(strings.TrimSpace(p), ""))
		p = strings.Trim(p, ".!?; ")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseItems(text string) []meal.Item {
	body := stripPrefixes(text)
	segments := splitSegments(body)
	if len(segments) == 0 && strings.TrimSpace(text) != "" {
		segments = []string{strings.TrimSpace(text)}
	}

	items := make([]meal.Item, 0, len(segments))
	for _, seg := range segments {
		items = append(items, parseSegment(seg))
	}
	return items
}

// parseSegment turns one item substring into a structured item with a
// heuristic estimate attached.
func parseSegment(raw string) meal.Item {
	work := articlePrefix.ReplaceAllString(strings.TrimSpace(raw), "")

	var q meal.Quantity
	var display string

	if m := quantityPattern.FindStringSubmatchIndex(work); m != nil {
		if v, ok := parseNumber(work[m[2]:m[3]]); ok {
			q.Value = meal.Float(v)
		}
		if m[4] >= 0 {
			if u, ok := units.Normalize(work[m[4]:m[5]]); ok {
				q.Unit = &u
			}
		}
		display = strings.TrimSpace(work[m[0]:m[1]])
		work = work[:m[0]] + " " + work[m[1]:]
	} else if m := wordNumberPattern.FindStringSubmatch(work); m != nil {
		word := strings.ToLower(strings.Fields(m[1])[0])
		q.Value = meal.Float(wordNumbers[word])
		display = strings.TrimSpace(m[1])
		work = work[len(m[0]):]
	}

	var hint *meal.SizeHint
	if m := sizePattern.FindStringSubmatchIndex(work); m != nil {
		word := strings.ToLower(work[m[2]:m[3]])
		if h, ok := sizeHints[word]; ok {
			hint = &h
		}
		if display == "" {
			display = work[m[2]:m[3]]
		}
		work = work[:m[0]] + " " + work[m[1]:]
	}

	name := strings.TrimSpace(work)
	name = strings.TrimSpace(leadingNumish.ReplaceAllString(name, ""))
	name = strings.TrimSpace(ofPrefix.ReplaceAllString(name, ""))
	name = strings.TrimSpace(articlePrefix.ReplaceAllString(name, ""))
	name = strings.Trim(spaces.ReplaceAllString(name, " "), " .,-")
	if name == "" {
		name = strings.TrimSpace(raw)
	}

	if display != "" {
		q.Display = meal.String(display)
	}

	item := meal.Item{
		RawText:     strings.TrimSpace(raw),
		Name:        name,
		Preparation: preparations(name),
		SizeHint:    hint,
		Lookup:      meal.Lookup{Status: meal.LookupPending, Candidates: []meal.Candidate{}},
		Confidence:  meal.ConfidenceLow,
	}

	if kind, ok := detectDrink(name); ok {
		if q.Unit != nil && *q.Unit == units.Ounce {
			fl := units.FluidOunce
			q.Unit = &fl
		}
		if kind.alcoholic {
			item.Alcohol = &meal.Alcohol{
				IsAlcohol: true,
				ABVPct:    meal.Float(kind.abv),
				VolumeML:  drinkVolume(q, kind),
			}
		}
	}

	item.Quantity = q
	item.NutritionEstimate = macros.Heuristic(name, q)
	item.Flags = meal.Flags{NeedsLookup: true, NeedsPortion: q.Value == nil}
	return item
}

func detectDrink(name string) (drinkKind, bool) {
	for _, k := range drinkKinds {
		if k.re.MatchString(name) {
			return k, true
		}
	}
	return drinkKind{}, false
}

func drinkVolume(q meal.Quantity, kind drinkKind) *float64 {
	if q.Value == nil {
		return meal.Float(kind.servingML)
	}
	if q.Unit == nil {
		return meal.Float(meal.Round2(*q.Value * kind.servingML))
	}
	if ml, ok := units.ToMilliliters(*q.Value, *q.Unit); ok {
		return meal.Float(meal.Round2(ml))
	}
	return nil
}

func preparations(name string) []string {
	found := preparationPattern.FindAllString(name, -1)
	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, strings.ToLower(f))
	}
	return out
}

// parseNumber reads integers, decimals, fractions and mixed numbers. It reports
// false for zero, negative or malformed input.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	var whole float64
	if fields := strings.Fields(s); len(fields) == 2 {
		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, false
		}
		whole = w
		s = fields[1]
	}

	var v float64
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		v = n / d
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = f
	}

	v += whole
	if v <= 0 {
		return 0, false
	}
	return v, true
}
