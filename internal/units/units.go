package units

import "strings"

// Unit is a canonical quantity unit.
type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Milligram  Unit = "mg"
	Ounce      Unit = "oz"
	FluidOunce Unit = "oz_fl"
	Pound      Unit = "lb"
	Milliliter Unit = "ml"
	Liter      Unit = "l"
	Cup        Unit = "cup"
	Tablespoon Unit = "tbsp"
	Teaspoon   Unit = "tsp"
	Piece      Unit = "piece"
	Count      Unit = "count"
	Slice      Unit = "slice"
	Serving    Unit = "serving"
	Bottle     Unit = "bottle"
	Can        Unit = "can"
	Glass      Unit = "glass"
	Pint       Unit = "pint"
	Shot       Unit = "shot"
	Bowl       Unit = "bowl"
	Scoop      Unit = "scoop"
	Handful    Unit = "handful"
	Other      Unit = "other"
)

// Canonical lists every unit Normalize can return.
var Canonical = []Unit{
	Gram, Kilogram, Milligram, Ounce, FluidOunce, Pound, Milliliter, Liter,
	Cup, Tablespoon, Teaspoon, Piece, Count, Slice, Serving, Bottle, Can,
	Glass, Pint, Shot, Bowl, Scoop, Handful, Other,
}

var aliases = map[string]Unit{
	"g": Gram, "gr": Gram, "gram": Gram, "grams": Gram, "gms": Gram,
	"kg": Kilogram, "kgs": Kilogram, "kilo": Kilogram, "kilos": Kilogram, "kilogram": Kilogram, "kilograms": Kilogram,
	"mg": Milligram, "milligram": Milligram, "milligrams": Milligram,
	"oz": Ounce, "ozs": Ounce, "ounce": Ounce, "ounces": Ounce,
	"oz_fl": FluidOunce, "floz": FluidOunce, "fl oz": FluidOunce, "fl_oz": FluidOunce, "fluid ounce": FluidOunce, "fluid ounces": FluidOunce,
	"lb": Pound, "lbs": Pound, "pound": Pound, "pounds": Pound,
	"ml": Milliliter, "mls": Milliliter, "milliliter": Milliliter, "milliliters": Milliliter, "millilitre": Milliliter, "millilitres": Milliliter,
	"l": Liter, "liter": Liter, "liters": Liter, "litre": Liter, "litres": Liter,
	"c": Cup, "cup": Cup, "cups": Cup,
	"tbsp": Tablespoon, "tbs": Tablespoon, "tbl": Tablespoon, "tablespoon": Tablespoon, "tablespoons": Tablespoon,
	"tsp": Teaspoon, "teaspoon": Teaspoon, "teaspoons": Teaspoon,
	"piece": Piece, "pieces": Piece, "pc": Piece, "pcs": Piece,
	"count": Count, "ct": Count, "x": Count,
	"slice": Slice, "slices": Slice,
	"serving": Serving, "servings": Serving, "portion": Serving, "portions": Serving,
	"bottle": Bottle, "bottles": Bottle,
	"can": Can, "cans": Can,
	"glass": Glass, "glasses": Glass,
	"pint": Pint, "pints": Pint, "pt": Pint,
	"shot": Shot, "shots": Shot,
	"bowl": Bowl, "bowls": Bowl,
	"scoop": Scoop, "scoops": Scoop,
	"handful": Handful, "handfuls": Handful,
	"other": Other,
}

// Normalize maps a free-form unit token to its canonical unit.
// Empty input reports false; unknown non-empty input maps to Other.
func Normalize(raw string) (Unit, bool) {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.Trim(token, ".,;:")
	token = strings.Join(strings.Fields(strings.ReplaceAll(token, ".", " ")), " ")
	if token == "" {
		return "", false
	}
	if u, ok := aliases[token]; ok {
		return u, true
	}
	return Other, true
}

// Equivalent reports whether two units describe the same measure for scaling.
func Equivalent(a, b Unit) bool {
	if a == b {
		return true
	}
	return pairOf(a) == pairOf(b)
}

func pairOf(u Unit) Unit {
	switch u {
	case Count:
		return Piece
	case FluidOunce:
		return Ounce
	}
	return u
}

var millilitersPer = map[Unit]float64{
	Milliliter: 1,
	Liter:      1000,
	FluidOunce: 29.5735,
	Cup:        236.588,
	Pint:       473.176,
	Tablespoon: 14.787,
	Teaspoon:   4.929,
	Can:        355,
	Bottle:     355,
	Glass:      240,
	Shot:       44,
}

// IsVolume reports whether the unit converts to milliliters.
func IsVolume(u Unit) bool {
	_, ok := millilitersPer[u]
	return ok
}

// ToMilliliters converts a volume quantity. The second result is false for non-volume units.
func ToMilliliters(value float64, u Unit) (float64, bool) {
	factor, ok := millilitersPer[u]
	if !ok {
		return 0, false
	}
	return value * factor, true
}
