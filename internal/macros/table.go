package macros

import "github.com/fdg312/coach-hub/internal/units"

// entry describes macros for baseAmount of baseUnit of a food.
type entry struct {
	keywords   []string
	baseUnit   units.Unit
	baseAmount float64
	macros     Breakdown
}

// table is matched top to bottom and the first keyword hit wins, so more
// specific foods sit above the generic ones they contain.
var table = []entry{
	{[]string{"soft pretzel"}, units.Piece, 1, Breakdown{CaloriesKcal: 390, ProteinG: 9.4, CarbsG: 80, FatG: 3.6, FiberG: 2}},
	{[]string{"pretzel"}, units.Ounce, 1, Breakdown{CaloriesKcal: 108, ProteinG: 2.9, CarbsG: 22.5, FatG: 0.8, FiberG: 0.9}},
	{[]string{"light beer", "lite beer"}, units.FluidOunce, 12, Breakdown{CaloriesKcal: 103, ProteinG: 0.9, CarbsG: 5.8, FatG: 0, FiberG: 0}},
	{[]string{"ipa"}, units.FluidOunce, 12, Breakdown{CaloriesKcal: 200, ProteinG: 2.2, CarbsG: 18, FatG: 0, FiberG: 0}},
	{[]string{"lager", "beer", "pilsner", "stout"}, units.FluidOunce, 12, Breakdown{CaloriesKcal: 150, ProteinG: 1.6, CarbsG: 13, FatG: 0, FiberG: 0}},
	{[]string{"red wine", "white wine", "wine", "prosecco", "champagne"}, units.FluidOunce, 5, Breakdown{CaloriesKcal: 125, ProteinG: 0.1, CarbsG: 3.8, FatG: 0, FiberG: 0}},
	{[]string{"margarita", "cocktail", "mojito"}, units.FluidOunce, 8, Breakdown{CaloriesKcal: 275, ProteinG: 0.1, CarbsG: 36, FatG: 0.1, FiberG: 0}},
	{[]string{"whiskey", "whisky", "vodka", "tequila", "rum", "bourbon"}, units.Shot, 1, Breakdown{CaloriesKcal: 97, ProteinG: 0, CarbsG: 0, FatG: 0, FiberG: 0}},
	{[]string{"egg"}, units.Piece, 1, Breakdown{CaloriesKcal: 72, ProteinG: 6.3, CarbsG: 0.4, FatG: 4.8, FiberG: 0}},
	{[]string{"bacon"}, units.Slice, 1, Breakdown{CaloriesKcal: 43, ProteinG: 3, CarbsG: 0.1, FatG: 3.3, FiberG: 0}},
	{[]string{"toast", "bread"}, units.Slice, 1, Breakdown{CaloriesKcal: 80, ProteinG: 3, CarbsG: 14, FatG: 1, FiberG: 1.2}},
	{[]string{"bagel"}, units.Piece, 1, Breakdown{CaloriesKcal: 270, ProteinG: 10, CarbsG: 53, FatG: 1.7, FiberG: 2.3}},
	{[]string{"oatmeal", "oats", "porridge"}, units.Cup, 1, Breakdown{CaloriesKcal: 158, ProteinG: 6, CarbsG: 27, FatG: 3.2, FiberG: 4}},
	{[]string{"greek yogurt", "yogurt", "yoghurt"}, units.Cup, 1, Breakdown{CaloriesKcal: 150, ProteinG: 20, CarbsG: 9, FatG: 4, FiberG: 0}},
	{[]string{"banana"}, units.Piece, 1, Breakdown{CaloriesKcal: 105, ProteinG: 1.3, CarbsG: 27, FatG: 0.4, FiberG: 3.1}},
	{[]string{"apple"}, units.Piece, 1, Breakdown{CaloriesKcal: 95, ProteinG: 0.5, CarbsG: 25, FatG: 0.3, FiberG: 4.4}},
	{[]string{"protein shake", "protein powder", "whey"}, units.Scoop, 1, Breakdown{CaloriesKcal: 120, ProteinG: 24, CarbsG: 3, FatG: 1.5, FiberG: 0}},
	{[]string{"chicken breast", "chicken"}, units.Ounce, 4, Breakdown{CaloriesKcal: 187, ProteinG: 35, CarbsG: 0, FatG: 4, FiberG: 0}},
	{[]string{"salmon"}, units.Ounce, 4, Breakdown{CaloriesKcal: 234, ProteinG: 25, CarbsG: 0, FatG: 14, FiberG: 0}},
	{[]string{"steak", "beef"}, units.Ounce, 4, Breakdown{CaloriesKcal: 280, ProteinG: 29, CarbsG: 0, FatG: 18, FiberG: 0}},
	{[]string{"burger", "hamburger", "cheeseburger"}, units.Piece, 1, Breakdown{CaloriesKcal: 550, ProteinG: 30, CarbsG: 40, FatG: 30, FiberG: 2}},
	{[]string{"pizza"}, units.Slice, 1, Breakdown{CaloriesKcal: 285, ProteinG: 12, CarbsG: 36, FatG: 10, FiberG: 2.5}},
	{[]string{"burrito"}, units.Piece, 1, Breakdown{CaloriesKcal: 700, ProteinG: 30, CarbsG: 80, FatG: 25, FiberG: 9}},
	{[]string{"taco"}, units.Piece, 1, Breakdown{CaloriesKcal: 170, ProteinG: 8, CarbsG: 13, FatG: 9, FiberG: 2}},
	{[]string{"sandwich", "sub", "wrap"}, units.Piece, 1, Breakdown{CaloriesKcal: 450, ProteinG: 22, CarbsG: 45, FatG: 18, FiberG: 4}},
	{[]string{"brown rice", "rice"}, units.Cup, 1, Breakdown{CaloriesKcal: 206, ProteinG: 4.3, CarbsG: 45, FatG: 0.4, FiberG: 0.6}},
	{[]string{"pasta", "spaghetti", "noodles"}, units.Cup, 1, Breakdown{CaloriesKcal: 220, ProteinG: 8, CarbsG: 43, FatG: 1.3, FiberG: 2.5}},
	{[]string{"salad"}, units.Bowl, 1, Breakdown{CaloriesKcal: 150, ProteinG: 4, CarbsG: 10, FatG: 10, FiberG: 4}},
	{[]string{"fries", "french fries", "chips"}, units.Serving, 1, Breakdown{CaloriesKcal: 365, ProteinG: 4, CarbsG: 48, FatG: 17, FiberG: 4.4}},
	{[]string{"peanut butter"}, units.Tablespoon, 2, Breakdown{CaloriesKcal: 190, ProteinG: 7, CarbsG: 7, FatG: 16, FiberG: 2}},
	{[]string{"almonds", "nuts", "trail mix"}, units.Ounce, 1, Breakdown{CaloriesKcal: 164, ProteinG: 6, CarbsG: 6, FatG: 14, FiberG: 3.5}},
	{[]string{"avocado"}, units.Piece, 1, Breakdown{CaloriesKcal: 240, ProteinG: 3, CarbsG: 13, FatG: 22, FiberG: 10}},
	{[]string{"milk"}, units.Cup, 1, Breakdown{CaloriesKcal: 122, ProteinG: 8, CarbsG: 12, FatG: 4.8, FiberG: 0}},
	{[]string{"latte", "cappuccino"}, units.FluidOunce, 12, Breakdown{CaloriesKcal: 190, ProteinG: 13, CarbsG: 18, FatG: 7, FiberG: 0}},
	{[]string{"coffee", "espresso", "tea"}, units.Cup, 1, Breakdown{CaloriesKcal: 2, ProteinG: 0.3, CarbsG: 0, FatG: 0, FiberG: 0}},
	{[]string{"soda", "cola", "coke", "pepsi"}, units.FluidOunce, 12, Breakdown{CaloriesKcal: 140, ProteinG: 0, CarbsG: 39, FatG: 0, FiberG: 0}},
	{[]string{"orange juice", "juice", "smoothie"}, units.FluidOunce, 8, Breakdown{CaloriesKcal: 112, ProteinG: 1.7, CarbsG: 26, FatG: 0.5, FiberG: 0.5}},
	{[]string{"water", "seltzer"}, units.FluidOunce, 8, Breakdown{CaloriesKcal: 0, ProteinG: 0, CarbsG: 0, FatG: 0, FiberG: 0}},
	{[]string{"cookie"}, units.Piece, 1, Breakdown{CaloriesKcal: 150, ProteinG: 2, CarbsG: 20, FatG: 7, FiberG: 0.7}},
	{[]string{"ice cream"}, units.Cup, 1, Breakdown{CaloriesKcal: 273, ProteinG: 4.6, CarbsG: 31, FatG: 14.5, FiberG: 0.9}},
	{[]string{"chocolate"}, units.Ounce, 1, Breakdown{CaloriesKcal: 155, ProteinG: 2, CarbsG: 17, FatG: 9, FiberG: 2}},
	{[]string{"granola bar", "protein bar", "bar"}, units.Piece, 1, Breakdown{CaloriesKcal: 200, ProteinG: 10, CarbsG: 22, FatG: 7, FiberG: 3}},
}
