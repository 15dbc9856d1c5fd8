package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/summary"
)

const dateLayout = "2006-01-02"

// DataSource is what the generator reads.
type DataSource interface {
	ListMeals(ctx context.Context, userID, from, to string) ([]storage.MealLog, error)
	ListWorkouts(ctx context.Context, userID, from, to string) ([]storage.WorkoutLog, error)
	GetDaySnapshot(ctx context.Context, userID, date string) (*storage.DaySnapshot, error)
}

type targetsProvider interface {
	GetOrDefault(ctx context.Context, userID string) (nutrition.TargetsDTO, bool, error)
}

// Generator renders PDF/CSV reports of logged days.
type Generator struct {
	source  DataSource
	targets targetsProvider
}

func NewGenerator(source DataSource, targets targetsProvider) *Generator {
	return &Generator{source: source, targets: targets}
}

// GenerateReport builds the rows for [From, To] and renders them.
func (g *Generator) GenerateReport(ctx context.Context, userID string, req CreateReportRequest) ([]byte, error) {
	rows, err := g.collectRows(ctx, userID, req.From, req.To)
	if err != nil {
		return nil, err
	}

	targets := nutrition.DefaultTargets()
	if g.targets != nil {
		t, _, err := g.targets.GetOrDefault(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch targets: %w", err)
		}
		targets = t
	}

	switch req.Format {
	case FormatPDF:
		return g.generatePDF(req, rows, targets)
	case FormatCSV:
		return g.generateCSV(rows)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

// collectRows returns one row per calendar day, including empty days.
func (g *Generator) collectRows(ctx context.Context, userID, from, to string) ([]DayRow, error) {
	meals, err := g.source.ListMeals(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meals: %w", err)
	}
	workoutLogs, err := g.source.ListWorkouts(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workouts: %w", err)
	}

	mealsByDate := make(map[string][]storage.MealLog)
	for _, m := range meals {
		mealsByDate[m.Date] = append(mealsByDate[m.Date], m)
	}
	workoutsByDate := make(map[string][]storage.WorkoutLog)
	for _, w := range workoutLogs {
		workoutsByDate[w.Date] = append(workoutsByDate[w.Date], w)
	}

	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, ErrInvalidDate
	}

	var rows []DayRow
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		totals := summary.CalculateDailyTotals(mealsByDate[date])
		row := DayRow{
			Date:         date,
			CaloriesKcal: totals.CaloriesKcal,
			ProteinG:     totals.ProteinG,
			CarbsG:       totals.CarbsG,
			FatG:         totals.FatG,
			Meals:        len(mealsByDate[date]),
			Workouts:     len(workoutsByDate[date]),
		}
		for _, w := range workoutsByDate[date] {
			row.WorkoutMinutes += w.Minutes
		}

		snap, err := g.source.GetDaySnapshot(ctx, userID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch day %s: %w", date, err)
		}
		if snap != nil && snap.Day != nil && snap.Day.MoodNote != nil {
			row.MoodNote = *snap.Day.MoodNote
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g *Generator) generateCSV(rows []DayRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "calories_kcal", "protein_g", "carbs_g", "fat_g", "meals", "workouts", "workout_minutes", "mood_note"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range rows {
		record := []string{
			r.Date,
			strconv.Itoa(int(math.Round(r.CaloriesKcal))),
			formatGrams(r.ProteinG),
			formatGrams(r.CarbsG),
			formatGrams(r.FatG),
			strconv.Itoa(r.Meals),
			strconv.Itoa(r.Workouts),
			strconv.Itoa(r.WorkoutMinutes),
			r.MoodNote,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *Generator) generatePDF(req CreateReportRequest, rows []DayRow, targets nutrition.TargetsDTO) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; user text goes through the translator
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	const fontName = "Arial"

	pdf.AddPage()

	pdf.SetFont(fontName, "B", 16)
	pdf.Cell(0, 10, "Nutrition and Training Report")
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", req.From, req.To))
	pdf.Ln(12)

	sum := calculateSummary(rows, targets)

	pdf.SetFont(fontName, "B", 14)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 10)
	lines := []string{
		fmt.Sprintf("Days with meals logged: %d of %d", sum.LoggedDays, len(rows)),
		fmt.Sprintf("Average calories on logged days: %s (target %d kcal)", formatKcal(sum.AvgCalories), targets.CaloriesKcal),
		fmt.Sprintf("Average protein on logged days: %s (target %dg)", formatGramsPtr(sum.AvgProtein), targets.ProteinG),
		fmt.Sprintf("Days over calorie target: %d", sum.DaysOverTarget),
		fmt.Sprintf("Workouts: %d, %d min in total", sum.Workouts, sum.WorkoutMinutes),
	}
	for _, line := range lines {
		pdf.Cell(0, 6, line)
		pdf.Ln(5)
	}
	pdf.Ln(7)

	pdf.SetFont(fontName, "B", 14)
	pdf.Cell(0, 8, "Days")
	pdf.Ln(8)

	drawDaysTable(pdf, rows, fontName, tr)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// Summary holds the aggregates printed on the first page.
type Summary struct {
	LoggedDays     int
	AvgCalories    *float64
	AvgProtein     *float64
	DaysOverTarget int
	Workouts       int
	WorkoutMinutes int
}

func calculateSummary(rows []DayRow, targets nutrition.TargetsDTO) Summary {
	var s Summary
	var kcalSum, proteinSum float64
	for _, r := range rows {
		s.Workouts += r.Workouts
		s.WorkoutMinutes += r.WorkoutMinutes
		if r.Meals == 0 {
			continue
		}
		s.LoggedDays++
		kcalSum += r.CaloriesKcal
		proteinSum += r.ProteinG
		if targets.CaloriesKcal > 0 && r.CaloriesKcal > float64(targets.CaloriesKcal) {
			s.DaysOverTarget++
		}
	}
	if s.LoggedDays > 0 {
		avgKcal := kcalSum / float64(s.LoggedDays)
		avgProtein := proteinSum / float64(s.LoggedDays)
		s.AvgCalories = &avgKcal
		s.AvgProtein = &avgProtein
	}
	return s
}

func drawDaysTable(pdf *gofpdf.Fpdf, rows []DayRow, fontName string, tr func(string) string) {
	pdf.SetFont(fontName, "B", 8)

	pdf.CellFormat(22, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(16, 6, "Kcal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(16, 6, "Protein", "1", 0, "C", false, 0, "")
	pdf.CellFormat(16, 6, "Carbs", "1", 0, "C", false, 0, "")
	pdf.CellFormat(16, 6, "Fat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(14, 6, "Meals", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Workouts", "1", 0, "C", false, 0, "")
	pdf.CellFormat(72, 6, "Mood", "1", 1, "C", false, 0, "")

	pdf.SetFont(fontName, "", 8)
	for _, r := range rows {
		pdf.CellFormat(22, 6, r.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(16, 6, strconv.Itoa(int(math.Round(r.CaloriesKcal))), "1", 0, "C", false, 0, "")
		pdf.CellFormat(16, 6, formatGrams(r.ProteinG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(16, 6, formatGrams(r.CarbsG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(16, 6, formatGrams(r.FatG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(14, 6, strconv.Itoa(r.Meals), "1", 0, "C", false, 0, "")
		workouts := ""
		if r.Workouts > 0 {
			workouts = fmt.Sprintf("%d / %dm", r.Workouts, r.WorkoutMinutes)
		}
		pdf.CellFormat(18, 6, workouts, "1", 0, "C", false, 0, "")
		pdf.CellFormat(72, 6, tr(truncate(r.MoodNote, 45)), "1", 1, "L", false, 0, "")
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "..."
}

func formatGrams(v float64) string {
	return fmt.Sprintf("%.1f", math.Round(v*10)/10)
}

func formatGramsPtr(v *float64) string {
	if v == nil {
		return "no data"
	}
	return formatGrams(*v) + "g"
}

func formatKcal(v *float64) string {
	if v == nil {
		return "no data"
	}
	return fmt.Sprintf("%d kcal", int(math.Round(*v)))
}
