package nutrition

import (
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
)

var ErrInvalidTargets = errors.New("invalid nutrition targets")

// TargetsDTO represents the user's daily nutrition goals.
type TargetsDTO struct {
	CaloriesKcal int       `json:"calories_kcal"`
	ProteinG     int       `json:"protein_g"`
	FatG         int       `json:"fat_g"`
	CarbsG       int       `json:"carbs_g"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetTargetsResponse contains targets and a flag indicating if they are defaults.
type GetTargetsResponse struct {
	Targets   TargetsDTO `json:"targets"`
	IsDefault bool       `json:"is_default"`
}

// UpsertTargetsRequest is the request body for PUT /v1/nutrition/targets.
type UpsertTargetsRequest struct {
	CaloriesKcal int `json:"calories_kcal"`
	ProteinG     int `json:"protein_g"`
	FatG         int `json:"fat_g"`
	CarbsG       int `json:"carbs_g"`
}

// Validate validates the upsert request.
func (r *UpsertTargetsRequest) Validate() error {
	if r.CaloriesKcal < 800 || r.CaloriesKcal > 6000 {
		return fmt.Errorf("calories_kcal must be between 800 and 6000")
	}

	if r.ProteinG < 0 || r.ProteinG > 400 {
		return fmt.Errorf("protein_g must be between 0 and 400")
	}

	if r.FatG < 0 || r.FatG > 400 {
		return fmt.Errorf("fat_g must be between 0 and 400")
	}

	if r.CarbsG < 0 || r.CarbsG > 400 {
		return fmt.Errorf("carbs_g must be between 0 and 400")
	}

	return nil
}

// DefaultTargets returns reasonable default nutrition targets.
func DefaultTargets() TargetsDTO {
	now := time.Now().UTC()
	return TargetsDTO{
		CaloriesKcal: 2200,
		ProteinG:     120,
		FatG:         70,
		CarbsG:       250,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func toDTO(t *storage.NutritionTargets) TargetsDTO {
	return TargetsDTO{
		CaloriesKcal: t.CaloriesKcal,
		ProteinG:     t.ProteinG,
		FatG:         t.FatG,
		CarbsG:       t.CarbsG,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
