package coach

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/intent"
	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/summary"
	"github.com/fdg312/coach-hub/internal/workouts"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
	ErrDraftNotFound  = errors.New("draft not found")
	ErrMealNotFound   = errors.New("meal not found")
)

const (
	MaxMessageLength = 2000
	defaultListLimit = 50
	maxListLimit     = 200
)

// ============================================================================
// Service requests and results
// ============================================================================

// MessageRequest is one user chat message.
type MessageRequest struct {
	UserID        string
	Authenticated bool
	Content       string
	// Date is the active day (YYYY-MM-DD); empty means the day of Now.
	Date string
	// Now is the user's local time.
	Now time.Time
}

// MessageResult is what the coach did with a message. Success is false when
// something could not be persisted; the rest of the result is still valid.
type MessageResult struct {
	Intent       intent.Kind          `json:"intent"`
	Mood         intent.Mood          `json:"mood,omitempty"`
	CoachMessage string               `json:"coach_message"`
	Insight      *string              `json:"insight,omitempty"`
	Drafts       *DraftGroupDTO       `json:"drafts,omitempty"`
	Workout      *workouts.WorkoutDTO `json:"workout,omitempty"`
	Totals       *summary.Totals      `json:"totals,omitempty"`
	WeeklyStats  *summary.WeeklyStats `json:"weekly_stats,omitempty"`
	Onboarding   *OnboardingDTO       `json:"onboarding,omitempty"`
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`
}

// DraftSelection picks drafts of one group. Empty ItemIDs means the whole group.
type DraftSelection struct {
	UserID        string
	Authenticated bool
	GroupID       uuid.UUID
	ItemIDs       []uuid.UUID
}

type ConfirmResult struct {
	Meal    *MealDTO        `json:"meal,omitempty"`
	Totals  summary.Totals  `json:"totals"`
	Pending []DraftGroupDTO `json:"pending_drafts"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
}

// MealPatch edits a confirmed meal. Nil fields are left unchanged. When Items
// change and Totals is nil the totals are recomputed.
type MealPatch struct {
	MealType *meal.Type              `json:"meal_type"`
	Items    []meal.Item             `json:"items"`
	Totals   *meal.NutritionEstimate `json:"totals"`
}

// ============================================================================
// DTOs
// ============================================================================

type SendMessageRequest struct {
	Content string `json:"content"`
	Date    string `json:"date,omitempty"`
}

type DraftActionRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids,omitempty"`
}

type OnboardingDTO struct {
	Step      int  `json:"step"`
	Completed bool `json:"completed"`
}

type FoodItemDraftDTO struct {
	ID   uuid.UUID `json:"id"`
	Item meal.Item `json:"item"`
}

type DraftGroupDTO struct {
	GroupID         uuid.UUID               `json:"group_id"`
	Date            string                  `json:"date"`
	MealType        meal.Type               `json:"meal_type"`
	SourceText      string                  `json:"source_text"`
	ContextNote     *string                 `json:"context_note,omitempty"`
	Confidence      meal.Confidence         `json:"confidence"`
	NutritionSource meal.Source             `json:"nutrition_source"`
	ParsePath       meal.ParsePath          `json:"parse_path"`
	Totals          *meal.NutritionEstimate `json:"totals"`
	Items           []FoodItemDraftDTO      `json:"items"`
	CreatedAt       time.Time               `json:"created_at"`
}

type MealDTO struct {
	ID         uuid.UUID               `json:"id"`
	Date       string                  `json:"date"`
	MealType   meal.Type               `json:"meal_type"`
	SourceText string                  `json:"source_text"`
	Items      []meal.Item             `json:"items"`
	Totals     *meal.NutritionEstimate `json:"totals"`
	Confidence meal.Confidence         `json:"confidence"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

type ChatMessageDTO struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

type ListMessagesResponse struct {
	Messages   []ChatMessageDTO `json:"messages"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

type PlanEntryDTO struct {
	Weekday     int    `json:"weekday"`
	WeekdayName string `json:"weekday_name"`
	Type        string `json:"type"`
	Minutes     int    `json:"minutes"`
	Intensity   string `json:"intensity"`
	Focus       string `json:"focus,omitempty"`
}

// DayView is the full picture of one day for the client.
type DayView struct {
	Date         string                `json:"date"`
	MoodNote     *string               `json:"mood_note,omitempty"`
	Meals        []MealDTO             `json:"meals"`
	Workouts     []workouts.WorkoutDTO `json:"workouts"`
	Totals       summary.Totals        `json:"totals"`
	Projected    summary.Totals        `json:"projected_totals"`
	Targets      nutrition.TargetsDTO  `json:"targets"`
	WeeklyStats  summary.WeeklyStats   `json:"weekly_stats"`
	UpcomingPlan *PlanEntryDTO         `json:"upcoming_plan,omitempty"`
	Drafts       []DraftGroupDTO       `json:"pending_drafts"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func messageToDTO(msg storage.ChatMessage) ChatMessageDTO {
	return ChatMessageDTO{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		Intent:    msg.Intent,
		Date:      msg.Date,
		CreatedAt: msg.CreatedAt,
	}
}

func mealToDTO(m storage.MealLog) MealDTO {
	return MealDTO{
		ID:         m.ID,
		Date:       m.Date,
		MealType:   m.MealType,
		SourceText: m.SourceText,
		Items:      m.Items,
		Totals:     m.Totals,
		Confidence: m.Confidence,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func draftGroupToDTO(md MealDraft, items []FoodItemDraft) DraftGroupDTO {
	dto := DraftGroupDTO{
		GroupID:         md.GroupID,
		Date:            md.Date,
		MealType:        md.MealType,
		SourceText:      md.SourceText,
		ContextNote:     md.ContextNote,
		Confidence:      md.Confidence,
		NutritionSource: md.NutritionSource,
		ParsePath:       md.ParsePath,
		Totals:          md.Totals,
		Items:           make([]FoodItemDraftDTO, 0, len(items)),
		CreatedAt:       md.CreatedAt,
	}
	for _, it := range items {
		dto.Items = append(dto.Items, FoodItemDraftDTO{ID: it.ID, Item: it.Item})
	}
	return dto
}

// pendingDrafts lists the draft groups of a date in creation order.
func pendingDrafts(s State, date string) []DraftGroupDTO {
	out := make([]DraftGroupDTO, 0)
	for _, md := range s.MealDrafts {
		if md.Date != date {
			continue
		}
		_, items, _ := s.DraftGroup(md.GroupID)
		out = append(out, draftGroupToDTO(md, items))
	}
	return out
}

func planEntryToDTO(e storage.WeeklyPlanEntry) *PlanEntryDTO {
	return &PlanEntryDTO{
		Weekday:     e.Weekday,
		WeekdayName: summary.WeekdayName(e.Weekday),
		Type:        e.Type,
		Minutes:     e.Minutes,
		Intensity:   e.Intensity,
		Focus:       e.Focus,
	}
}
