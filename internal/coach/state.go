package coach

import (
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
)

// maxStateMessages bounds the chat tail kept in a session.
const maxStateMessages = 200

// FoodItemDraft is one unconfirmed parsed item. Drafts live only in session
// state and are never persisted.
type FoodItemDraft struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	Item      meal.Item `json:"item"`
	CreatedAt time.Time `json:"created_at"`
}

// MealDraft groups the item drafts produced by one meal message.
type MealDraft struct {
	GroupID         uuid.UUID               `json:"group_id"`
	Date            string                  `json:"date"`
	MealType        meal.Type               `json:"meal_type"`
	SourceText      string                  `json:"source_text"`
	ContextNote     *string                 `json:"context_note,omitempty"`
	Totals          *meal.NutritionEstimate `json:"totals"`
	Confidence      meal.Confidence         `json:"confidence"`
	NutritionSource meal.Source             `json:"nutrition_source"`
	ParsePath       meal.ParsePath          `json:"parse_path"`
	CreatedAt       time.Time               `json:"created_at"`
}

// State is the in-memory session aggregate for one user. It changes only
// through Reduce.
type State struct {
	ActiveDate     string
	UserID         string
	Profile        *storage.Profile
	Day            *storage.Day
	Messages       []storage.ChatMessage
	MealDrafts     []MealDraft
	FoodItemDrafts []FoodItemDraft
	// Meals and Workouts hold the active date only.
	Meals    []storage.MealLog
	Workouts []storage.WorkoutLog
	// WeekWorkouts covers the ISO week of ActiveDate for adherence.
	WeekWorkouts []storage.WorkoutLog
	WeeklyPlan   []storage.WeeklyPlanEntry
	Targets      nutrition.TargetsDTO
}

// Action is a state transition.
type Action interface {
	apply(s State) State
}

// Reduce returns the state after applying the action. The input state is not
// modified.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s.clone())
}

func (s State) clone() State {
	out := s
	out.Messages = append([]storage.ChatMessage(nil), s.Messages...)
	out.MealDrafts = append([]MealDraft(nil), s.MealDrafts...)
	out.FoodItemDrafts = append([]FoodItemDraft(nil), s.FoodItemDrafts...)
	out.Meals = append([]storage.MealLog(nil), s.Meals...)
	out.Workouts = append([]storage.WorkoutLog(nil), s.Workouts...)
	out.WeekWorkouts = append([]storage.WorkoutLog(nil), s.WeekWorkouts...)
	out.WeeklyPlan = append([]storage.WeeklyPlanEntry(nil), s.WeeklyPlan...)
	if s.Profile != nil {
		p := *s.Profile
		p.Insights = append([]string(nil), s.Profile.Insights...)
		p.Answers = make(map[string]string, len(s.Profile.Answers))
		for k, v := range s.Profile.Answers {
			p.Answers[k] = v
		}
		out.Profile = &p
	}
	if s.Day != nil {
		d := *s.Day
		out.Day = &d
	}
	return out
}

// DraftGroup returns the meal draft and its item drafts.
func (s State) DraftGroup(groupID uuid.UUID) (MealDraft, []FoodItemDraft, bool) {
	for _, md := range s.MealDrafts {
		if md.GroupID != groupID {
			continue
		}
		var items []FoodItemDraft
		for _, fd := range s.FoodItemDrafts {
			if fd.GroupID == groupID {
				items = append(items, fd)
			}
		}
		return md, items, true
	}
	return MealDraft{}, nil, false
}

// PendingEstimates returns the estimates of all item drafts for a date.
func (s State) PendingEstimates(date string) []*meal.NutritionEstimate {
	dates := make(map[uuid.UUID]string, len(s.MealDrafts))
	for _, md := range s.MealDrafts {
		dates[md.GroupID] = md.Date
	}
	var out []*meal.NutritionEstimate
	for _, fd := range s.FoodItemDrafts {
		if dates[fd.GroupID] == date {
			out = append(out, fd.Item.NutritionEstimate)
		}
	}
	return out
}

type AppendMessage struct {
	Message storage.ChatMessage
}

func (a AppendMessage) apply(s State) State {
	s.Messages = append(s.Messages, a.Message)
	if n := len(s.Messages); n > maxStateMessages {
		s.Messages = append([]storage.ChatMessage(nil), s.Messages[n-maxStateMessages:]...)
	}
	return s
}

type AddDrafts struct {
	Meal  MealDraft
	Items []FoodItemDraft
}

func (a AddDrafts) apply(s State) State {
	if len(a.Items) == 0 {
		return s
	}
	s.MealDrafts = append(s.MealDrafts, a.Meal)
	for _, it := range a.Items {
		it.GroupID = a.Meal.GroupID
		s.FoodItemDrafts = append(s.FoodItemDrafts, it)
	}
	return s
}

type RemoveDraftGroup struct {
	GroupID uuid.UUID
}

func (a RemoveDraftGroup) apply(s State) State {
	meals := s.MealDrafts[:0]
	for _, md := range s.MealDrafts {
		if md.GroupID != a.GroupID {
			meals = append(meals, md)
		}
	}
	s.MealDrafts = meals

	items := s.FoodItemDrafts[:0]
	for _, fd := range s.FoodItemDrafts {
		if fd.GroupID != a.GroupID {
			items = append(items, fd)
		}
	}
	s.FoodItemDrafts = items
	return s
}

// RemoveFoodItemDrafts drops item drafts by id. A group left without items is
// removed; otherwise its totals are recomputed from what remains.
type RemoveFoodItemDrafts struct {
	IDs []uuid.UUID
}

func (a RemoveFoodItemDrafts) apply(s State) State {
	drop := make(map[uuid.UUID]bool, len(a.IDs))
	for _, id := range a.IDs {
		drop[id] = true
	}

	touched := make(map[uuid.UUID]bool)
	items := s.FoodItemDrafts[:0]
	for _, fd := range s.FoodItemDrafts {
		if drop[fd.ID] {
			touched[fd.GroupID] = true
			continue
		}
		items = append(items, fd)
	}
	s.FoodItemDrafts = items

	remaining := make(map[uuid.UUID][]meal.Item)
	for _, fd := range s.FoodItemDrafts {
		remaining[fd.GroupID] = append(remaining[fd.GroupID], fd.Item)
	}

	meals := s.MealDrafts[:0]
	for _, md := range s.MealDrafts {
		if !touched[md.GroupID] {
			meals = append(meals, md)
			continue
		}
		left, ok := remaining[md.GroupID]
		if !ok {
			continue
		}
		md.Totals = meal.SumTotals(left)
		meals = append(meals, md)
	}
	s.MealDrafts = meals
	return s
}

// UpsertMeal replaces a meal by id or appends it. Meals of other dates are
// ignored.
type UpsertMeal struct {
	Meal storage.MealLog
}

func (a UpsertMeal) apply(s State) State {
	if a.Meal.Date != s.ActiveDate {
		return s
	}
	for i := range s.Meals {
		if s.Meals[i].ID == a.Meal.ID {
			s.Meals[i] = a.Meal
			return s
		}
	}
	s.Meals = append(s.Meals, a.Meal)
	return s
}

// UpsertWorkout replaces a workout by id or appends it, in both the day list
// and the week list.
type UpsertWorkout struct {
	Workout storage.WorkoutLog
	// WeekStart and WeekEnd bound the week list (YYYY-MM-DD, inclusive).
	WeekStart, WeekEnd string
}

func (a UpsertWorkout) apply(s State) State {
	if a.Workout.Date == s.ActiveDate {
		s.Workouts = upsertWorkout(s.Workouts, a.Workout)
	}
	if a.Workout.Date >= a.WeekStart && a.Workout.Date <= a.WeekEnd {
		s.WeekWorkouts = upsertWorkout(s.WeekWorkouts, a.Workout)
	}
	return s
}

func upsertWorkout(list []storage.WorkoutLog, w storage.WorkoutLog) []storage.WorkoutLog {
	for i := range list {
		if list[i].ID == w.ID {
			list[i] = w
			return list
		}
	}
	return append(list, w)
}

// SyncDay replaces the persisted part of the state with a fresh snapshot.
// Drafts are kept because they were never persisted.
type SyncDay struct {
	Date         string
	Snapshot     storage.DaySnapshot
	WeekWorkouts []storage.WorkoutLog
}

func (a SyncDay) apply(s State) State {
	s.ActiveDate = a.Date
	s.Day = nil
	if a.Snapshot.Day != nil {
		d := *a.Snapshot.Day
		s.Day = &d
	}
	s.Meals = append([]storage.MealLog(nil), a.Snapshot.Meals...)
	s.Workouts = append([]storage.WorkoutLog(nil), a.Snapshot.Workouts...)
	s.WeekWorkouts = append([]storage.WorkoutLog(nil), a.WeekWorkouts...)
	return s
}

type SetProfile struct {
	Profile storage.Profile
}

func (a SetProfile) apply(s State) State {
	p := a.Profile
	p.Insights = append([]string(nil), a.Profile.Insights...)
	p.Answers = make(map[string]string, len(a.Profile.Answers))
	for k, v := range a.Profile.Answers {
		p.Answers[k] = v
	}
	s.Profile = &p
	return s
}

// SetDay records the day row, for example after a mood note update.
type SetDay struct {
	Day storage.Day
}

func (a SetDay) apply(s State) State {
	if a.Day.Date != s.ActiveDate {
		return s
	}
	d := a.Day
	s.Day = &d
	return s
}

type ReplaceWeeklyPlan struct {
	Entries []storage.WeeklyPlanEntry
}

func (a ReplaceWeeklyPlan) apply(s State) State {
	s.WeeklyPlan = append([]storage.WeeklyPlanEntry(nil), a.Entries...)
	return s
}

type SetTargets struct {
	Targets nutrition.TargetsDTO
}

func (a SetTargets) apply(s State) State {
	s.Targets = a.Targets
	return s
}

// SetMessages replaces the chat tail after hydration.
type SetMessages struct {
	Messages []storage.ChatMessage
}

func (a SetMessages) apply(s State) State {
	s.Messages = append([]storage.ChatMessage(nil), a.Messages...)
	return s
}
