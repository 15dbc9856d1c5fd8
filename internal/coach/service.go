package coach

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fdg312/coach-hub/internal/intent"
	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/mealparse"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/summary"
	"github.com/fdg312/coach-hub/internal/workouts"
)

const dateLayout = "2006-01-02"

// IntentOnboarding labels messages consumed by the onboarding flow.
const IntentOnboarding intent.Kind = "onboarding"

const (
	defaultMaxInsights  = 20
	defaultHistoryLimit = 12
)

type planProvider interface {
	PlanEntries(ctx context.Context, userID string) ([]storage.WeeklyPlanEntry, bool, error)
}

type targetsProvider interface {
	GetOrDefault(ctx context.Context, userID string) (nutrition.TargetsDTO, bool, error)
	Upsert(ctx context.Context, userID string, req nutrition.UpsertTargetsRequest) (nutrition.TargetsDTO, error)
}

// Options wires the collaborators of the coach. Nil parser, enricher and
// responder fall back to the deterministic tiers.
type Options struct {
	Store        storage.Storage
	Parser       *mealparse.Parser
	Enricher     *nutrition.Enricher
	Responder    *Responder
	Plans        planProvider
	Targets      targetsProvider
	Sessions     *Sessions
	MaxInsights  int
	HistoryLimit int
}

type Service struct {
	store        storage.Storage
	parser       *mealparse.Parser
	enricher     *nutrition.Enricher
	responder    *Responder
	plans        planProvider
	targets      targetsProvider
	sessions     *Sessions
	maxInsights  int
	historyLimit int
	tel          *instruments
	now          func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		store:        opts.Store,
		parser:       opts.Parser,
		enricher:     opts.Enricher,
		responder:    opts.Responder,
		plans:        opts.Plans,
		targets:      opts.Targets,
		sessions:     opts.Sessions,
		maxInsights:  opts.MaxInsights,
		historyLimit: opts.HistoryLimit,
		tel:          newInstruments(),
		now:          time.Now,
	}
	if s.parser == nil {
		s.parser = mealparse.New(nil)
	}
	if s.enricher == nil {
		s.enricher = nutrition.NewEnricher(nil)
	}
	if s.responder == nil {
		s.responder = NewResponder(nil)
	}
	if s.plans == nil {
		s.plans = workouts.NewService(opts.Store, opts.Store)
	}
	if s.targets == nil {
		s.targets = nutrition.NewService(opts.Store)
	}
	if s.sessions == nil {
		s.sessions = NewSessions()
	}
	if s.maxInsights <= 0 {
		s.maxInsights = defaultMaxInsights
	}
	if s.historyLimit <= 0 {
		s.historyLimit = defaultHistoryLimit
	}
	return s
}

// Sessions exposes the session registry, e.g. to mark sessions stale after
// profile or plan edits made through other endpoints.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// ============================================================================
// Messages
// ============================================================================

// HandleMessage runs one chat message through the coach. The returned error is
// only for invalid requests; every downstream failure degrades to a
// deterministic reply and is reported through Success and Error.
func (s *Service) HandleMessage(ctx context.Context, req MessageRequest) (*MessageResult, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidRequest)
	}
	if len(content) > MaxMessageLength {
		return nil, fmt.Errorf("%w: content too long: max %d chars", ErrInvalidRequest, MaxMessageLength)
	}

	now := req.Now
	if now.IsZero() {
		now = s.now()
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = now.Format(dateLayout)
	}
	day, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format, expected YYYY-MM-DD", ErrInvalidRequest)
	}

	started := time.Now()
	ctx, span := s.tel.start(ctx, "coach.HandleMessage", attribute.String("date", date))
	defer span.End()

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	t := &turn{
		s:       s,
		sess:    sess,
		userID:  userID,
		authed:  req.Authenticated,
		content: content,
		date:    date,
		day:     day,
		now:     now,
		result:  &MessageResult{},
	}
	t.ensureHydrated(ctx)

	onboarding := NeedsOnboarding(sess.state.Profile)
	detected := intent.Intent{Kind: IntentOnboarding}
	if !onboarding {
		detected = intent.Detect(content)
	}
	t.result.Intent = detected.Kind
	t.result.Mood = detected.Mood
	span.SetAttributes(attribute.String("intent", string(detected.Kind)))

	t.persistMessage(ctx, "user", content, string(detected.Kind))

	if onboarding {
		t.onboarding(ctx)
	} else {
		t.dispatch(ctx, detected)
	}
	if t.result.CoachMessage == "" {
		t.result.CoachMessage = emptyMessage
	}

	t.persistMessage(ctx, "assistant", t.result.CoachMessage, string(detected.Kind))
	t.finish(span)

	s.tel.message(ctx, string(detected.Kind), started)
	return t.result, nil
}

func (s *Service) ListMessages(ctx context.Context, userID string, limit int, before *time.Time) (*ListMessagesResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	limit = normalizeLimit(limit)
	rows, err := s.store.ListMessages(ctx, userID, limit, before)
	if err != nil {
		return nil, err
	}

	messages := make([]ChatMessageDTO, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, messageToDTO(row))
	}

	var nextCursor *string
	if len(rows) == limit && len(rows) > 0 {
		cursor := rows[0].CreatedAt.UTC().Format(time.RFC3339Nano)
		nextCursor = &cursor
	}

	return &ListMessagesResponse{
		Messages:   messages,
		NextCursor: nextCursor,
	}, nil
}

// ============================================================================
// Days and drafts
// ============================================================================

// SyncDay re-reads the day from storage, replaces the session state and
// returns the day view. Pending drafts survive the sync.
func (s *Service) SyncDay(ctx context.Context, userID, date string, now time.Time) (*DayView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if now.IsZero() {
		now = s.now()
	}
	day, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format, expected YYYY-MM-DD", ErrInvalidRequest)
	}

	ctx, span := s.tel.start(ctx, "coach.SyncDay", attribute.String("date", date))
	defer span.End()

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.hydrate(ctx, sess, userID, date); err != nil {
		recordError(span, err)
		return nil, err
	}
	return dayView(sess.state, day), nil
}

// ConfirmDrafts promotes drafts into one confirmed meal. Drafts leave the
// session before the meal is written; a write failure is reported through
// Success and is not rolled back.
func (s *Service) ConfirmDrafts(ctx context.Context, sel DraftSelection) (*ConfirmResult, error) {
	if strings.TrimSpace(sel.UserID) == "" || !sel.Authenticated {
		return nil, ErrUnauthorized
	}

	ctx, span := s.tel.start(ctx, "coach.ConfirmDrafts", attribute.String("group_id", sel.GroupID.String()))
	defer span.End()

	sess := s.sessions.get(sel.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	md, items, ok := sess.state.DraftGroup(sel.GroupID)
	if !ok {
		return nil, ErrDraftNotFound
	}
	selected, err := selectDrafts(items, sel.ItemIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(selected))
	mealItems := make([]meal.Item, 0, len(selected))
	for _, d := range selected {
		ids = append(ids, d.ID)
		mealItems = append(mealItems, d.Item)
	}

	now := time.Now().UTC()
	logged := storage.MealLog{
		ID:         uuid.New(),
		UserID:     sel.UserID,
		DayID:      storage.DayID(sel.UserID, md.Date),
		Date:       md.Date,
		MealType:   md.MealType,
		SourceText: md.SourceText,
		Items:      mealItems,
		Totals:     meal.SumTotals(mealItems),
		Confidence: md.Confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	sess.state = Reduce(sess.state, RemoveFoodItemDrafts{IDs: ids})
	sess.state = Reduce(sess.state, UpsertMeal{Meal: logged})

	res := &ConfirmResult{Success: true}
	if err := s.persistMeal(ctx, &logged); err != nil {
		log.Printf("WARN coach: confirm drafts for user %s: %v", sel.UserID, err)
		recordError(span, err)
		s.tel.fallback(ctx, stagePersist)
		res.Success = false
		res.Error = "meal could not be saved, resync the day"
	}

	dto := mealToDTO(logged)
	res.Meal = &dto
	if md.Date == sess.state.ActiveDate {
		res.Totals = summary.CalculateDailyTotals(sess.state.Meals)
	}
	res.Pending = pendingDrafts(sess.state, md.Date)
	return res, nil
}

// DismissDrafts drops drafts without saving anything.
func (s *Service) DismissDrafts(ctx context.Context, sel DraftSelection) ([]DraftGroupDTO, error) {
	if strings.TrimSpace(sel.UserID) == "" {
		return nil, ErrUnauthorized
	}

	_, span := s.tel.start(ctx, "coach.DismissDrafts", attribute.String("group_id", sel.GroupID.String()))
	defer span.End()

	sess := s.sessions.get(sel.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	md, items, ok := sess.state.DraftGroup(sel.GroupID)
	if !ok {
		return nil, ErrDraftNotFound
	}

	if len(sel.ItemIDs) == 0 {
		sess.state = Reduce(sess.state, RemoveDraftGroup{GroupID: sel.GroupID})
	} else {
		selected, err := selectDrafts(items, sel.ItemIDs)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(selected))
		for _, d := range selected {
			ids = append(ids, d.ID)
		}
		sess.state = Reduce(sess.state, RemoveFoodItemDrafts{IDs: ids})
	}
	return pendingDrafts(sess.state, md.Date), nil
}

// UpdateMeal applies an explicit edit to a confirmed meal.
func (s *Service) UpdateMeal(ctx context.Context, userID string, authenticated bool, mealID uuid.UUID, patch MealPatch) (*MealDTO, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || !authenticated {
		return nil, ErrUnauthorized
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	ctx, span := s.tel.start(ctx, "coach.UpdateMeal", attribute.String("meal_id", mealID.String()))
	defer span.End()

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	existing, err := s.store.GetMeal(ctx, userID, mealID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	updated := *existing
	if patch.MealType != nil {
		updated.MealType = *patch.MealType
	}
	if patch.Items != nil {
		updated.Items = patch.Items
		updated.Confidence = meal.InferConfidence(patch.Items)
		if patch.Totals == nil {
			updated.Totals = meal.SumTotals(patch.Items)
		}
	}
	if patch.Totals != nil {
		totals := *patch.Totals
		totals.Source = meal.SourceUser
		updated.Totals = &totals
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := s.store.UpsertMeal(ctx, &updated); err != nil {
		recordError(span, err)
		return nil, err
	}
	sess.state = Reduce(sess.state, UpsertMeal{Meal: updated})

	dto := mealToDTO(updated)
	return &dto, nil
}

func (s *Service) persistMeal(ctx context.Context, m *storage.MealLog) error {
	ctx, span := s.tel.start(ctx, "coach.persistMeal")
	defer span.End()

	if err := s.store.UpsertDay(ctx, &storage.Day{UserID: m.UserID, Date: m.Date}); err != nil {
		recordError(span, err)
		return fmt.Errorf("upsert day: %w", err)
	}
	if err := s.store.UpsertMeal(ctx, m); err != nil {
		recordError(span, err)
		return fmt.Errorf("upsert meal: %w", err)
	}
	return nil
}

// hydrate loads everything the session needs for a date. Drafts are kept.
func (s *Service) hydrate(ctx context.Context, sess *session, userID, date string) error {
	ctx, span := s.tel.start(ctx, "coach.hydrate")
	defer span.End()

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		// a new user starts at onboarding step 0
		profile = &storage.Profile{UserID: userID, Answers: map[string]string{}}
		if err := s.store.UpsertProfile(ctx, profile); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
	}

	snap, err := s.store.GetDaySnapshot(ctx, userID, date)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}

	day, _ := time.Parse(dateLayout, date)
	start, end := summary.WeekBounds(day)
	week, err := s.store.ListWorkouts(ctx, userID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("load week workouts: %w", err)
	}

	plan, _, err := s.plans.PlanEntries(ctx, userID)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	targets, _, err := s.targets.GetOrDefault(ctx, userID)
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}

	messages, err := s.store.ListMessages(ctx, userID, s.historyLimit, nil)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	st := sess.state
	st.UserID = userID
	st = Reduce(st, SetProfile{Profile: *profile})
	st = Reduce(st, SyncDay{Date: date, Snapshot: *snap, WeekWorkouts: week})
	st = Reduce(st, ReplaceWeeklyPlan{Entries: plan})
	st = Reduce(st, SetTargets{Targets: targets})
	st = Reduce(st, SetMessages{Messages: messages})

	sess.state = st
	sess.hydrated = true
	return nil
}

func dayView(st State, day time.Time) *DayView {
	view := &DayView{
		Date:        st.ActiveDate,
		Meals:       make([]MealDTO, 0, len(st.Meals)),
		Workouts:    make([]workouts.WorkoutDTO, 0, len(st.Workouts)),
		Totals:      summary.CalculateDailyTotals(st.Meals),
		Targets:     st.Targets,
		WeeklyStats: summary.GetWeeklyWorkoutStats(st.WeekWorkouts, st.WeeklyPlan, day),
		Drafts:      pendingDrafts(st, st.ActiveDate),
	}
	if st.Day != nil {
		view.MoodNote = st.Day.MoodNote
	}
	for _, m := range st.Meals {
		view.Meals = append(view.Meals, mealToDTO(m))
	}
	for _, w := range st.Workouts {
		view.Workouts = append(view.Workouts, workouts.WorkoutToDTO(w))
	}
	view.Projected = summary.ProjectTotals(view.Totals, st.PendingEstimates(st.ActiveDate))
	if entry, ok := summary.GetUpcomingPlan(st.WeeklyPlan, day); ok {
		view.UpcomingPlan = planEntryToDTO(entry)
	}
	return view
}

func selectDrafts(items []FoodItemDraft, ids []uuid.UUID) ([]FoodItemDraft, error) {
	if len(ids) == 0 {
		return items, nil
	}
	byID := make(map[uuid.UUID]FoodItemDraft, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	out := make([]FoodItemDraft, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return nil, ErrDraftNotFound
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, it)
	}
	return out, nil
}

func validatePatch(p MealPatch) error {
	if p.MealType != nil {
		if _, ok := meal.ParseType(string(*p.MealType)); !ok {
			return fmt.Errorf("%w: unknown meal_type %q", ErrInvalidRequest, *p.MealType)
		}
	}
	for i, it := range p.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("%w: items[%d]: %v", ErrInvalidRequest, i, err)
		}
	}
	if p.Items != nil && len(p.Items) == 0 {
		return fmt.Errorf("%w: items must not be empty", ErrInvalidRequest)
	}
	if p.Totals != nil {
		for _, v := range []*float64{p.Totals.CaloriesKcal, p.Totals.ProteinG, p.Totals.CarbsG, p.Totals.FatG, p.Totals.FiberG} {
			if v != nil && *v < 0 {
				return fmt.Errorf("%w: totals must not be negative", ErrInvalidRequest)
			}
		}
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
