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
	"go.opentelemetry.io/otel/trace"

	"github.com/fdg312/coach-hub/internal/intent"
	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/summary"
	"github.com/fdg312/coach-hub/internal/workouts"
)

// turn carries one HandleMessage call. It runs with the session lock held.
type turn struct {
	s       *Service
	sess    *session
	userID  string
	authed  bool
	content string
	date    string
	day     time.Time
	now     time.Time
	result  *MessageResult
	errs    []error
}

func (t *turn) apply(a Action) {
	t.sess.state = Reduce(t.sess.state, a)
}

func (t *turn) state() State {
	return t.sess.state
}

func (t *turn) persistFailed(ctx context.Context, what string, err error) {
	log.Printf("WARN coach: persist %s failed for user %s: %v", what, t.userID, err)
	t.s.tel.fallback(ctx, stagePersist)
	t.errs = append(t.errs, fmt.Errorf("%s: %w", what, err))
}

func (t *turn) finish(span trace.Span) {
	t.result.Success = len(t.errs) == 0
	if t.result.Success {
		return
	}
	err := errors.Join(t.errs...)
	recordError(span, err)

	what := make([]string, 0, len(t.errs))
	for _, e := range t.errs {
		what = append(what, strings.SplitN(e.Error(), ":", 2)[0])
	}
	t.result.Error = fmt.Sprintf("could not save %s, resync the day", strings.Join(what, ", "))
}

// ensureHydrated loads the session on first use and on date change. When
// storage is unavailable the turn continues on defaults.
func (t *turn) ensureHydrated(ctx context.Context) {
	st := t.state()
	if t.sess.hydrated && st.ActiveDate == t.date {
		return
	}
	if err := t.s.hydrate(ctx, t.sess, t.userID, t.date); err != nil {
		t.persistFailed(ctx, "day", err)
		if t.state().ActiveDate != t.date {
			t.apply(SyncDay{Date: t.date})
		}
		if t.state().Targets.CaloriesKcal == 0 {
			t.apply(SetTargets{Targets: nutrition.DefaultTargets()})
		}
		if len(t.state().WeeklyPlan) == 0 {
			t.apply(ReplaceWeeklyPlan{Entries: workouts.DefaultWeeklyPlan()})
		}
	}
}

func (t *turn) persistMessage(ctx context.Context, role, content, kind string) {
	msg := storage.ChatMessage{
		ID:        uuid.New(),
		UserID:    t.userID,
		Role:      role,
		Content:   content,
		Intent:    kind,
		Date:      t.date,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.s.store.InsertMessage(ctx, &msg); err != nil {
		t.persistFailed(ctx, role+" message", err)
	}
	t.apply(AppendMessage{Message: msg})
}

func (t *turn) onboarding(ctx context.Context) {
	ctx, span := t.s.tel.start(ctx, "coach.onboarding")
	defer span.End()

	out := advanceOnboarding(*t.state().Profile, t.content)
	out.Profile.UserID = t.userID
	if err := t.s.store.UpsertProfile(ctx, &out.Profile); err != nil {
		t.persistFailed(ctx, "profile", err)
	}
	t.apply(SetProfile{Profile: out.Profile})

	if out.Targets != nil {
		saved, err := t.s.targets.Upsert(ctx, t.userID, nutrition.UpsertTargetsRequest{
			CaloriesKcal: out.Targets.CaloriesKcal,
			ProteinG:     out.Targets.ProteinG,
			FatG:         out.Targets.FatG,
			CarbsG:       out.Targets.CarbsG,
		})
		if err != nil {
			t.persistFailed(ctx, "targets", err)
			saved = *out.Targets
		}
		t.apply(SetTargets{Targets: saved})
	}

	span.SetAttributes(
		attribute.Int("step", out.Profile.OnboardingStep),
		attribute.Bool("completed", out.Completed),
	)
	t.result.CoachMessage = out.Reply
	t.result.Onboarding = &OnboardingDTO{
		Step:      out.Profile.OnboardingStep,
		Completed: out.Profile.OnboardingCompleted,
	}
}

func (t *turn) dispatch(ctx context.Context, in intent.Intent) {
	switch in.Kind {
	case intent.LogMeal:
		t.logMeal(ctx)
	case intent.LogWorkout:
		t.logWorkout(ctx)
	case intent.StatusUpdate:
		t.statusUpdate(ctx, in.Mood)
	case intent.AskPlan:
		entry, ok := summary.GetUpcomingPlan(t.state().WeeklyPlan, t.day)
		t.result.CoachMessage = planTemplate(entry, ok)
	case intent.AskNutritionSummary:
		st := t.state()
		totals := summary.CalculateDailyTotals(st.Meals)
		t.result.Totals = &totals
		t.result.CoachMessage = nutritionTemplate(totals, st.Targets)
	case intent.AskProgress:
		st := t.state()
		stats := summary.GetWeeklyWorkoutStats(st.WeekWorkouts, st.WeeklyPlan, t.day)
		t.result.WeeklyStats = &stats
		t.result.CoachMessage = progressTemplate(stats)
	default:
		st := t.state()
		t.reply(ctx, in.Kind, []string{dayFact(st)}, smallTalkTemplate(len(st.Meals) > 0, len(st.Workouts) > 0))
	}
}

func (t *turn) logMeal(ctx context.Context) {
	pctx, pspan := t.s.tel.start(ctx, "coach.parse")
	outcome := t.s.parser.ParseAt(pctx, t.content, "", t.now)
	pspan.SetAttributes(
		attribute.String("parse_path", string(outcome.Source)),
		attribute.Int("items", len(outcome.Result.Items)),
	)
	pspan.End()
	if t.s.parser.HasRemote() && outcome.Source == meal.PathHeuristic {
		t.s.tel.fallback(ctx, stageParse)
	}

	if len(outcome.Result.Items) == 0 {
		t.result.CoachMessage = noItemsMessage
		return
	}

	ectx, espan := t.s.tel.start(ctx, "coach.enrich")
	enriched := t.s.enricher.Enrich(ectx, outcome.Result.Items, outcome.Result.ContextNote)
	espan.SetAttributes(
		attribute.String("source", string(enriched.Source)),
		attribute.String("confidence", string(enriched.Confidence)),
	)
	espan.End()
	if t.s.enricher.HasLookup() && enriched.Source == meal.SourceHeuristic {
		t.s.tel.fallback(ctx, stageLookup)
	}

	created := time.Now().UTC()
	group := MealDraft{
		GroupID:         uuid.New(),
		Date:            t.date,
		MealType:        outcome.Result.MealType,
		SourceText:      t.content,
		ContextNote:     outcome.Result.ContextNote,
		Totals:          meal.SumTotals(enriched.Items),
		Confidence:      enriched.Confidence,
		NutritionSource: enriched.Source,
		ParsePath:       outcome.Source,
		CreatedAt:       created,
	}
	drafts := make([]FoodItemDraft, 0, len(enriched.Items))
	for _, it := range enriched.Items {
		drafts = append(drafts, FoodItemDraft{ID: uuid.New(), GroupID: group.GroupID, Item: it, CreatedAt: created})
	}
	t.apply(AddDrafts{Meal: group, Items: drafts})

	st := t.state()
	draftTotals := summary.Totals{}.Add(group.Totals)
	projected := summary.ProjectTotals(summary.CalculateDailyTotals(st.Meals), st.PendingEstimates(t.date))

	facts := []string{
		fmt.Sprintf("Draft %s: %s", group.MealType, itemNames(enriched.Items)),
		totalsFact("This meal", draftTotals, st.Targets),
		totalsFact("Projected today including drafts", projected, st.Targets),
	}
	if group.ContextNote != nil {
		facts = append(facts, "Context: "+*group.ContextNote)
	}
	reply := t.reply(ctx, intent.LogMeal, facts, mealTemplate(len(drafts), draftTotals.CaloriesKcal, projected, st.Targets))
	t.appendInsight(ctx, reply.Insight)

	dto := draftGroupToDTO(group, drafts)
	t.result.Drafts = &dto
	t.result.Totals = &projected
}

func (t *turn) logWorkout(ctx context.Context) {
	if !t.authed {
		t.result.CoachMessage = signInMessage
		return
	}

	_, pspan := t.s.tel.start(ctx, "coach.parse")
	parsed := workouts.Parse(t.content)
	pspan.SetAttributes(attribute.String("type", parsed.Type), attribute.Int("minutes", parsed.Minutes))
	pspan.End()

	w := workouts.NewLog(t.userID, t.date, parsed)

	wctx, wspan := t.s.tel.start(ctx, "coach.persistWorkout")
	if err := t.s.store.UpsertDay(wctx, &storage.Day{UserID: t.userID, Date: t.date}); err != nil {
		recordError(wspan, err)
		t.persistFailed(ctx, "day", err)
	}
	if err := t.s.store.UpsertWorkout(wctx, &w); err != nil {
		recordError(wspan, err)
		t.persistFailed(ctx, "workout", err)
	}
	wspan.End()

	start, end := summary.WeekBounds(t.day)
	t.apply(UpsertWorkout{Workout: w, WeekStart: start.Format(dateLayout), WeekEnd: end.Format(dateLayout)})

	st := t.state()
	stats := summary.GetWeeklyWorkoutStats(st.WeekWorkouts, st.WeeklyPlan, t.day)
	facts := []string{"Logged workout: " + workoutLabel(w), weekFacts(stats)}
	reply := t.reply(ctx, intent.LogWorkout, facts, workoutTemplate(w, stats))
	t.appendInsight(ctx, reply.Insight)

	dto := workouts.WorkoutToDTO(w)
	t.result.Workout = &dto
	t.result.WeeklyStats = &stats
}

func (t *turn) statusUpdate(ctx context.Context, mood intent.Mood) {
	note := moodNote(mood, t.content)
	day := storage.Day{
		ID:       storage.DayID(t.userID, t.date),
		UserID:   t.userID,
		Date:     t.date,
		MoodNote: &note,
	}
	if err := t.s.store.UpsertDay(ctx, &day); err != nil {
		t.persistFailed(ctx, "day", err)
	}
	t.apply(SetDay{Day: day})

	facts := []string{dayFact(t.state())}
	if mood != "" {
		facts = append(facts, "Reported mood: "+string(mood))
	}
	t.reply(ctx, intent.StatusUpdate, facts, moodTemplate(mood))
}

// reply requests coaching text and records it on the result.
func (t *turn) reply(ctx context.Context, kind intent.Kind, facts []string, fallback string) Reply {
	ctx, span := t.s.tel.start(ctx, "coach.reply")
	defer span.End()

	r, ok := t.s.responder.Reply(ctx, Prompt{
		Intent:      kind,
		UserMessage: t.content,
		Facts:       facts,
		History:     t.history(),
	}, fallback)
	span.SetAttributes(attribute.Bool("fallback", !ok))
	if !ok {
		t.s.tel.fallback(ctx, stageReply)
	}

	t.result.CoachMessage = r.Message
	t.result.Insight = r.Insight
	return r
}

// appendInsight stores a new insight on the profile, skipping a repeat of the
// latest one and keeping only the newest maxInsights.
func (t *turn) appendInsight(ctx context.Context, insight *string) {
	st := t.state()
	if insight == nil || st.Profile == nil {
		return
	}
	list := st.Profile.Insights
	if n := len(list); n > 0 && strings.EqualFold(strings.TrimSpace(list[n-1]), strings.TrimSpace(*insight)) {
		return
	}

	updated := *st.Profile
	updated.Insights = append(append([]string(nil), list...), *insight)
	if n := len(updated.Insights); n > t.s.maxInsights {
		updated.Insights = updated.Insights[n-t.s.maxInsights:]
	}
	if err := t.s.store.UpsertProfile(ctx, &updated); err != nil {
		t.persistFailed(ctx, "profile", err)
	}
	t.apply(SetProfile{Profile: updated})
}

// history renders the chat tail before the current message.
func (t *turn) history() []string {
	msgs := t.state().Messages
	if n := len(msgs); n > 0 {
		msgs = msgs[:n-1]
	}
	if n := len(msgs); n > t.s.historyLimit {
		msgs = msgs[n-t.s.historyLimit:]
	}
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Role+": "+m.Content)
	}
	return out
}

func dayFact(st State) string {
	return fmt.Sprintf("Today (%s): %s and %s logged",
		st.ActiveDate, plural(len(st.Meals), "meal", "meals"), plural(len(st.Workouts), "workout", "workouts"))
}

func itemNames(items []meal.Item) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		name := it.Name
		if name == "" {
			name = it.RawText
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
