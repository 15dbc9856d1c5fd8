package workouts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/userctx"
)

func newTestHandlers() (*Handlers, *memory.MemoryStorage) {
	mem := memory.New()
	return NewHandlers(NewService(mem, mem)), mem
}

func weekPlan(minutes int) []PlanEntryDTO {
	types := []string{"Run", "Strength", "Walk", "Run", "Strength", "Ride", "Rest"}
	entries := make([]PlanEntryDTO, 0, len(types))
	for i, typ := range types {
		m := minutes
		if typ == "Rest" {
			m = 0
		}
		entries = append(entries, PlanEntryDTO{Weekday: i, Type: typ, Minutes: m})
	}
	return entries
}

func TestWorkoutsGetDefaultPlan(t *testing.T) {
	h, _ := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/v1/workouts/plan", nil)
	req = req.WithContext(userctx.WithUserID(context.Background(), "userA"))
	w := httptest.NewRecorder()
	h.HandleGetPlan(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp PlanResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsDefault {
		t.Fatalf("expected default plan")
	}
	if len(resp.Entries) != 7 {
		t.Fatalf("expected 7 entries, got %d", len(resp.Entries))
	}
	if resp.TotalMinutes != 240 {
		t.Fatalf("expected 240 total minutes, got %d", resp.TotalMinutes)
	}
	if resp.Entries[6].Type != "Rest" || resp.Entries[6].Minutes != 0 {
		t.Fatalf("expected explicit Sunday rest, got %+v", resp.Entries[6])
	}
}

func TestWorkoutsReplacePlanAndGet(t *testing.T) {
	h, _ := newTestHandlers()

	entries := weekPlan(30)
	// в обратном порядке: сервис сортирует по дню недели
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	body, _ := json.Marshal(ReplacePlanRequest{Entries: entries})

	putReq := httptest.NewRequest(http.MethodPut, "/v1/workouts/plan", bytes.NewReader(body))
	putReq = putReq.WithContext(userctx.WithUserID(context.Background(), "userA"))
	putW := httptest.NewRecorder()
	h.HandleReplacePlan(putW, putReq)

	if putW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", putW.Code, putW.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/v1/workouts/plan", nil)
	getReq = getReq.WithContext(userctx.WithUserID(context.Background(), "userA"))
	getW := httptest.NewRecorder()
	h.HandleGetPlan(getW, getReq)

	var resp PlanResponse
	if err := json.NewDecoder(getW.Body).Decode(&resp); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if resp.IsDefault {
		t.Fatalf("expected stored plan")
	}
	if resp.TotalMinutes != 180 {
		t.Fatalf("expected 180 minutes, got %d", resp.TotalMinutes)
	}
	for i, e := range resp.Entries {
		if e.Weekday != i {
			t.Fatalf("entries not sorted by weekday: %+v", resp.Entries)
		}
	}
	if resp.Entries[0].Intensity != IntensityModerate {
		t.Fatalf("expected default intensity moderate, got %q", resp.Entries[0].Intensity)
	}
	if resp.Entries[6].Intensity != IntensityEasy {
		t.Fatalf("expected rest day intensity easy, got %q", resp.Entries[6].Intensity)
	}

	// план другого пользователя не затронут
	otherReq := httptest.NewRequest(http.MethodGet, "/v1/workouts/plan", nil)
	otherReq = otherReq.WithContext(userctx.WithUserID(context.Background(), "userB"))
	otherW := httptest.NewRecorder()
	h.HandleGetPlan(otherW, otherReq)

	var other PlanResponse
	json.NewDecoder(otherW.Body).Decode(&other)
	if !other.IsDefault {
		t.Fatalf("expected userB to see the default plan")
	}
}

func TestWorkoutsReplacePlanValidation(t *testing.T) {
	h, _ := newTestHandlers()

	duplicate := weekPlan(30)
	duplicate[3].Weekday = 2

	tooLong := weekPlan(30)
	tooLong[1].Minutes = 500

	badIntensity := weekPlan(30)
	badIntensity[0].Intensity = "extreme"

	cases := map[string][]PlanEntryDTO{
		"six days":      weekPlan(30)[:6],
		"duplicate day": duplicate,
		"too long":      tooLong,
		"bad intensity": badIntensity,
	}

	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			body, _ := json.Marshal(ReplacePlanRequest{Entries: entries})
			req := httptest.NewRequest(http.MethodPut, "/v1/workouts/plan", bytes.NewReader(body))
			req = req.WithContext(userctx.WithUserID(context.Background(), "userA"))
			w := httptest.NewRecorder()
			h.HandleReplacePlan(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestWorkoutsListRange(t *testing.T) {
	h, mem := newTestHandlers()
	ctx := context.Background()

	for _, date := range []string{"2026-03-01", "2026-03-03", "2026-03-09"} {
		w := NewLog("userA", date, Parse("ran 5k"))
		if err := mem.UpsertWorkout(ctx, &w); err != nil {
			t.Fatalf("upsert workout: %v", err)
		}
	}
	foreign := NewLog("userB", "2026-03-03", Parse("yoga"))
	if err := mem.UpsertWorkout(ctx, &foreign); err != nil {
		t.Fatalf("upsert workout: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/workouts?from=2026-03-02&to=2026-03-08", nil)
	req = req.WithContext(userctx.WithUserID(context.Background(), "userA"))
	w := httptest.NewRecorder()
	h.HandleList(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp ListWorkoutsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Workouts) != 1 {
		t.Fatalf("expected 1 workout, got %d", len(resp.Workouts))
	}
	got := resp.Workouts[0]
	if got.Date != "2026-03-03" || got.Type != "Run" || got.Minutes != 60 {
		t.Fatalf("unexpected workout: %+v", got)
	}
	if got.DistanceKm == nil || *got.DistanceKm != 5 {
		t.Fatalf("expected distance 5 km, got %v", got.DistanceKm)
	}
}

func TestWorkoutsListValidationAndAuth(t *testing.T) {
	h, _ := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/v1/workouts?from=03-01-2026", nil)
	req = req.WithContext(userctx.WithUserID(context.Background(), "userA"))
	w := httptest.NewRecorder()
	h.HandleList(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	reqNoUser := httptest.NewRequest(http.MethodGet, "/v1/workouts", nil)
	wNoUser := httptest.NewRecorder()
	h.HandleList(wNoUser, reqNoUser)
	if wNoUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", wNoUser.Code)
	}
}
