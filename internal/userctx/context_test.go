package userctx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimezoneMiddleware(t *testing.T) {
	def, _ := time.LoadLocation("UTC")
	var got *time.Location
	h := TimezoneMiddleware(def)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Location(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TimezoneHeader, "America/New_York")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.String() != "America/New_York" {
		t.Fatalf("expected America/New_York, got %v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TimezoneHeader, "Mars/Olympus")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != def {
		t.Fatalf("expected fallback to default, got %v", got)
	}
}

func TestToday(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2026, 3, 5, 2, 0, 0, 0, time.UTC)

	if got := Today(WithLocation(t.Context(), ny), now); got != "2026-03-04" {
		t.Fatalf("expected previous local day, got %s", got)
	}
	if got := Today(t.Context(), now); got != "2026-03-05" {
		t.Fatalf("expected UTC day, got %s", got)
	}
}

func TestUserID(t *testing.T) {
	ctx := WithAuthenticated(WithUserID(t.Context(), "u1"), true)
	if id, ok := GetUserID(ctx); !ok || id != "u1" {
		t.Fatalf("unexpected user id %q", id)
	}
	if !IsAuthenticated(ctx) {
		t.Fatal("expected authenticated")
	}
	if IsAuthenticated(t.Context()) {
		t.Fatal("empty context must not be authenticated")
	}
}
