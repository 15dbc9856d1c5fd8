package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/userctx"
)

func setupTestService(t *testing.T) (*Service, *memory.MemoryStorage) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	kcal := 650.0
	protein := 30.0
	if err := store.UpsertMeal(ctx, &storage.MealLog{
		UserID:     "userA",
		Date:       "2026-02-10",
		MealType:   meal.Lunch,
		SourceText: "burrito bowl",
		Items:      []meal.Item{{RawText: "burrito bowl", Name: "burrito bowl"}},
		Totals:     &meal.NutritionEstimate{CaloriesKcal: &kcal, ProteinG: &protein},
	}); err != nil {
		t.Fatalf("seed meal: %v", err)
	}
	if err := store.UpsertWorkout(ctx, &storage.WorkoutLog{
		UserID:  "userA",
		Date:    "2026-02-11",
		Type:    "run",
		Minutes: 40,
		Status:  "completed",
	}); err != nil {
		t.Fatalf("seed workout: %v", err)
	}

	service := NewService(
		store,
		NewGenerator(store, nutrition.NewService(store)),
		nil, // local mode
		Options{MaxRangeDays: 31},
	)
	return service, store
}

func userContext(userID string) context.Context {
	return userctx.WithUserID(context.Background(), userID)
}

func createReport(t *testing.T, h *Handlers, userID string, body CreateReportRequest) *httptest.ResponseRecorder {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", bytes.NewReader(raw))
	req = req.WithContext(userContext(userID))
	w := httptest.NewRecorder()
	h.HandleCreate(w, req)
	return w
}

func TestHandleCreate_CSV_Success(t *testing.T) {
	service, _ := setupTestService(t)
	handler := NewHandlers(service)

	w := createReport(t, handler, "userA", CreateReportRequest{From: "2026-02-09", To: "2026-02-12", Format: "CSV"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp ReportDTO
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Format != FormatCSV {
		t.Errorf("expected format csv, got %s", resp.Format)
	}
	if !strings.HasSuffix(resp.DownloadURL, "/v1/reports/"+resp.ID.String()+"/download") {
		t.Errorf("unexpected download URL %q", resp.DownloadURL)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/"+resp.ID.String()+"/download", nil)
	req.SetPathValue("id", resp.ID.String())
	req = req.WithContext(userContext("userA"))
	dl := httptest.NewRecorder()
	handler.HandleDownload(dl, req)

	if dl.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", dl.Code)
	}
	if ct := dl.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}

	lines := strings.Split(strings.TrimSpace(dl.Body.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header and 4 day rows, got %d lines:\n%s", len(lines), dl.Body.String())
	}
	if !strings.HasPrefix(lines[0], "date,calories_kcal") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "2026-02-10,650") {
		t.Errorf("expected the meal day row, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "2026-02-11") || !strings.Contains(lines[3], ",40,") {
		t.Errorf("expected the workout day row, got %q", lines[3])
	}
}

func TestHandleCreate_PDF_Success(t *testing.T) {
	service, _ := setupTestService(t)
	handler := NewHandlers(service)

	w := createReport(t, handler, "userA", CreateReportRequest{From: "2026-02-01", To: "2026-02-15", Format: FormatPDF})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp ReportDTO
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Format != FormatPDF {
		t.Errorf("expected format pdf, got %s", resp.Format)
	}

	data, contentType, err := service.GetReportData(userContext("userA"), resp.ID)
	if err != nil {
		t.Fatalf("GetReportData: %v", err)
	}
	if contentType != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", contentType)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("expected a PDF document")
	}
}

func TestHandleCreate_Validation(t *testing.T) {
	service, _ := setupTestService(t)
	handler := NewHandlers(service)

	tests := []struct {
		name string
		req  CreateReportRequest
		code string
	}{
		{"range too large", CreateReportRequest{From: "2026-01-01", To: "2026-03-01", Format: FormatCSV}, "range_too_large"},
		{"reversed range", CreateReportRequest{From: "2026-02-10", To: "2026-02-01", Format: FormatCSV}, "invalid_range"},
		{"bad date", CreateReportRequest{From: "02/01/2026", To: "2026-02-10", Format: FormatCSV}, "invalid_date"},
		{"bad format", CreateReportRequest{From: "2026-02-01", To: "2026-02-10", Format: "xlsx"}, "invalid_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := createReport(t, handler, "userA", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
			var errResp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if errResp.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, errResp.Error.Code)
			}
		})
	}
}

func TestHandleCreate_Unauthorized(t *testing.T) {
	service, _ := setupTestService(t)
	handler := NewHandlers(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(`{"from":"2026-02-01","to":"2026-02-02","format":"csv"}`))
	w := httptest.NewRecorder()
	handler.HandleCreate(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestHandleListAndDelete(t *testing.T) {
	service, _ := setupTestService(t)
	handler := NewHandlers(service)

	for i := 0; i < 2; i++ {
		if w := createReport(t, handler, "userA", CreateReportRequest{From: "2026-02-01", To: "2026-02-10", Format: FormatCSV}); w.Code != http.StatusCreated {
			t.Fatalf("create: %d", w.Code)
		}
	}
	if w := createReport(t, handler, "userB", CreateReportRequest{From: "2026-02-01", To: "2026-02-10", Format: FormatCSV}); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/reports?limit=10", nil)
	req = req.WithContext(userContext("userA"))
	w := httptest.NewRecorder()
	handler.HandleList(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var list ReportsResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Reports) != 2 {
		t.Fatalf("expected 2 reports of userA, got %d", len(list.Reports))
	}

	id := list.Reports[0].ID.String()

	// another user cannot see the report
	req = httptest.NewRequest(http.MethodDelete, "/v1/reports/"+id, nil)
	req.SetPathValue("id", id)
	req = req.WithContext(userContext("userB"))
	w = httptest.NewRecorder()
	handler.HandleDelete(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a foreign report, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/reports/"+id, nil)
	req.SetPathValue("id", id)
	req = req.WithContext(userContext("userA"))
	w = httptest.NewRecorder()
	handler.HandleDelete(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/reports/"+id+"/download", nil)
	req.SetPathValue("id", id)
	req = req.WithContext(userContext("userA"))
	w = httptest.NewRecorder()
	handler.HandleDownload(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestHandleDownload_InvalidID(t *testing.T) {
	service, _ := setupTestService(t)
	handler := NewHandlers(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/nope/download", nil)
	req.SetPathValue("id", "nope")
	req = req.WithContext(userContext("userA"))
	w := httptest.NewRecorder()
	handler.HandleDownload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestObjectStoreMode(t *testing.T) {
	_, store := setupTestService(t)
	objects := blob.NewMemoryStore("https://blob.test")
	service := NewService(store, NewGenerator(store, nil), objects, Options{MaxRangeDays: 31, PresignTTL: 120})
	handler := NewHandlers(service)

	w := createReport(t, handler, "user/A", CreateReportRequest{From: "2026-02-09", To: "2026-02-12", Format: FormatCSV})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp ReportDTO
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if objects.Len() != 1 {
		t.Fatalf("expected 1 stored object, got %d", objects.Len())
	}
	if !strings.HasPrefix(resp.DownloadURL, "https://blob.test/reports%2Fuser_A%2F2026-02-09_2026-02-12_") {
		t.Errorf("expected a presigned URL, got %s", resp.DownloadURL)
	}

	report, err := service.GetReport(userContext("user/A"), resp.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report.Data != nil {
		t.Error("expected no inline data in object store mode")
	}
	data, _, err := service.GetReportData(userContext("user/A"), resp.ID)
	if err != nil || !strings.HasPrefix(string(data), "date,") {
		t.Fatalf("GetReportData: %q %v", data, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/"+resp.ID.String()+"/download", nil)
	req.SetPathValue("id", resp.ID.String())
	req = req.WithContext(userContext("user/A"))
	dl := httptest.NewRecorder()
	handler.HandleDownload(dl, req)
	if dl.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", dl.Code)
	}
	if loc := dl.Header().Get("Location"); !strings.HasPrefix(loc, "https://blob.test/") {
		t.Errorf("unexpected redirect target %s", loc)
	}

	if err := service.DeleteReport(userContext("user/A"), resp.ID); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if objects.Len() != 0 {
		t.Errorf("expected the object to be removed, got %d", objects.Len())
	}
}

func TestPublicDownloadURL(t *testing.T) {
	_, store := setupTestService(t)
	service := NewService(store, NewGenerator(store, nil), blob.NewMemoryStore("https://blob.test"), Options{
		PublicBaseURL:   "https://cdn.test/",
		PreferPublicURL: true,
	})

	report, err := service.CreateReport(userContext("userA"), CreateReportRequest{From: "2026-02-10", To: "2026-02-10", Format: FormatCSV})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	url, err := service.GetReportDownloadURL(context.Background(), report, "http://api.test")
	if err != nil {
		t.Fatalf("GetReportDownloadURL: %v", err)
	}
	if url != "https://cdn.test/"+*report.ObjectKey {
		t.Errorf("expected public URL, got %s", url)
	}
}
