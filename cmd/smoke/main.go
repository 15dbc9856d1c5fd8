package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase    string
	token      string
	smokeUser  string
	client     = &http.Client{Timeout: 60 * time.Second}
	testDate   string
	createdIDs = make(map[string]string)
)

var onboardingScript = []string{
	"hello",
	"I'm Smoke",
	"I want to lose weight",
	"70 kg",
	"desk job, some walking",
	"4 days",
	"no restrictions",
}

func main() {
	fmt.Println("=== Coach Hub E2E Smoke Test ===")
	fmt.Println()

	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	token = getEnv("SMOKE_TOKEN", "")
	smokeUser = getEnv("SMOKE_USER_ID", "smoke-user")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	testDate = time.Now().Format("2006-01-02")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Dev Token", testDevToken},
		{"Onboarding", testOnboarding},
		{"Log Meal (drafts)", testLogMeal},
		{"Confirm Drafts", testConfirmDrafts},
		{"Log Workout", testLogWorkout},
		{"Get Day", testGetDay},
		{"Replace Weekly Plan", testReplacePlan},
		{"Create Report (CSV)", testCreateReport},
		{"List Reports", testListReports},
		{"Download Report", testDownloadReport},
		{"Delete Report", testDeleteReport},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	var result struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
	if err := call(http.MethodGet, "/healthz", nil, http.StatusOK, &result); err != nil {
		return err
	}
	if result.Status != "ok" {
		return fmt.Errorf("unexpected status %q", result.Status)
	}
	return nil
}

// testDevToken fetches a dev JWT unless one is given. A 404 means the server
// runs with AUTH_MODE=none.
func testDevToken() error {
	if token != "" {
		return nil
	}

	resp, err := send(http.MethodPost, "/v1/auth/dev", map[string]string{"user_id": smokeUser})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return nil
	case http.StatusOK:
	default:
		return statusError(resp)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	token = result.AccessToken
	return nil
}

func testOnboarding() error {
	var profile struct {
		OnboardingCompleted bool `json:"onboarding_completed"`
	}
	if err := call(http.MethodGet, "/v1/profile", nil, http.StatusOK, &profile); err != nil {
		return err
	}
	if profile.OnboardingCompleted {
		return nil
	}

	if err := call(http.MethodPost, "/v1/profile/onboarding/reset", nil, http.StatusOK, nil); err != nil {
		return err
	}
	for _, answer := range onboardingScript {
		if _, err := sendMessage(answer); err != nil {
			return err
		}
	}

	if err := call(http.MethodGet, "/v1/profile", nil, http.StatusOK, &profile); err != nil {
		return err
	}
	if !profile.OnboardingCompleted {
		return fmt.Errorf("onboarding did not complete")
	}
	return nil
}

func testLogMeal() error {
	result, err := sendMessage("had a pretzel and a pint of lager for dinner")
	if err != nil {
		return err
	}
	if result.Intent != "logMeal" {
		return fmt.Errorf("expected logMeal intent, got %q", result.Intent)
	}
	if result.Drafts == nil || len(result.Drafts.Items) == 0 {
		return fmt.Errorf("expected draft items")
	}
	createdIDs["drafts"] = result.Drafts.GroupID
	return nil
}

func testConfirmDrafts() error {
	groupID := createdIDs["drafts"]
	if groupID == "" {
		return fmt.Errorf("no draft group to confirm")
	}

	var result struct {
		Meal *struct {
			ID string `json:"id"`
		} `json:"meal"`
	}
	if err := call(http.MethodPost, "/v1/coach/drafts/"+groupID+"/confirm", map[string]any{}, http.StatusOK, &result); err != nil {
		return err
	}
	if result.Meal == nil || result.Meal.ID == "" {
		return fmt.Errorf("confirm returned no meal")
	}
	createdIDs["meal"] = result.Meal.ID
	return nil
}

func testLogWorkout() error {
	result, err := sendMessage("went for a 30 min run")
	if err != nil {
		return err
	}
	if result.Intent != "logWorkout" {
		return fmt.Errorf("expected logWorkout intent, got %q", result.Intent)
	}
	return nil
}

func testGetDay() error {
	var day struct {
		Date  string `json:"date"`
		Meals []struct {
			ID string `json:"id"`
		} `json:"meals"`
	}
	if err := call(http.MethodGet, "/v1/days/"+testDate, nil, http.StatusOK, &day); err != nil {
		return err
	}
	if day.Date != testDate {
		return fmt.Errorf("expected date %s, got %s", testDate, day.Date)
	}
	for _, m := range day.Meals {
		if m.ID == createdIDs["meal"] {
			return nil
		}
	}
	return fmt.Errorf("confirmed meal %s not in the day view", createdIDs["meal"])
}

func testReplacePlan() error {
	plan := []struct {
		typ     string
		minutes int
	}{
		{"rest", 0},
		{"run", 30},
		{"walk", 30},
		{"strength", 45},
		{"rest", 0},
		{"run", 40},
		{"walk", 60},
	}

	entries := make([]map[string]any, 0, len(plan))
	for weekday, p := range plan {
		entries = append(entries, map[string]any{"weekday": weekday, "type": p.typ, "minutes": p.minutes})
	}
	return call(http.MethodPut, "/v1/workouts/plan", map[string]any{"entries": entries}, http.StatusOK, nil)
}

func testCreateReport() error {
	payload := map[string]any{
		"format": "csv",
		"from":   time.Now().AddDate(0, 0, -7).Format("2006-01-02"),
		"to":     testDate,
	}

	var result struct {
		ID        string `json:"id"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := call(http.MethodPost, "/v1/reports", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	if result.SizeBytes < 10 {
		return fmt.Errorf("report size is %d bytes (too small)", result.SizeBytes)
	}

	createdIDs["report"] = result.ID
	return nil
}

func testListReports() error {
	var result struct {
		Reports []struct {
			ID string `json:"id"`
		} `json:"reports"`
	}
	if err := call(http.MethodGet, "/v1/reports?limit=50", nil, http.StatusOK, &result); err != nil {
		return err
	}
	for _, r := range result.Reports {
		if r.ID == createdIDs["report"] {
			return nil
		}
	}
	return fmt.Errorf("created report not listed")
}

func testDownloadReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to download")
	}

	req, err := newRequest(http.MethodGet, "/v1/reports/"+reportID+"/download", nil)
	if err != nil {
		return err
	}

	// a redirect means S3 mode, checked separately below
	originalCheckRedirect := client.CheckRedirect
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	defer func() { client.CheckRedirect = originalCheckRedirect }()

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return checkReportBody(resp.Body)

	case http.StatusFound:
		location := resp.Header.Get("Location")
		if location == "" {
			return fmt.Errorf("redirect without Location header")
		}
		getResp, err := client.Get(location)
		if err != nil {
			return fmt.Errorf("failed to follow redirect: %w", err)
		}
		defer getResp.Body.Close()
		if getResp.StatusCode != http.StatusOK {
			return statusError(getResp)
		}
		return checkReportBody(getResp.Body)

	default:
		return statusError(resp)
	}
}

func testDeleteReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to delete")
	}
	return call(http.MethodDelete, "/v1/reports/"+reportID, nil, http.StatusNoContent, nil)
}

// Helper functions

type messageResult struct {
	Intent       string `json:"intent"`
	CoachMessage string `json:"coach_message"`
	Success      bool   `json:"success"`
	Drafts       *struct {
		GroupID string `json:"group_id"`
		Items   []struct {
			ID string `json:"id"`
		} `json:"items"`
	} `json:"drafts"`
}

func sendMessage(content string) (*messageResult, error) {
	var result messageResult
	payload := map[string]string{"content": content, "date": testDate}
	if err := call(http.MethodPost, "/v1/coach/messages", payload, http.StatusOK, &result); err != nil {
		return nil, err
	}
	if result.CoachMessage == "" {
		return nil, fmt.Errorf("empty coach message for %q", content)
	}
	return &result, nil
}

func checkReportBody(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) < 10 {
		return fmt.Errorf("report too small: %d bytes", len(data))
	}
	return nil
}

// call sends payload as JSON, checks the status and decodes into out.
func call(method, path string, payload any, wantStatus int, out any) error {
	resp, err := send(method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

func send(method, path string, payload any) (*http.Response, error) {
	req, err := newRequest(method, path, payload)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

func newRequest(method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Timezone", time.Local.String())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
