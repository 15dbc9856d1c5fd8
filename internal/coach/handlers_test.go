package coach

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

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := memory.New()
	seedProfile(t, store, "userA")
	return NewHandler(NewService(Options{Store: store}))
}

func authedContext() context.Context {
	ctx := userctx.WithUserID(context.Background(), "userA")
	return userctx.WithAuthenticated(ctx, true)
}

func postMessage(t *testing.T, h *Handler, content string) MessageResult {
	t.Helper()
	body, _ := json.Marshal(SendMessageRequest{Content: content, Date: "2026-03-04"})
	req := httptest.NewRequest(http.MethodPost, "/v1/coach/messages", bytes.NewReader(body))
	req = req.WithContext(authedContext())
	rr := httptest.NewRecorder()

	h.HandleSendMessage(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp MessageResult
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleSendMessage(t *testing.T) {
	h := newTestHandler(t)

	resp := postMessage(t, h, pretzelMessage)

	if resp.Intent != "logMeal" {
		t.Fatalf("expected logMeal intent, got %q", resp.Intent)
	}
	if resp.Drafts == nil || len(resp.Drafts.Items) != 2 {
		t.Fatalf("expected 2 draft items, got %+v", resp.Drafts)
	}
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
}

func TestHandleSendMessageUnauthorized(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/coach/messages", bytes.NewBufferString(`{"content":"hi"}`))
	rr := httptest.NewRecorder()
	h.HandleSendMessage(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestHandleSendMessageBadRequest(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"invalid json", `{"content":`, "Invalid JSON body"},
		{"empty content", `{"content":"  "}`, "content is required"},
		{"bad date", `{"content":"hi","date":"yesterday"}`, "invalid date format, expected YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/coach/messages", bytes.NewBufferString(tt.body))
			req = req.WithContext(authedContext())
			rr := httptest.NewRecorder()
			h.HandleSendMessage(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if errResp.Error.Message != tt.msg {
				t.Fatalf("expected message %q, got %q", tt.msg, errResp.Error.Message)
			}
		})
	}
}

func TestHandleGetDay(t *testing.T) {
	h := newTestHandler(t)
	postMessage(t, h, pretzelMessage)

	req := httptest.NewRequest(http.MethodGet, "/v1/days/2026-03-04", nil)
	req.SetPathValue("date", "2026-03-04")
	req = req.WithContext(authedContext())
	rr := httptest.NewRecorder()
	h.HandleGetDay(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var view DayView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Date != "2026-03-04" {
		t.Fatalf("expected date 2026-03-04, got %s", view.Date)
	}
	if len(view.Drafts) != 1 {
		t.Fatalf("expected 1 pending draft group, got %d", len(view.Drafts))
	}

	bad := httptest.NewRequest(http.MethodGet, "/v1/days/nope", nil)
	bad.SetPathValue("date", "nope")
	bad = bad.WithContext(authedContext())
	rr = httptest.NewRecorder()
	h.HandleGetDay(rr, bad)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleConfirmAndDismissDrafts(t *testing.T) {
	h := newTestHandler(t)
	first := postMessage(t, h, pretzelMessage)
	second := postMessage(t, h, pretzelMessage)

	groupID := first.Drafts.GroupID.String()
	req := httptest.NewRequest(http.MethodPost, "/v1/coach/drafts/"+groupID+"/confirm", nil)
	req.SetPathValue("groupId", groupID)
	req = req.WithContext(authedContext())
	rr := httptest.NewRecorder()
	h.HandleConfirmDrafts(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var confirmed ConfirmResult
	if err := json.NewDecoder(rr.Body).Decode(&confirmed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if confirmed.Meal == nil || len(confirmed.Meal.Items) != 2 {
		t.Fatalf("expected confirmed meal with 2 items, got %+v", confirmed.Meal)
	}
	if len(confirmed.Pending) != 1 {
		t.Fatalf("expected the second group to stay pending, got %d", len(confirmed.Pending))
	}

	groupID = second.Drafts.GroupID.String()
	req = httptest.NewRequest(http.MethodPost, "/v1/coach/drafts/"+groupID+"/dismiss", bytes.NewBufferString(`{}`))
	req.SetPathValue("groupId", groupID)
	req = req.WithContext(authedContext())
	rr = httptest.NewRecorder()
	h.HandleDismissDrafts(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var dismissed struct {
		Pending []DraftGroupDTO `json:"pending_drafts"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&dismissed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dismissed.Pending) != 0 {
		t.Fatalf("expected no pending drafts, got %d", len(dismissed.Pending))
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/coach/drafts/"+groupID+"/dismiss", nil)
	req.SetPathValue("groupId", groupID)
	req = req.WithContext(authedContext())
	h.HandleDismissDrafts(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a dismissed group, got %d", rr.Code)
	}
}

func TestHandleConfirmDraftsRequiresSignIn(t *testing.T) {
	h := newTestHandler(t)
	resp := postMessage(t, h, pretzelMessage)

	groupID := resp.Drafts.GroupID.String()
	req := httptest.NewRequest(http.MethodPost, "/v1/coach/drafts/"+groupID+"/confirm", nil)
	req.SetPathValue("groupId", groupID)
	req = req.WithContext(userctx.WithUserID(context.Background(), "userA"))
	rr := httptest.NewRecorder()
	h.HandleConfirmDrafts(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestHandleUpdateMealInvalidID(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPatch, "/v1/meals/abc", bytes.NewBufferString(`{}`))
	req.SetPathValue("id", "abc")
	req = req.WithContext(authedContext())
	rr := httptest.NewRecorder()
	h.HandleUpdateMeal(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleListMessages(t *testing.T) {
	h := newTestHandler(t)
	postMessage(t, h, "hello there")

	req := httptest.NewRequest(http.MethodGet, "/v1/coach/messages?limit=10", nil)
	req = req.WithContext(authedContext())
	rr := httptest.NewRecorder()
	h.HandleListMessages(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp ListMessagesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(resp.Messages))
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/coach/messages?before=yesterday", nil)
	req = req.WithContext(authedContext())
	rr = httptest.NewRecorder()
	h.HandleListMessages(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
