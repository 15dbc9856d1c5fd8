package coach

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/userctx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleSendMessage handles POST /v1/coach/messages.
func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.HandleMessage(r.Context(), MessageRequest{
		UserID:        userID,
		Authenticated: userctx.IsAuthenticated(r.Context()),
		Content:       req.Content,
		Date:          req.Date,
		Now:           localNow(r),
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleListMessages handles GET /v1/coach/messages?limit=&before=.
func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	limit := defaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
			return
		}
		limit = parsed
	}

	var before *time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("before")); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid before cursor")
			return
		}
		before = &parsed
	}

	resp, err := h.service.ListMessages(r.Context(), userID, limit, before)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGetDay handles GET /v1/days/{date}. "today" resolves in the request
// time zone.
func (h *Handler) HandleGetDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	now := localNow(r)
	date := strings.TrimSpace(r.PathValue("date"))
	if date == "" || date == "today" {
		date = now.Format(dateLayout)
	}

	resp, err := h.service.SyncDay(r.Context(), userID, date, now)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleConfirmDrafts handles POST /v1/coach/drafts/{groupId}/confirm.
func (h *Handler) HandleConfirmDrafts(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.draftSelection(w, r)
	if !ok {
		return
	}

	resp, err := h.service.ConfirmDrafts(r.Context(), sel)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDismissDrafts handles POST /v1/coach/drafts/{groupId}/dismiss.
func (h *Handler) HandleDismissDrafts(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.draftSelection(w, r)
	if !ok {
		return
	}

	pending, err := h.service.DismissDrafts(r.Context(), sel)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pending_drafts": pending})
}

// HandleUpdateMeal handles PATCH /v1/meals/{id}.
func (h *Handler) HandleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	mealID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid meal id")
		return
	}

	var patch MealPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.UpdateMeal(r.Context(), userID, userctx.IsAuthenticated(r.Context()), mealID, patch)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) draftSelection(w http.ResponseWriter, r *http.Request) (DraftSelection, bool) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return DraftSelection{}, false
	}

	groupID, err := uuid.Parse(r.PathValue("groupId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid group id")
		return DraftSelection{}, false
	}

	var req DraftActionRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
			return DraftSelection{}, false
		}
	}

	return DraftSelection{
		UserID:        userID,
		Authenticated: userctx.IsAuthenticated(r.Context()),
		GroupID:       groupID,
		ItemIDs:       req.ItemIDs,
	}, true
}

func localNow(r *http.Request) time.Time {
	return time.Now().In(userctx.Location(r.Context()))
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		msg := strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": ")
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "Sign in required")
	case errors.Is(err, ErrDraftNotFound):
		writeError(w, http.StatusNotFound, "draft_not_found", "Draft not found")
	case errors.Is(err, ErrMealNotFound):
		writeError(w, http.StatusNotFound, "meal_not_found", "Meal not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
