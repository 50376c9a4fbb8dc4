package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dostlabs/dost-server/internal/domain"
	"github.com/dostlabs/dost-server/internal/identity"
	"github.com/dostlabs/dost-server/internal/taxonomy"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the engagement endpoints. All of them run behind the
// identity middleware, so a resolved user ID is always present.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/activities/complete", h.CompleteActivity)
	r.Get("/api/activities/streak", h.Streak)
	r.Get("/api/activities/random", h.RandomActivities)
	r.Get("/api/categories", h.Categories)
	r.Post("/api/challenges", h.AddChallenge)
	r.Post("/api/logout", h.Logout)
}

// RegisterChatRoutes mounts the oracle-backed endpoints. Called only when
// the oracle client connected at startup.
func (h *Handler) RegisterChatRoutes(r chi.Router) {
	r.Post("/api/chat", h.Chat)
	r.Get("/api/affirmation", h.Affirmation)
}

type completeRequest struct {
	ActivityID int64 `json:"activity_id"`
}

type completeResponse struct {
	Success          bool `json:"success"`
	Streak           int  `json:"streak"`
	AlreadyCompleted bool `json:"already_completed"`
}

// CompleteActivity records one activity completion for the current user and
// returns the resulting streak. Repeating the same activity on the same day
// is acknowledged without double counting.
func (h *Handler) CompleteActivity(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req completeRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "missing or malformed activity_id")
		return
	}
	if req.ActivityID <= 0 {
		Error(w, http.StatusBadRequest, "missing activity_id")
		return
	}

	res, err := h.ledger.RecordCompletion(r.Context(), userID, req.ActivityID, time.Now())
	if err != nil {
		slog.Error("record completion failed", "user_id", userID, "activity_id", req.ActivityID, "error", err)
		Fail(w, err)
		return
	}

	JSON(w, http.StatusOK, completeResponse{
		Success:          true,
		Streak:           res.Streak,
		AlreadyCompleted: res.AlreadyCounted,
	})
}

// Streak returns the current consecutive-day streak for the user.
func (h *Handler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	streak, err := h.ledger.Streak(r.Context(), userID)
	if err != nil {
		slog.Error("streak read failed", "user_id", userID, "error", err)
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]int{"streak": streak})
}

// RandomActivities returns a uniformly shuffled catalogue sample.
func (h *Handler) RandomActivities(w http.ResponseWriter, r *http.Request) {
	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			Error(w, http.StatusBadRequest, "count must be a non-negative integer")
			return
		}
		count = n
	}

	activities, err := h.ledger.RandomActivities(r.Context(), count)
	if err != nil {
		slog.Error("random activities failed", "error", err)
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, activities)
}

// Categories serves the static challenge taxonomy for the selection form.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, taxonomy.Categories())
}

type challengeRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Description string `json:"description"`
}

// AddChallenge appends a declared challenge for the current user, validated
// against the taxonomy.
func (h *Handler) AddChallenge(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req challengeRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "malformed challenge payload")
		return
	}
	if !taxonomy.Valid(req.Category, req.Subcategory) {
		Error(w, http.StatusBadRequest, fmt.Sprintf("unknown category/subcategory %q / %q", req.Category, req.Subcategory))
		return
	}

	sel := &domain.ChallengeSelection{
		UserID:      userID,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now(),
	}
	if err := h.repo.AddChallenge(r.Context(), sel); err != nil {
		slog.Error("add challenge failed", "user_id", userID, "error", err)
		Fail(w, fmt.Errorf("%w: %v", domain.ErrUpstream, err))
		return
	}
	JSON(w, http.StatusCreated, sel)
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat forwards one message through the user's conversational session.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Message cannot be empty.")
		return
	}

	res, err := h.chatMgr.SendTurn(r.Context(), userID, req.Message)
	if err != nil {
		slog.Error("chat turn failed", "user_id", userID, "error", err)
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// Affirmation returns one short personalized affirmation.
func (h *Handler) Affirmation(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	text, err := h.chatMgr.Affirmation(r.Context(), userID)
	if err != nil {
		slog.Error("affirmation failed", "user_id", userID, "error", err)
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"affirmation": text})
}

// Logout removes the auth session row and evicts the user's live chat
// session so conversational memory does not outlive the login.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	if token := identity.TokenFromRequest(r); token != "" {
		if err := h.repo.DeleteSession(r.Context(), token); err != nil {
			slog.Error("delete auth session failed", "user_id", userID, "error", err)
			Fail(w, fmt.Errorf("%w: %v", domain.ErrUpstream, err))
			return
		}
	}
	if h.chatMgr != nil {
		h.chatMgr.Evict(userID)
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
