package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/services"
)

type ActionCardHandler struct {
	cards services.ActionCardService
}

func NewActionCardHandler(cards services.ActionCardService) *ActionCardHandler {
	return &ActionCardHandler{cards: cards}
}

// Register mounts the card routes on the /api subrouter.
func (h *ActionCardHandler) Register(r *mux.Router) {
	r.HandleFunc("/action-cards", h.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/action-cards/pending-count", h.HandlePendingCount).Methods(http.MethodGet)
	r.HandleFunc("/action-cards/{id}", h.HandleGet).Methods(http.MethodGet)
	r.HandleFunc("/action-cards/{id}/approve", h.HandleApprove).Methods(http.MethodPost)
	r.HandleFunc("/action-cards/{id}/dismiss", h.HandleDismiss).Methods(http.MethodPost)
	r.HandleFunc("/action-cards/{id}/snooze", h.HandleSnooze).Methods(http.MethodPost)
	r.HandleFunc("/action-cards/{id}/execute", h.HandleExecute).Methods(http.MethodPost)
}

func (h *ActionCardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := &models.ActionCardFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := models.ActionCardStatus(s)
		filter.Status = &status
	}
	if c := r.URL.Query().Get("category"); c != "" {
		category := models.ActionCardCategory(c)
		filter.Category = &category
	}
	if t := r.URL.Query().Get("type"); t != "" {
		filter.Type = &t
	}
	if s := r.URL.Query().Get("staff_id"); s != "" {
		filter.StaffID = &s
	}
	if p := r.URL.Query().Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil {
			filter.Page = page
		}
	}
	if p := r.URL.Query().Get("page_size"); p != "" {
		if size, err := strconv.Atoi(p); err == nil {
			filter.PageSize = size
		}
	}

	cards, total, err := h.cards.List(r.Context(), TenantFrom(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards":     cards,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (h *ActionCardHandler) HandlePendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.cards.PendingCount(r.Context(), TenantFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pending": count})
}

func (h *ActionCardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.GetByID(r.Context(), TenantFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

type staffActionRequest struct {
	StaffID   string `json:"staff_id"`
	StaffName string `json:"staff_name"`
}

func (h *ActionCardHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	var req staffActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	card, err := h.cards.Approve(r.Context(), TenantFrom(r), mux.Vars(r)["id"], req.StaffID, req.StaffName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *ActionCardHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	var req staffActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	card, err := h.cards.Dismiss(r.Context(), TenantFrom(r), mux.Vars(r)["id"], req.StaffID, req.StaffName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

type snoozeRequest struct {
	Until   time.Time `json:"until"`
	StaffID string    `json:"staff_id"`
}

func (h *ActionCardHandler) HandleSnooze(w http.ResponseWriter, r *http.Request) {
	var req snoozeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	card, err := h.cards.Snooze(r.Context(), TenantFrom(r), mux.Vars(r)["id"], req.Until, req.StaffID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *ActionCardHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req staffActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	card, err := h.cards.Execute(r.Context(), TenantFrom(r), mux.Vars(r)["id"], req.StaffID, req.StaffName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
