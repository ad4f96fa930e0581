package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/services"
)

type AgentHandler struct {
	agents services.AgentService
}

func NewAgentHandler(agents services.AgentService) *AgentHandler {
	return &AgentHandler{agents: agents}
}

// Register mounts the agent routes on the /api subrouter.
func (h *AgentHandler) Register(r *mux.Router) {
	r.HandleFunc("/agents/configs", h.HandleListConfigs).Methods(http.MethodGet)
	r.HandleFunc("/agents/runs", h.HandleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/agents/feedback", h.HandleSubmitFeedback).Methods(http.MethodPost)
	r.HandleFunc("/agents/feedback/stats", h.HandleFeedbackStats).Methods(http.MethodGet)
	r.HandleFunc("/agents/{type}/config", h.HandleGetConfig).Methods(http.MethodGet)
	r.HandleFunc("/agents/{type}/config", h.HandleUpsertConfig).Methods(http.MethodPut)
	r.HandleFunc("/agents/{type}/trigger", h.HandleTrigger).Methods(http.MethodPost)
}

func (h *AgentHandler) HandleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.agents.GetConfigs(r.Context(), TenantFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *AgentHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.agents.GetConfig(r.Context(), TenantFrom(r), mux.Vars(r)["type"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *AgentHandler) HandleUpsertConfig(w http.ResponseWriter, r *http.Request) {
	var patch models.AgentConfigPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cfg, err := h.agents.UpsertConfig(r.Context(), TenantFrom(r), mux.Vars(r)["type"], &patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// HandleTrigger runs the agent synchronously and returns the run record,
// whether the execution succeeded or failed.
func (h *AgentHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	run, err := h.agents.TriggerAgent(r.Context(), TenantFrom(r), mux.Vars(r)["type"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *AgentHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	runs, err := h.agents.ListRuns(r.Context(), TenantFrom(r), r.URL.Query().Get("agent_type"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

type feedbackRequest struct {
	ActionCardID string  `json:"action_card_id"`
	StaffID      string  `json:"staff_id"`
	Rating       string  `json:"rating"`
	Comment      *string `json:"comment,omitempty"`
}

func (h *AgentHandler) HandleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	err := h.agents.SubmitFeedback(r.Context(), TenantFrom(r), req.ActionCardID, req.StaffID, models.FeedbackRating(req.Rating), req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AgentHandler) HandleFeedbackStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.agents.GetFeedbackStats(r.Context(), TenantFrom(r), r.URL.Query().Get("agent_type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
