package handler

import (
	"net/http"

	"github.com/honeynil/CoinLedgerService/internal/models"
	service "github.com/honeynil/CoinLedgerService/internal/services"
)

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) QuickStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.QuickStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ActivityFeed(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.dashboard.ActivityFeed(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	top, err := h.dashboard.TopPerformers(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListAlerts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// DismissAlert always answers 200 for a well-formed id, known or not.
func (h *Handler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.alerts.DismissAlert(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "dismissed"})
}

func (h *Handler) RevenueBreakdown(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	breakdown, err := h.dashboard.RevenueBreakdown(r.Context(), days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	lookback, err := queryInt(r, "lookback")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	horizon, err := queryInt(r, "horizon")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	forecast, err := h.dashboard.Forecast(r.Context(), lookback, horizon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (h *Handler) Cohorts(w http.ResponseWriter, r *http.Request) {
	weeks, err := queryInt(r, "weeks")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cohorts, err := h.dashboard.Cohorts(r.Context(), weeks)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cohorts)
}

func (h *Handler) Goals(w http.ResponseWriter, r *http.Request) {
	report, err := h.dashboard.Goals(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	goal := &models.Goal{
		Name:   req.Name,
		Metric: models.GoalMetric(req.Metric),
		Target: req.Target,
		Period: models.GoalPeriod(req.Period),
	}
	if err := h.dashboard.CreateGoal(r.Context(), goal); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.users.CreateUser(r.Context(), service.CreateUserInput{
		Email:           req.Email,
		FullName:        req.FullName,
		Phone:           req.Phone,
		MonthlyIncome:   req.MonthlyIncome,
		IsPremiumMember: req.IsPremiumMember,
		IsAdmin:         req.IsAdmin,
		Password:        req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.users.UpdateUser(r.Context(), id, service.UpdateUserInput{
		Email:           req.Email,
		FullName:        req.FullName,
		Phone:           req.Phone,
		MonthlyIncome:   req.MonthlyIncome,
		IsPremiumMember: req.IsPremiumMember,
		IsAdmin:         req.IsAdmin,
		Password:        req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
