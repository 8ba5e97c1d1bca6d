package handler

import (
	"net/http"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

// viewer is nil for admins, who see every notification.
func viewer(r *http.Request) (*int64, error) {
	id, err := identity(r)
	if err != nil {
		return nil, err
	}
	if id.IsAdmin {
		return nil, nil
	}
	return &id.UserID, nil
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	v, err := viewer(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.notifications.List(r.Context(), v)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	v, err := viewer(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.notifications.Get(r.Context(), id, v)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	n := &models.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    models.NotificationType(req.Type),
	}
	if err := h.notifications.Create(r.Context(), n); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handler) UpdateNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req notificationRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.notifications.Get(r.Context(), id, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n.UserID = req.UserID
	n.Title = req.Title
	n.Message = req.Message
	n.Type = models.NotificationType(req.Type)
	if err := h.notifications.Update(r.Context(), n); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.notifications.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	v, err := viewer(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id, v); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "read"})
}
