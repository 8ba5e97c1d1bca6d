package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/honeynil/CoinLedgerService/internal/models"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.ListRules(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rule, err := h.rules.GetRule(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	rule, err := h.rules.CreateRule(r.Context(), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req ruleRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	rule, err := h.rules.UpdateRule(r.Context(), id, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.rules.DeleteRule(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordTransactionRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.ledger.RecordTransaction(r.Context(), &models.CoinTransaction{
		UserID:          req.UserID,
		Amount:          req.Amount,
		TransactionType: models.TransactionType(req.TransactionType),
		Description:     req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListTransactions lists a user's ledger. Without user_id, admins get the whole ledger and
// everyone else gets their own entries.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	filter, err := transactionFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if filter.UserID == nil && !id.IsAdmin {
		filter.UserID = &id.UserID
	}
	if filter.UserID != nil {
		if err := selfOrAdmin(r, *filter.UserID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.writeTransactions(w, r, filter)
}

// AdminTransactions is the unfiltered ledger listing of the admin dashboard.
func (h *Handler) AdminTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeTransactions(w, r, filter)
}

func (h *Handler) writeTransactions(w http.ResponseWriter, r *http.Request, filter models.TransactionFilter) {
	txs, err := h.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func transactionFilter(r *http.Request) (models.TransactionFilter, error) {
	var filter models.TransactionFilter
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			return filter, fmt.Errorf("%w: invalid user_id", pkgerrors.ErrValidation)
		}
		filter.UserID = &userID
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := selfOrAdmin(r, userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	balance, err := h.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{UserID: userID, Balance: balance})
}

// Evaluate runs the rule engine for one action. A missing active rule is a 200 with
// applied=false.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.rules.Evaluate(r.Context(), req.ActionType, req.UserID, req.EventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
