package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	stderrors "errors"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/auth"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/observability"
	service "github.com/honeynil/CoinLedgerService/internal/services"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

// Services bundles the application services the HTTP layer talks to.
type Services struct {
	Ledger        *service.LedgerService
	Rules         *service.RuleEngine
	Dashboard     *service.DashboardService
	Alerts        *service.AlertService
	Users         *service.UserService
	Auth          *service.AuthService
	Notifications *service.NotificationService
	Profile       *service.ProfileService
}

type Handler struct {
	ledger        *service.LedgerService
	rules         *service.RuleEngine
	dashboard     *service.DashboardService
	alerts        *service.AlertService
	users         *service.UserService
	auth          *service.AuthService
	notifications *service.NotificationService
	profile       *service.ProfileService
	validate      *validator.Validate
}

func NewHandler(s Services) *Handler {
	return &Handler{
		ledger:        s.Ledger,
		rules:         s.Rules,
		dashboard:     s.Dashboard,
		alerts:        s.Alerts,
		users:         s.Users,
		auth:          s.Auth,
		notifications: s.Notifications,
		profile:       s.Profile,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, pkgerrors.ErrValidation):
		return http.StatusBadRequest
	case stderrors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, pkgerrors.ErrConflict):
		return http.StatusConflict
	case stderrors.Is(err, pkgerrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case stderrors.Is(err, pkgerrors.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		observability.WithContext(r.Context(), "method", r.Method, "path", r.URL.Path).
			Error("request failed", "error", err)
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{Code: pkgerrors.Code(err), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

const maxBodyBytes = 1 << 20

// decode reads a JSON body of at most maxBodyBytes into dst and runs struct validation on it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", pkgerrors.ErrValidation, maxBodyBytes)
		}
		return fmt.Errorf("%w: invalid request body", pkgerrors.ErrValidation)
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", pkgerrors.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", jsonName(fe.Field()), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", jsonName(fe.Field()), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", pkgerrors.ErrValidation, strings.Join(msgs, "; "))
}

// jsonName turns a Go field name such as ActionType into action_type.
func jsonName(field string) string {
	var b strings.Builder
	for i, c := range field {
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			c += 'a' - 'A'
		}
		b.WriteRune(c)
	}
	return b.String()
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", pkgerrors.ErrValidation, name)
	}
	return id, nil
}

// queryInt returns 0 for a missing parameter so services apply their defaults.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", pkgerrors.ErrValidation, name)
	}
	return n, nil
}

func identity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Identity{}, fmt.Errorf("%w: user not authenticated", pkgerrors.ErrUnauthorized)
	}
	return id, nil
}

// selfOrAdmin allows admins to act on any user and everyone else only on themselves.
func selfOrAdmin(r *http.Request, userID int64) error {
	id, err := identity(r)
	if err != nil {
		return err
	}
	if !id.IsAdmin && id.UserID != userID {
		return fmt.Errorf("%w: cannot access another user's coins", pkgerrors.ErrForbidden)
	}
	return nil
}

// RegisterPublicRoutes mounts the routes that need no token.
func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
}

// RegisterProtectedRoutes mounts routes behind the auth middleware. Admin-only handlers among
// them are wrapped individually.
func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	admin := func(fn http.HandlerFunc) http.Handler { return auth.RequireAdmin(fn) }

	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	r.HandleFunc("/coins/rules", h.ListRules).Methods(http.MethodGet)
	r.Handle("/coins/rules", admin(h.CreateRule)).Methods(http.MethodPost)
	r.HandleFunc("/coins/rules/{id:[0-9]+}", h.GetRule).Methods(http.MethodGet)
	r.Handle("/coins/rules/{id:[0-9]+}", admin(h.UpdateRule)).Methods(http.MethodPut)
	r.Handle("/coins/rules/{id:[0-9]+}", admin(h.DeleteRule)).Methods(http.MethodDelete)
	r.HandleFunc("/coins/transactions", h.ListTransactions).Methods(http.MethodGet)
	r.Handle("/coins/transactions", admin(h.RecordTransaction)).Methods(http.MethodPost)
	r.Handle("/coins/evaluate", admin(h.Evaluate)).Methods(http.MethodPost)
	r.HandleFunc("/coins/balance/{user_id:[0-9]+}", h.GetBalance).Methods(http.MethodGet)

	r.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	r.Handle("/notifications", admin(h.CreateNotification)).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{id:[0-9]+}", h.GetNotification).Methods(http.MethodGet)
	r.Handle("/notifications/{id:[0-9]+}", admin(h.UpdateNotification)).Methods(http.MethodPut)
	r.Handle("/notifications/{id:[0-9]+}", admin(h.DeleteNotification)).Methods(http.MethodDelete)
	r.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkNotificationRead).Methods(http.MethodPut)

	r.HandleFunc("/profile", h.GetProfile).Methods(http.MethodGet)
	r.HandleFunc("/profile", h.UpdateProfile).Methods(http.MethodPut)
	r.HandleFunc("/profile/premium-status", h.PremiumStatus).Methods(http.MethodGet)
	r.HandleFunc("/profile/upgrade-membership", h.UpgradeMembership).Methods(http.MethodPost)
}

// RegisterAdminRoutes mounts the /admin surface. r is expected to carry the /admin prefix and
// the admin guard already.
func (h *Handler) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	r.HandleFunc("/quick-stats", h.QuickStats).Methods(http.MethodGet)
	r.HandleFunc("/activity-feed", h.ActivityFeed).Methods(http.MethodGet)
	r.HandleFunc("/top-performers", h.TopPerformers).Methods(http.MethodGet)
	r.HandleFunc("/alerts", h.ListAlerts).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id:[0-9]+}/dismiss", h.DismissAlert).Methods(http.MethodPost)
	r.HandleFunc("/revenue-breakdown", h.RevenueBreakdown).Methods(http.MethodGet)
	r.HandleFunc("/analytics/forecast", h.Forecast).Methods(http.MethodGet)
	r.HandleFunc("/analytics/cohorts", h.Cohorts).Methods(http.MethodGet)
	r.HandleFunc("/analytics/goals", h.Goals).Methods(http.MethodGet)
	r.HandleFunc("/analytics/goals", h.CreateGoal).Methods(http.MethodPost)

	r.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	r.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{id:[0-9]+}", h.GetUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}", h.UpdateUser).Methods(http.MethodPut)
	r.HandleFunc("/users/{id:[0-9]+}", h.DeleteUser).Methods(http.MethodDelete)
	r.HandleFunc("/transactions", h.AdminTransactions).Methods(http.MethodGet)
}
