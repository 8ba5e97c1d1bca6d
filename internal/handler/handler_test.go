package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/honeynil/CoinLedgerService/internal/handler"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/auth"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/redis"
	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository/memory"
	service "github.com/honeynil/CoinLedgerService/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type testEnv struct {
	store  *memory.Store
	router *mux.Router
	admin  auth.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	cache := redis.NewMemoryClient()
	ledger := service.NewLedgerService(store.Transactions(), nil, "coin-transactions")
	engine := service.NewRuleEngine(store.Rules(), ledger, cache)

	h := handler.NewHandler(handler.Services{
		Ledger:        ledger,
		Rules:         engine,
		Dashboard:     service.NewDashboardService(store.Analytics(), store.Goals(), cache, time.Minute),
		Alerts:        service.NewAlertService(store.Analytics(), store.Alerts(), service.AlertConfig{Limit: 20}),
		Users:         service.NewUserService(store.Users(), engine, cache),
		Auth:          service.NewAuthService(store.Users(), cache, engine, "secret", time.Hour),
		Notifications: service.NewNotificationService(store.Notifications()),
		Profile:       service.NewProfileService(store.Users(), engine),
	})

	r := mux.NewRouter()
	h.RegisterPublicRoutes(r)
	protected := r.NewRoute().Subrouter()
	h.RegisterProtectedRoutes(protected)
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(auth.RequireAdmin)
	h.RegisterAdminRoutes(admin)

	env := &testEnv{store: store, router: r}
	env.admin = auth.Identity{UserID: env.user(t, "admin@example.com").ID, IsAdmin: true}
	return env
}

func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FullName: strings.Split(email, "@")[0]}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *testEnv) do(t *testing.T, method, path, body string, id *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestScenarios(t *testing.T) {
	env := newTestEnv(t)
	u42 := env.user(t, "u42@example.com")
	u7 := env.user(t, "u7@example.com")

	rec := env.do(t, http.MethodPost, "/coins/rules",
		`{"name":"Daily login","action_type":"login","coins_awarded":"10","is_active":true}`, &env.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rule := decodeBody[models.CoinRule](t, rec)
	assert.Equal(t, int64(10), rule.CoinsAwarded)

	evaluate := fmt.Sprintf(`{"action_type":"login","user_id":%d}`, u42.ID)
	balancePath := fmt.Sprintf("/coins/balance/%d", u42.ID)

	t.Run("EvaluateAwardsCoins", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/coins/evaluate", evaluate, &env.admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		res := decodeBody[models.EvaluationResult](t, rec)
		assert.True(t, res.Applied)
		assert.Equal(t, int64(10), res.Transaction.Amount)

		bal := decodeBody[map[string]int64](t, env.do(t, http.MethodGet, balancePath, "", &env.admin))
		assert.Equal(t, int64(10), bal["balance"])
	})

	t.Run("InactiveRuleIsNoOp", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, fmt.Sprintf("/coins/rules/%d", rule.ID),
			`{"name":"Daily login","action_type":"login","coins_awarded":10,"is_active":false}`, &env.admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = env.do(t, http.MethodPost, "/coins/evaluate", evaluate, &env.admin)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeBody[models.EvaluationResult](t, rec).Applied)

		bal := decodeBody[map[string]int64](t, env.do(t, http.MethodGet, balancePath, "", &env.admin))
		assert.Equal(t, int64(10), bal["balance"])
	})

	t.Run("RecordedTransactionsSum", func(t *testing.T) {
		for _, amount := range []int{100, -30, 5} {
			rec := env.do(t, http.MethodPost, "/coins/transactions",
				fmt.Sprintf(`{"user_id":%d,"amount":%d,"description":"manual"}`, u7.ID, amount), &env.admin)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		}
		bal := decodeBody[map[string]int64](t, env.do(t, http.MethodGet, fmt.Sprintf("/coins/balance/%d", u7.ID), "", &env.admin))
		assert.Equal(t, int64(75), bal["balance"])

		txs := decodeBody[[]models.CoinTransaction](t,
			env.do(t, http.MethodGet, fmt.Sprintf("/coins/transactions?user_id=%d", u7.ID), "", &env.admin))
		require.Len(t, txs, 3)
		assert.Equal(t, models.TypeSpend, txs[1].TransactionType)
	})

	t.Run("DismissUnknownAlert", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/admin/alerts/99/dismiss", "", &env.admin)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = env.do(t, http.MethodPost, "/admin/alerts/99/dismiss", "", &env.admin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestErrorResponses(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "ann@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"non-numeric coins", http.MethodPost, "/coins/rules", `{"name":"x","action_type":"login","coins_awarded":"fifty"}`, http.StatusBadRequest, "validation_error"},
		{"missing action type", http.MethodPost, "/coins/rules", `{"name":"x","coins_awarded":5}`, http.StatusBadRequest, "validation_error"},
		{"malformed json", http.MethodPost, "/coins/rules", `{"name":`, http.StatusBadRequest, "validation_error"},
		{"zero amount", http.MethodPost, "/coins/transactions", fmt.Sprintf(`{"user_id":%d,"amount":0}`, u.ID), http.StatusBadRequest, "validation_error"},
		{"unknown user", http.MethodPost, "/coins/transactions", `{"user_id":9999,"amount":5}`, http.StatusBadRequest, "validation_error"},
		{"sign mismatch", http.MethodPost, "/coins/transactions", fmt.Sprintf(`{"user_id":%d,"amount":5,"transaction_type":"spend"}`, u.ID), http.StatusBadRequest, "validation_error"},
		{"rule not found", http.MethodGet, "/coins/rules/999", "", http.StatusNotFound, "not_found"},
		{"user not found", http.MethodGet, "/admin/users/999", "", http.StatusNotFound, "not_found"},
		{"bad limit", http.MethodGet, "/admin/activity-feed?limit=abc", "", http.StatusBadRequest, "validation_error"},
		{"bad goal metric", http.MethodPost, "/admin/analytics/goals", `{"name":"g","metric":"revenue","target":5,"period":"daily"}`, http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body, &env.admin)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeBody[errorBody](t, rec).Code)
		})
	}

	t.Run("OversizedBody", func(t *testing.T) {
		body := `{"name":"x","action_type":"bulk","coins_awarded":5,"description":"` + strings.Repeat("a", 1<<20) + `"}`
		rec := env.do(t, http.MethodPost, "/coins/rules", body, &env.admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeBody[errorBody](t, rec)
		assert.Equal(t, "validation_error", resp.Code)
		assert.Contains(t, resp.Message, "request body exceeds")

		rec = env.do(t, http.MethodGet, "/coins/rules", "", &env.admin)
		assert.NotContains(t, rec.Body.String(), `"bulk"`)
	})

	t.Run("ActiveRuleConflict", func(t *testing.T) {
		body := `{"name":"Login","action_type":"login","coins_awarded":5,"is_active":true}`
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/coins/rules", body, &env.admin).Code)
		rec := env.do(t, http.MethodPost, "/coins/rules", body, &env.admin)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "conflict", decodeBody[errorBody](t, rec).Code)
	})

	t.Run("DuplicateEvent", func(t *testing.T) {
		body := fmt.Sprintf(`{"action_type":"login","user_id":%d,"event_id":"evt-1"}`, u.ID)
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/coins/evaluate", body, &env.admin).Code)
		assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/coins/evaluate", body, &env.admin).Code)
	})

	t.Run("DeleteUserWithLedger", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", u.ID), "", &env.admin)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAccessControl(t *testing.T) {
	env := newTestEnv(t)
	ann := env.user(t, "ann@example.com")
	bob := env.user(t, "bob@example.com")
	annID := &auth.Identity{UserID: ann.ID}

	_, err := env.store.Transactions().Record(context.Background(), &models.CoinTransaction{UserID: ann.ID, Amount: 20})
	require.NoError(t, err)
	_, err = env.store.Transactions().Record(context.Background(), &models.CoinTransaction{UserID: bob.ID, Amount: 30})
	require.NoError(t, err)

	t.Run("OwnBalance", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, fmt.Sprintf("/coins/balance/%d", ann.ID), "", annID)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(20), decodeBody[map[string]int64](t, rec)["balance"])
	})

	t.Run("OtherBalanceForbidden", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, fmt.Sprintf("/coins/balance/%d", bob.ID), "", annID)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", decodeBody[errorBody](t, rec).Code)
	})

	t.Run("UnfilteredListingScopedToSelf", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/coins/transactions", "", annID)
		require.Equal(t, http.StatusOK, rec.Code)
		txs := decodeBody[[]models.CoinTransaction](t, rec)
		require.Len(t, txs, 1)
		assert.Equal(t, ann.ID, txs[0].UserID)

		rec = env.do(t, http.MethodGet, fmt.Sprintf("/coins/transactions?user_id=%d", bob.ID), "", annID)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodGet, "/coins/transactions", "", &env.admin)
		assert.Len(t, decodeBody[[]models.CoinTransaction](t, rec), 2)
	})

	t.Run("AdminOnlyRoutes", func(t *testing.T) {
		for _, c := range []struct{ method, path, body string }{
			{http.MethodPost, "/coins/rules", `{}`},
			{http.MethodPost, "/coins/transactions", `{}`},
			{http.MethodPost, "/coins/evaluate", `{}`},
			{http.MethodGet, "/admin/stats", ""},
			{http.MethodGet, "/admin/transactions", ""},
			{http.MethodPost, "/notifications", `{}`},
		} {
			rec := env.do(t, c.method, c.path, c.body, annID)
			assert.Equal(t, http.StatusForbidden, rec.Code, c.path)
		}
	})

	t.Run("ReadRoutesOpenToUsers", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/coins/rules", "", annID).Code)
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/profile", "", annID).Code)
	})

	t.Run("NoIdentity", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeBody[errorBody](t, rec).Code)
	})
}

func TestDashboardEndpoints(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "ann@example.com")
	for _, amount := range []int{40, 60, -10} {
		rec := env.do(t, http.MethodPost, "/coins/transactions",
			fmt.Sprintf(`{"user_id":%d,"amount":%d}`, u.ID, amount), &env.admin)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	stats := decodeBody[models.LedgerTotals](t, env.do(t, http.MethodGet, "/admin/stats", "", &env.admin))
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(100), stats.CoinsEarned)
	assert.Equal(t, int64(10), stats.CoinsSpent)
	assert.Equal(t, int64(90), stats.CoinsInCirculation)

	feed := decodeBody[[]models.ActivityItem](t, env.do(t, http.MethodGet, "/admin/activity-feed?limit=2", "", &env.admin))
	assert.Len(t, feed, 2)

	top := decodeBody[[]models.TopPerformer](t, env.do(t, http.MethodGet, "/admin/top-performers", "", &env.admin))
	require.NotEmpty(t, top)
	assert.Equal(t, u.ID, top[0].UserID)

	revenue := decodeBody[models.RevenueBreakdown](t, env.do(t, http.MethodGet, "/admin/revenue-breakdown", "", &env.admin))
	assert.Equal(t, int64(100), revenue.Total)
	require.Len(t, revenue.Sources, 1)
	assert.Equal(t, 100.0, revenue.Sources[0].Percentage)

	forecast := decodeBody[models.Forecast](t, env.do(t, http.MethodGet, "/admin/analytics/forecast?lookback=5&horizon=2", "", &env.admin))
	assert.Len(t, forecast.History, 5)
	assert.Len(t, forecast.Forecast, 2)

	cohorts := decodeBody[models.CohortAnalysis](t, env.do(t, http.MethodGet, "/admin/analytics/cohorts", "", &env.admin))
	assert.Equal(t, 2, cohorts.Summary.TotalUsers)

	rec := env.do(t, http.MethodPost, "/admin/analytics/goals",
		`{"name":"Awards","metric":"coins_awarded","target":200,"period":"daily"}`, &env.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	goals := decodeBody[models.GoalReport](t, env.do(t, http.MethodGet, "/admin/analytics/goals", "", &env.admin))
	require.Len(t, goals.Goals, 1)
	assert.Equal(t, 50.0, goals.Goals[0].Progress)

	alerts := decodeBody[[]models.Alert](t, env.do(t, http.MethodGet, "/admin/alerts", "", &env.admin))
	require.NotEmpty(t, alerts)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, fmt.Sprintf("/admin/alerts/%d/dismiss", alerts[0].ID), "", &env.admin).Code)
	after := decodeBody[[]models.Alert](t, env.do(t, http.MethodGet, "/admin/alerts", "", &env.admin))
	assert.Len(t, after, len(alerts)-1)
}

func TestUserAndProfileEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/users",
		`{"email":"new@example.com","full_name":"New User","password":"secret"}`, &env.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[models.User](t, rec)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/admin/users", `{"email":"not-an-email","full_name":"X"}`, &env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/admin/users/%d", created.ID), `{"phone":"+1555"}`, &env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New User", decodeBody[models.User](t, rec).FullName)

	self := &auth.Identity{UserID: created.ID}
	rec = env.do(t, http.MethodPut, "/profile", `{"full_name":"Renamed","monthly_income":1200}`, self)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decodeBody[models.User](t, rec).FullName)

	rec = env.do(t, http.MethodPost, "/profile/upgrade-membership", "", self)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody[models.PremiumStatus](t, env.do(t, http.MethodGet, "/profile/premium-status", "", self))
	assert.True(t, status.IsPremiumMember)

	other := env.user(t, "other@example.com")
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", other.ID), "", &env.admin).Code)
}

func TestNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ann := env.user(t, "ann@example.com")
	bob := env.user(t, "bob@example.com")
	annID := &auth.Identity{UserID: ann.ID}

	rec := env.do(t, http.MethodPost, "/notifications",
		fmt.Sprintf(`{"user_id":%d,"title":"Hi Ann","type":"success"}`, ann.ID), &env.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	forAnn := decodeBody[models.Notification](t, rec)

	rec = env.do(t, http.MethodPost, "/notifications", fmt.Sprintf(`{"user_id":%d,"title":"Hi Bob"}`, bob.ID), &env.admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	forBob := decodeBody[models.Notification](t, rec)

	rec = env.do(t, http.MethodPost, "/notifications", `{"title":"Promo","type":"promo"}`, &env.admin)
	require.Equal(t, http.StatusCreated, rec.Code)

	list := decodeBody[[]models.Notification](t, env.do(t, http.MethodGet, "/notifications", "", annID))
	assert.Len(t, list, 2)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, fmt.Sprintf("/notifications/%d", forBob.ID), "", annID).Code)

	readPath := fmt.Sprintf("/notifications/%d/read", forAnn.ID)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, readPath, "", annID).Code)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/notifications/%d", forAnn.ID),
		fmt.Sprintf(`{"user_id":%d,"title":"Hello Ann","type":"info"}`, ann.ID), &env.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[models.Notification](t, rec)
	assert.Equal(t, "Hello Ann", updated.Title)
	assert.True(t, updated.IsRead)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, fmt.Sprintf("/notifications/%d", forBob.ID), "", &env.admin).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, fmt.Sprintf("/notifications/%d", forBob.ID), "", &env.admin).Code)
}
