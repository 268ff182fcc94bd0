package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/easyplit/easyplit/internal/auth"
	"github.com/easyplit/easyplit/internal/money"
	"github.com/easyplit/easyplit/internal/service"
	"github.com/easyplit/easyplit/internal/storage"
	"github.com/easyplit/easyplit/internal/storage/sqlite"
)

func newTestHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("api-test-secret-0123456789abcdef", time.Hour)
	authSvc := service.NewAuthService(
		auth.NewPasswordAuthenticator(store, bcrypt.MinCost),
		jwtManager, store, slog.New(slog.DiscardHandler),
	)
	srv := NewServer(authSvc, service.NewGroupService(store), service.NewExpenseService(store), jwtManager, opts)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func register(t *testing.T, h http.Handler, name string) sessionJSON {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/auth/register", "", registerRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionJSON](t, rec)
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthFlow(t *testing.T) {
	h := newTestHandler(t, Options{})
	alice := register(t, h, "alice")
	assert.NotEmpty(t, alice.Token)

	rec := do(t, h, http.MethodPost, "/api/auth/register", "", registerRequest{
		Email: "alice@example.com", DisplayName: "Alice", Password: "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/register", "", registerRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "alice@example.com", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[errorBody](t, rec).Error.Type)

	rec = do(t, h, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "alice@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[sessionJSON](t, rec)

	rec = do(t, h, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.User.ID, decode[userJSON](t, rec).ID)

	rec = do(t, h, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGroupExpenseFlow(t *testing.T) {
	h := newTestHandler(t, Options{})
	alice := register(t, h, "alice")
	bob := register(t, h, "bob")
	carol := register(t, h, "carol")

	rec := do(t, h, http.MethodPost, "/api/group", alice.Token, createGroupRequest{
		Name:      "Flat",
		MemberIDs: []string{bob.User.ID, carol.User.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	group := decode[groupJSON](t, rec)
	assert.Len(t, group.MemberIDs, 3)

	rec = do(t, h, http.MethodPost, "/api/expense", alice.Token, map[string]any{
		"description":    "Rent",
		"amount":         "300.00",
		"groupId":        group.ID,
		"participantIds": []string{alice.User.ID, bob.User.ID, carol.User.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	expense := decode[expenseDetailJSON](t, rec)
	assert.Equal(t, money.Cents(30000), expense.Expense.Amount)
	assert.Equal(t, alice.User.ID, expense.Expense.PaidByID)
	assert.False(t, expense.Settled)

	rec = do(t, h, http.MethodGet, "/api/group/"+group.ID+"/balances", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balances := decode[groupBalancesJSON](t, rec)
	assert.ElementsMatch(t, []pairBalanceJSON{
		{From: bob.User.ID, To: alice.User.ID, Amount: money.Cents(10000)},
		{From: carol.User.ID, To: alice.User.ID, Amount: money.Cents(10000)},
	}, balances.Debts)

	rec = do(t, h, http.MethodPatch, "/api/expense/"+expense.Expense.ID, bob.Token, map[string]any{
		"participantPayment": map[string]any{"amount": 100},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[expenseDetailJSON](t, rec)
	for _, b := range updated.Balances {
		if b.UserID == bob.User.ID {
			assert.True(t, b.Settled)
			assert.Equal(t, money.Cents(10000), b.Contributed)
		}
	}

	rec = do(t, h, http.MethodGet, "/api/group/"+group.ID+"/balances", carol.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balances = decode[groupBalancesJSON](t, rec)
	assert.Equal(t, []pairBalanceJSON{
		{From: carol.User.ID, To: alice.User.ID, Amount: money.Cents(10000)},
	}, balances.Debts)

	rec = do(t, h, http.MethodGet, "/api/expense/"+expense.Expense.ID+"/payments", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payments := decode[struct {
		Payments []paymentJSON `json:"payments"`
	}](t, rec)
	require.Len(t, payments.Payments, 1)
	assert.Equal(t, bob.User.ID, payments.Payments[0].RecordedBy)

	rec = do(t, h, http.MethodGet, "/api/group/"+group.ID, carol.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[groupDetailJSON](t, rec)
	assert.Len(t, detail.Expenses, 1)
	assert.Len(t, detail.Users, 3)

	rec = do(t, h, http.MethodDelete, "/api/expense/"+expense.Expense.ID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/group/"+group.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/group/"+group.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateExpenseRequests(t *testing.T) {
	h := newTestHandler(t, Options{})
	alice := register(t, h, "alice")
	bob := register(t, h, "bob")

	rec := do(t, h, http.MethodPost, "/api/expense", alice.Token, map[string]any{
		"amount":         12.5,
		"participantIds": []string{alice.User.ID, bob.User.ID},
		"paidAt":         "2024-01-02T15:04:05Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	expense := decode[expenseDetailJSON](t, rec)
	assert.Equal(t, "Expense - Jan 2, 2024", expense.Expense.Description)
	require.NotNil(t, expense.Expense.PaidAt)

	path := "/api/expense/" + expense.Expense.ID

	rec = do(t, h, http.MethodPatch, path, alice.Token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, path, alice.Token, map[string]any{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, path, bob.Token, map[string]any{
		"participantPayment": map[string]any{"amount": "1.005"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, path, alice.Token, map[string]any{"description": "Lunch"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lunch", decode[expenseDetailJSON](t, rec).Expense.Description)

	rec = do(t, h, http.MethodGet, "/api/expense/missing", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Error.Type)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidArgument, http.StatusBadRequest},
		{money.ErrSubCent, http.StatusBadRequest},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{storage.ErrNotFound, http.StatusNotFound},
		{auth.ErrEmailExists, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got, _ := statusFor(tt.err)
			if got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestStaticAndMetrics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>easyplit</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	h := newTestHandler(t, Options{StaticPath: dir, MetricsEnabled: true})

	rec := do(t, h, http.MethodGet, "/app.js", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	rec = do(t, h, http.MethodGet, "/groups/123", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "easyplit")

	rec = do(t, h, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Error.Type)

	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "easyplit_http_requests_total")
}
