package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/easyplit/easyplit/internal/auth"
	"github.com/easyplit/easyplit/internal/models"
)

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("middleware-test-secret-0123456789", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var gotErr error
	onError := func(w http.ResponseWriter, r *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	}

	var seenUser, seenEmail string
	handler := RequireAuth(jwtManager, onError)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = GetUserID(r.Context())
		seenEmail = GetEmail(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantErr    error
	}{
		{"valid token", "Bearer " + token, http.StatusNoContent, nil},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent, nil},
		{"missing header", "", http.StatusUnauthorized, auth.ErrMissingToken},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, auth.ErrInvalidToken},
		{"bad token", "Bearer nope", http.StatusUnauthorized, auth.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotErr, seenUser, seenEmail = nil, "", ""

			req := httptest.NewRequest(http.MethodGet, "/api/group", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantErr != nil && !errors.Is(gotErr, tt.wantErr) {
				t.Errorf("error = %v, want %v", gotErr, tt.wantErr)
			}
			if tt.wantErr == nil && (seenUser != "u1" || seenEmail != "u1@example.com") {
				t.Errorf("context user = %q/%q", seenUser, seenEmail)
			}
		})
	}
}

func TestLogging_DefaultsStatus(t *testing.T) {
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
