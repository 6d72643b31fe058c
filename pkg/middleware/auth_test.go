package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stayhub/internal/data/entity"
	"stayhub/internal/data/repository/repotest"
	"stayhub/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestAuthenticate(t *testing.T) {
	tokens := utils.NewTokenIssuer("secret", time.Hour)
	users := repotest.NewStore().Repository().User

	user := &entity.User{Base: entity.Base{ID: uuid.New()}, Email: "h@example.com", Role: entity.RoleHost}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	valid, _, _ := tokens.Issue(user.ID, string(user.Role), user.Email)
	orphan, _, _ := tokens.Issue(uuid.New(), "guest", "ghost@example.com")

	var seen uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = utils.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		mw       func(http.Handler) http.Handler
		header   string
		wantCode int
		wantUser uuid.UUID
	}{
		{"required, valid", Authenticate(tokens, users, zap.NewNop()), "Bearer " + valid, http.StatusOK, user.ID},
		{"required, missing", Authenticate(tokens, users, zap.NewNop()), "", http.StatusUnauthorized, uuid.Nil},
		{"required, wrong scheme", Authenticate(tokens, users, zap.NewNop()), "Token " + valid, http.StatusUnauthorized, uuid.Nil},
		{"required, deleted user", Authenticate(tokens, users, zap.NewNop()), "Bearer " + orphan, http.StatusUnauthorized, uuid.Nil},
		{"optional, anonymous", OptionalAuth(tokens, users, zap.NewNop()), "", http.StatusOK, uuid.Nil},
		{"optional, valid", OptionalAuth(tokens, users, zap.NewNop()), "bearer " + valid, http.StatusOK, user.ID},
		{"optional, invalid", OptionalAuth(tokens, users, zap.NewNop()), "Bearer junk", http.StatusUnauthorized, uuid.Nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			tt.mw(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if seen != tt.wantUser {
				t.Fatalf("user = %v, want %v", seen, tt.wantUser)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
}
