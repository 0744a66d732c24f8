package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms/internal/model"
	"lms/internal/util"

	"github.com/rs/zerolog"
)

const secret = "middleware-secret"

type stubUsers map[string]*model.User

func (s stubUsers) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "explode" {
		return nil, errors.New("db down")
	}
	return s[id], nil
}

func token(t *testing.T, u *model.User) string {
	t.Helper()
	tok, err := util.GenerateJWT(u, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return tok
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	if u == nil {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(u.ID))
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %q", rec.Body.String())
	}
	return body["message"]
}

func TestAuthMiddleware(t *testing.T) {
	active := &model.User{ID: "u1", Role: model.RoleStudent}
	blocked := &model.User{ID: "u2", Role: model.RoleStudent, IsBlocked: true}
	users := stubUsers{"u1": active, "u2": blocked}
	h := AuthMiddleware(secret, users, zerolog.Nop())(http.HandlerFunc(echoUser))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"missing header", "", http.StatusUnauthorized, "Unauthorized - Token missing"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Unauthorized - Token missing"},
		{"bad token", "Bearer not-a-jwt", http.StatusUnauthorized, "Unauthorized - Invalid token"},
		{"unknown user", "Bearer " + token(t, &model.User{ID: "ghost"}), http.StatusUnauthorized, "Unauthorized - User not found"},
		{"blocked user", "Bearer " + token(t, blocked), http.StatusForbidden, "Your account has been blocked"},
		{"lookup failure", "Bearer " + token(t, &model.User{ID: "explode"}), http.StatusInternalServerError, "Failed to authenticate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := message(t, rec); got != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, got)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, active))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
		t.Fatalf("expected user u1 in context, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	users := stubUsers{"u1": {ID: "u1", Role: model.RoleAdmin}}
	h := OptionalAuthMiddleware(secret, users, zerolog.Nop())(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "anonymous" {
		t.Fatalf("expected anonymous request, got %q", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || message(t, rec) != "Invalid token" {
		t.Fatalf("expected 403 Invalid token, got %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, users["u1"]))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.String() != "u1" {
		t.Fatalf("expected u1, got %q", rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("Teacher access required", model.RoleAdmin, model.RoleTeacher)(http.HandlerFunc(echoUser))

	for role, want := range map[string]int{
		model.RoleAdmin:   http.StatusOK,
		model.RoleTeacher: http.StatusOK,
		model.RoleStudent: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUser(req.Context(), &model.User{ID: "x", Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("%s: expected %d, got %d", role, want, rec.Code)
		}
		if want == http.StatusForbidden && message(t, rec) != "Teacher access required" {
			t.Errorf("unexpected message %q", rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without user, got %d", rec.Code)
	}
}

type stubChecker struct {
	allowed map[string]bool
	err     error
}

func (c stubChecker) HasSubjectAccess(ctx context.Context, u *model.User, subject string) (bool, error) {
	return c.allowed[subject], c.err
}

func TestSubjectAccess(t *testing.T) {
	fromPath := func(r *http.Request) string { return r.Header.Get("X-Subject") }
	student := &model.User{ID: "s1", Role: model.RoleStudent}

	run := func(checker SubjectChecker, subject string) *httptest.ResponseRecorder {
		h := SubjectAccess(checker, fromPath, zerolog.Nop())(http.HandlerFunc(echoUser))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Subject", subject)
		req = req.WithContext(WithUser(req.Context(), student))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := run(stubChecker{allowed: map[string]bool{"ICT": true}}, "ICT"); rec.Code != http.StatusOK {
		t.Errorf("expected access, got %d", rec.Code)
	}
	rec := run(stubChecker{}, "ICT")
	if rec.Code != http.StatusForbidden || message(t, rec) != "Access denied. Your enrollment for this subject is not approved." {
		t.Errorf("expected 403, got %d %q", rec.Code, rec.Body.String())
	}
	if rec := run(stubChecker{err: errors.New("db")}, "ICT"); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
