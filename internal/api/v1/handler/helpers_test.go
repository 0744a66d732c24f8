package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms/internal/middleware"
	"lms/internal/model"
	"lms/internal/util"
	"lms/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const testSecret = "handler-secret"

var (
	admin   = &model.User{ID: "a1", Email: "admin@example.com", FirstName: "Ada", Role: model.RoleAdmin}
	teacher = &model.User{ID: "t1", Email: "teacher@example.com", FirstName: "Tom", Role: model.RoleTeacher}
	student = &model.User{ID: "s1", Email: "student@example.com", FirstName: "Sam", LastName: "Perera", Role: model.RoleStudent}
)

type accounts map[string]*model.User

func (a accounts) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return a[id], nil
}

type allowSubjects map[string]bool

func (a allowSubjects) HasSubjectAccess(ctx context.Context, u *model.User, subject string) (bool, error) {
	return u.IsAdmin() || a[subject], nil
}

type mountFunc func(r chi.Router, auth, optional, subject func(http.Handler) http.Handler)

func newRouter(mount mountFunc, allowed allowSubjects) http.Handler {
	users := accounts{admin.ID: admin, teacher.ID: teacher, student.ID: student}
	auth := middleware.AuthMiddleware(testSecret, users, zerolog.Nop())
	optional := middleware.OptionalAuthMiddleware(testSecret, users, zerolog.Nop())
	subject := middleware.SubjectAccess(allowed, SubjectParam, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		mount(r, auth, optional, subject)
	})
	return r
}

var testValidator = validation.New()

func do(t *testing.T, h http.Handler, method, path string, as *model.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		tok, err := util.GenerateJWT(as, testSecret, time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON object: %q", rec.Body.String())
	}
	return out
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if message == "" {
		return
	}
	if got, _ := decode(t, rec)["message"].(string); got != message {
		t.Fatalf("expected message %q, got %q", message, got)
	}
}
