package handler

import (
	"context"
	"net/http"
	"testing"

	"lms/internal/model"
	"lms/internal/service"
)

type fakeNoteService struct {
	service.NoteService
	notes   map[string]*model.Note
	subject string
}

func newFakeNoteService() *fakeNoteService {
	return &fakeNoteService{notes: map[string]*model.Note{
		"n1": {ID: "n1", Subject: "ICT", Title: "Networks", CreatedBy: teacher.ID,
			Author: model.UserRef{ID: teacher.ID, FirstName: teacher.FirstName, Role: model.RoleTeacher}},
	}}
}

func (f *fakeNoteService) Get(ctx context.Context, id string) (*model.Note, error) {
	if n, ok := f.notes[id]; ok {
		return n, nil
	}
	return nil, service.ErrNoteNotFound
}

func (f *fakeNoteService) Create(ctx context.Context, actor *model.User, in service.NoteInput) (*model.Note, error) {
	n := &model.Note{ID: "n2", Subject: in.Subject, Title: in.Title, CreatedBy: actor.ID, Author: model.UserRef{ID: actor.ID}}
	f.notes[n.ID] = n
	return n, nil
}

func (f *fakeNoteService) Update(ctx context.Context, actor *model.User, id string, in service.NoteInput) (*model.Note, error) {
	n, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.CanManage(actor) {
		return nil, service.ErrNotNoteOwner
	}
	n.Title = in.Title
	return n, nil
}

func (f *fakeNoteService) ListByTeacher(ctx context.Context, actor *model.User, teacherID string) ([]model.Note, error) {
	if actor.ID != teacherID && !actor.IsAdmin() {
		return nil, service.ErrTeacherNotesDenied
	}
	var out []model.Note
	for _, n := range f.notes {
		if n.CreatedBy == teacherID {
			out = append(out, *n)
		}
	}
	if len(out) == 0 {
		return nil, service.ErrNoteNotFound
	}
	return out, nil
}

func (f *fakeNoteService) ListBySubject(ctx context.Context, subject string) ([]model.Note, error) {
	f.subject = subject
	return []model.Note{}, nil
}

func noteRouter(svc service.NoteService) http.Handler {
	return newRouter(NewNoteHandler(svc, testValidator).RegisterRoutes, nil)
}

func TestNoteRoutes(t *testing.T) {
	h := noteRouter(newFakeNoteService())
	note := map[string]string{"subject": "ICT", "title": "Routing", "caption": "BGP", "subjectCode": "ICT-2"}

	rec := do(t, h, http.MethodGet, "/api/notes/n1", nil, nil)
	expect(t, rec, http.StatusOK, "")
	if createdBy, _ := decode(t, rec)["createdBy"].(map[string]any); createdBy["role"] != model.RoleTeacher {
		t.Errorf("expected populated createdBy, got %v", createdBy)
	}
	expect(t, do(t, h, http.MethodGet, "/api/notes/nope", nil, nil), http.StatusNotFound, "Note not found")

	expect(t, do(t, h, http.MethodPost, "/api/notes", student, note), http.StatusForbidden, "Only admins and teachers can create notes")
	expect(t, do(t, h, http.MethodPost, "/api/notes", teacher, map[string]string{"title": "x"}), http.StatusBadRequest, "Validation failed")
	expect(t, do(t, h, http.MethodPost, "/api/notes", teacher, note), http.StatusCreated, "Note created successfully")

	other := map[string]string{"subject": "ICT", "title": "Mine", "caption": "c", "subjectCode": "c", "classroomLink": "not a url"}
	expect(t, do(t, h, http.MethodPut, "/api/notes/n1", teacher, other), http.StatusBadRequest, "Validation failed")
	expect(t, do(t, h, http.MethodPut, "/api/notes/n1", student, note), http.StatusForbidden, "You can only update your own notes")
	expect(t, do(t, h, http.MethodPut, "/api/notes/n1", teacher, note), http.StatusOK, "Note updated successfully")
}

func TestNotesByTeacherRoute(t *testing.T) {
	h := noteRouter(newFakeNoteService())

	expect(t, do(t, h, http.MethodGet, "/api/notes/teacher/"+teacher.ID, student, nil), http.StatusForbidden, "Unauthorized to access these notes")
	expect(t, do(t, h, http.MethodGet, "/api/notes/teacher/t9", admin, nil), http.StatusNotFound, "No notes found for this teacher")
	expect(t, do(t, h, http.MethodGet, "/api/notes/teacher/"+teacher.ID, teacher, nil), http.StatusOK, "")
}

func TestNotesBySubjectDecodesReservedCharacters(t *testing.T) {
	svc := newFakeNoteService()
	h := newRouter(NewNoteHandler(svc, testValidator).RegisterRoutes, allowSubjects{"Engineering & Bio System Technology": true})

	expect(t, do(t, h, http.MethodGet, "/api/notes/subjects/Engineering%20%26%20Bio%20System%20Technology", student, nil), http.StatusOK, "")
	if svc.subject != "Engineering & Bio System Technology" {
		t.Errorf("unexpected subject %q", svc.subject)
	}
	expect(t, do(t, h, http.MethodGet, "/api/notes/subjects/Physics", student, nil),
		http.StatusForbidden, "Access denied. Your enrollment for this subject is not approved.")
}
