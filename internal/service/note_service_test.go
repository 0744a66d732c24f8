package service

import (
	"context"
	"errors"
	"testing"

	"lms/internal/model"
)

func TestNoteLifecycle(t *testing.T) {
	teacher := &model.User{ID: "t1", Role: model.RoleTeacher}
	other := &model.User{ID: "t2", Role: model.RoleTeacher}
	admin := &model.User{ID: "a1", Role: model.RoleAdmin}
	svc := NewNoteService(newFakeNoteRepo())
	ctx := context.Background()

	note, err := svc.Create(ctx, teacher, NoteInput{Subject: "ICT", Title: "Networks", Caption: "OSI", SubjectCode: "ICT-1"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if note.CreatedBy != teacher.ID {
		t.Fatalf("expected creator %s, got %s", teacher.ID, note.CreatedBy)
	}

	if _, err := svc.Update(ctx, other, note.ID, NoteInput{Title: "x"}); !errors.Is(err, ErrNotNoteOwner) {
		t.Errorf("expected ErrNotNoteOwner, got %v", err)
	}
	updated, err := svc.Update(ctx, admin, note.ID, NoteInput{Subject: "ICT", Title: "Routing", Caption: "BGP", SubjectCode: "ICT-2"})
	if err != nil {
		t.Fatalf("admin Update returned error: %v", err)
	}
	if updated.Title != "Routing" || updated.SubjectCode != "ICT-2" {
		t.Errorf("update not applied: %+v", updated)
	}

	bySubject, err := svc.ListBySubject(ctx, "ICT")
	if err != nil || len(bySubject) != 1 {
		t.Fatalf("unexpected subject listing %v %v", bySubject, err)
	}

	if err := svc.Delete(ctx, other, note.ID); !errors.Is(err, ErrNotNoteOwner) {
		t.Errorf("expected ErrNotNoteOwner, got %v", err)
	}
	if err := svc.Delete(ctx, teacher, note.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(ctx, note.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestNotesByTeacher(t *testing.T) {
	teacher := &model.User{ID: "t1", Role: model.RoleTeacher}
	student := &model.User{ID: "s1", Role: model.RoleStudent}
	admin := &model.User{ID: "a1", Role: model.RoleAdmin}
	svc := NewNoteService(newFakeNoteRepo(&model.Note{ID: "n1", CreatedBy: "t1", Subject: "ICT"}))
	ctx := context.Background()

	if _, err := svc.ListByTeacher(ctx, student, "t1"); !errors.Is(err, ErrTeacherNotesDenied) {
		t.Errorf("expected ErrTeacherNotesDenied, got %v", err)
	}
	notes, err := svc.ListByTeacher(ctx, teacher, "t1")
	if err != nil || len(notes) != 1 {
		t.Fatalf("unexpected notes %v %v", notes, err)
	}
	if _, err := svc.ListByTeacher(ctx, admin, "t9"); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("expected ErrNoteNotFound for a teacher without notes, got %v", err)
	}
}
