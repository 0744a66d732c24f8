package service

import (
	"context"

	"lms/internal/model"
	"lms/internal/repository"
)

// NoteInput holds the writable fields of a note.
type NoteInput struct {
	Subject       string
	Title         string
	Caption       string
	SubjectCode   string
	ClassroomLink string
}

type NoteService interface {
	Create(ctx context.Context, actor *model.User, in NoteInput) (*model.Note, error)
	List(ctx context.Context) ([]model.Note, error)
	Get(ctx context.Context, id string) (*model.Note, error)
	Update(ctx context.Context, actor *model.User, id string, in NoteInput) (*model.Note, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	ListByTeacher(ctx context.Context, actor *model.User, teacherID string) ([]model.Note, error)
	ListBySubject(ctx context.Context, subject string) ([]model.Note, error)
}

type noteService struct {
	repo repository.NoteRepository
}

func NewNoteService(repo repository.NoteRepository) NoteService {
	return &noteService{repo: repo}
}

func (s *noteService) Create(ctx context.Context, actor *model.User, in NoteInput) (*model.Note, error) {
	note := &model.Note{
		Subject:       in.Subject,
		Title:         in.Title,
		Caption:       in.Caption,
		SubjectCode:   in.SubjectCode,
		ClassroomLink: in.ClassroomLink,
		CreatedBy:     actor.ID,
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *noteService) List(ctx context.Context) ([]model.Note, error) {
	return s.repo.ListNotes(ctx, repository.NoteFilter{})
}

func (s *noteService) Get(ctx context.Context, id string) (*model.Note, error) {
	note, err := s.repo.GetNoteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

// Update replaces every writable field, matching a full PUT.
func (s *noteService) Update(ctx context.Context, actor *model.User, id string, in NoteInput) (*model.Note, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !note.CanManage(actor) {
		return nil, ErrNotNoteOwner
	}
	note.Subject = in.Subject
	note.Title = in.Title
	note.Caption = in.Caption
	note.SubjectCode = in.SubjectCode
	note.ClassroomLink = in.ClassroomLink
	if err := s.repo.UpdateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *noteService) Delete(ctx context.Context, actor *model.User, id string) error {
	note, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !note.CanManage(actor) {
		return ErrNotNoteOwner
	}
	return s.repo.DeleteNote(ctx, id)
}

// ListByTeacher returns ErrNoteNotFound when the teacher has no notes.
func (s *noteService) ListByTeacher(ctx context.Context, actor *model.User, teacherID string) ([]model.Note, error) {
	if actor.ID != teacherID && !actor.IsAdmin() {
		return nil, ErrTeacherNotesDenied
	}
	notes, err := s.repo.ListNotes(ctx, repository.NoteFilter{CreatedBy: teacherID})
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, ErrNoteNotFound
	}
	return notes, nil
}

func (s *noteService) ListBySubject(ctx context.Context, subject string) ([]model.Note, error) {
	return s.repo.ListNotes(ctx, repository.NoteFilter{Subject: subject})
}
