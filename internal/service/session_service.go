package service

import (
	"context"
	"time"

	"lms/internal/model"
	"lms/internal/repository"

	"github.com/rs/zerolog"
)

// SessionInput holds the fields of a new session.
type SessionInput struct {
	Subject     string
	Description string
	Date        time.Time
	StartTime   string
	EndTime     string
	MaxStudents int
	Link        string
	Code        string
}

// SessionUpdate is a partial session update. Nil fields are left unchanged.
type SessionUpdate struct {
	Subject     *string
	Description *string
	Date        *time.Time
	StartTime   *string
	EndTime     *string
	MaxStudents *int
	Link        *string
	Code        *string
	IsCancelled *bool
}

type SessionService interface {
	Create(ctx context.Context, actor *model.User, in SessionInput) (*model.Session, error)
	List(ctx context.Context) ([]model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	Update(ctx context.Context, actor *model.User, id string, in SessionUpdate) (*model.Session, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	Enroll(ctx context.Context, student *model.User, id string) (*model.Session, error)
	Withdraw(ctx context.Context, student *model.User, id string) (*model.Session, error)
	// ListForTeacher returns the teacher's sessions with enrolled students filled in.
	ListForTeacher(ctx context.Context, teacher *model.User) ([]model.Session, error)
	ListForStudent(ctx context.Context, student *model.User) ([]model.Session, error)
	ListBySubject(ctx context.Context, subject string) ([]model.Session, error)
}

type sessionService struct {
	repo   repository.SessionRepository
	logger zerolog.Logger
}

func NewSessionService(repo repository.SessionRepository, logger zerolog.Logger) SessionService {
	return &sessionService{
		repo:   repo,
		logger: logger.With().Str("service", "SessionService").Logger(),
	}
}

func (s *sessionService) Create(ctx context.Context, actor *model.User, in SessionInput) (*model.Session, error) {
	if in.MaxStudents < 1 {
		return nil, &ValidationError{Fields: map[string]string{"maxStudents": "maxStudents must be at least 1"}}
	}
	session := &model.Session{
		Subject:          in.Subject,
		Description:      in.Description,
		Date:             in.Date,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		MaxStudents:      in.MaxStudents,
		Link:             in.Link,
		Code:             in.Code,
		TeacherID:        actor.ID,
		EnrolledStudents: []string{},
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info().Str("session_id", session.ID).Str("teacher_id", actor.ID).Msg("Session created")
	return session, nil
}

func (s *sessionService) List(ctx context.Context) ([]model.Session, error) {
	return s.repo.ListSessions(ctx, repository.SessionFilter{})
}

func (s *sessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.repo.GetSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) Update(ctx context.Context, actor *model.User, id string, in SessionUpdate) (*model.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanManage(actor) {
		return nil, ErrNotSessionOwner
	}

	if in.Subject != nil {
		session.Subject = *in.Subject
	}
	if in.Description != nil {
		session.Description = *in.Description
	}
	if in.Date != nil {
		session.Date = *in.Date
	}
	if in.StartTime != nil {
		session.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		session.EndTime = *in.EndTime
	}
	if in.MaxStudents != nil {
		if *in.MaxStudents < 1 {
			return nil, &ValidationError{Fields: map[string]string{"maxStudents": "maxStudents must be at least 1"}}
		}
		session.MaxStudents = *in.MaxStudents
	}
	if in.Link != nil {
		session.Link = *in.Link
	}
	if in.Code != nil {
		session.Code = *in.Code
	}
	if in.IsCancelled != nil {
		session.IsCancelled = *in.IsCancelled
	}

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) Delete(ctx context.Context, actor *model.User, id string) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !session.CanManage(actor) {
		return ErrNotSessionOwner
	}
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("session_id", id).Str("actor_id", actor.ID).Msg("Session deleted")
	return nil
}

func (s *sessionService) Enroll(ctx context.Context, student *model.User, id string) (*model.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.HasStudent(student.ID) {
		return nil, ErrAlreadyEnrolled
	}
	if session.IsCancelled {
		return nil, ErrSessionCancelled
	}
	if session.IsFull() {
		return nil, ErrSessionFull
	}

	added, err := s.repo.AddStudent(ctx, id, student.ID)
	if err != nil {
		return nil, err
	}
	session, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !added {
		// Lost a race for the last seat or a concurrent enroll of the same student.
		if session.HasStudent(student.ID) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, ErrSessionFull
	}
	return session, nil
}

func (s *sessionService) Withdraw(ctx context.Context, student *model.User, id string) (*model.Session, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveStudent(ctx, id, student.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *sessionService) ListForTeacher(ctx context.Context, teacher *model.User) ([]model.Session, error) {
	sessions, err := s.repo.ListSessions(ctx, repository.SessionFilter{TeacherID: teacher.ID})
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		students, err := s.repo.ListStudents(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Students = students
	}
	return sessions, nil
}

func (s *sessionService) ListForStudent(ctx context.Context, student *model.User) ([]model.Session, error) {
	return s.repo.ListSessions(ctx, repository.SessionFilter{StudentID: student.ID})
}

func (s *sessionService) ListBySubject(ctx context.Context, subject string) ([]model.Session, error) {
	return s.repo.ListSessions(ctx, repository.SessionFilter{Subject: subject})
}
