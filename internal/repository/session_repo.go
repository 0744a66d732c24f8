package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lms/internal/model"
)

// SessionFilter narrows ListSessions. Zero fields are ignored.
type SessionFilter struct {
	TeacherID string
	StudentID string
	Subject   string
}

type SessionRepository interface {
	CreateSession(ctx context.Context, s *model.Session) error
	GetSessionByID(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.Session, error)
	UpdateSession(ctx context.Context, s *model.Session) error
	DeleteSession(ctx context.Context, id string) error
	// AddStudent enrolls studentID while seats remain. It reports false when
	// the session is full or the student is already enrolled.
	AddStudent(ctx context.Context, sessionID, studentID string) (bool, error)
	RemoveStudent(ctx context.Context, sessionID, studentID string) error
	ListStudents(ctx context.Context, sessionID string) ([]model.UserRef, error)
}

type sessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) SessionRepository {
	return &sessionRepo{db: db}
}

const sessionSelect = `
	SELECT s.id, s.subject, s.description, s.date, s.start_time, s.end_time, s.max_students,
	       s.link, s.code, s.teacher_id, s.is_cancelled, s.created_at, s.updated_at,
	       t.first_name, t.last_name, t.img,
	       ARRAY(SELECT ss.student_id::text FROM session_students ss
	             WHERE ss.session_id = s.id ORDER BY ss.enrolled_at) AS enrolled_students
	FROM sessions s
	JOIN users t ON t.id = s.teacher_id`

func scanSession(row rowScanner) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.Subject,
		&s.Description,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.MaxStudents,
		&s.Link,
		&s.Code,
		&s.TeacherID,
		&s.IsCancelled,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.Teacher.FirstName,
		&s.Teacher.LastName,
		&s.Teacher.Img,
		textArray(&s.EnrolledStudents),
	)
	if err != nil {
		return nil, err
	}
	s.Teacher.ID = s.TeacherID
	if s.EnrolledStudents == nil {
		s.EnrolledStudents = []string{}
	}
	return &s, nil
}

func (r *sessionRepo) CreateSession(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (subject, description, date, start_time, end_time, max_students, link, code, teacher_id, is_cancelled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		s.Subject, s.Description, s.Date, s.StartTime, s.EndTime,
		s.MaxStudents, s.Link, s.Code, s.TeacherID, s.IsCancelled,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	created, err := r.GetSessionByID(ctx, id)
	if err != nil {
		return err
	}
	if created == nil {
		return fmt.Errorf("session %s vanished after insert", id)
	}
	*s = *created
	return nil
}

func (r *sessionRepo) GetSessionByID(ctx context.Context, id string) (*model.Session, error) {
	if !validID(id) {
		return nil, nil
	}
	s, err := scanSession(r.db.QueryRowContext(ctx, sessionSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) ListSessions(ctx context.Context, filter SessionFilter) ([]model.Session, error) {
	var (
		conds []string
		args  []any
	)
	if filter.TeacherID != "" {
		if !validID(filter.TeacherID) {
			return []model.Session{}, nil
		}
		args = append(args, filter.TeacherID)
		conds = append(conds, fmt.Sprintf("s.teacher_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		if !validID(filter.StudentID) {
			return []model.Session{}, nil
		}
		args = append(args, filter.StudentID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM session_students ss WHERE ss.session_id = s.id AND ss.student_id = $%d)", len(args)))
	}
	if filter.Subject != "" {
		args = append(args, filter.Subject)
		conds = append(conds, fmt.Sprintf("s.subject = $%d", len(args)))
	}

	query := sessionSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.date ASC, s.start_time ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) UpdateSession(ctx context.Context, s *model.Session) error {
	query := `
		UPDATE sessions
		SET subject = $1, description = $2, date = $3, start_time = $4, end_time = $5,
		    max_students = $6, link = $7, code = $8, is_cancelled = $9, updated_at = NOW()
		WHERE id = $10`
	_, err := r.db.ExecContext(ctx, query,
		s.Subject, s.Description, s.Date, s.StartTime, s.EndTime,
		s.MaxStudents, s.Link, s.Code, s.IsCancelled, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	updated, err := r.GetSessionByID(ctx, s.ID)
	if err != nil {
		return err
	}
	if updated != nil {
		*s = *updated
	}
	return nil
}

func (r *sessionRepo) DeleteSession(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *sessionRepo) AddStudent(ctx context.Context, sessionID, studentID string) (bool, error) {
	query := `
		INSERT INTO session_students (session_id, student_id)
		SELECT s.id, $2::uuid
		FROM sessions s
		WHERE s.id = $1
		  AND (SELECT COUNT(*) FROM session_students ss WHERE ss.session_id = s.id) < s.max_students
		ON CONFLICT DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, sessionID, studentID)
	if err != nil {
		return false, fmt.Errorf("failed to enroll student: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *sessionRepo) RemoveStudent(ctx context.Context, sessionID, studentID string) error {
	query := `DELETE FROM session_students WHERE session_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, sessionID, studentID); err != nil {
		return fmt.Errorf("failed to withdraw student: %w", err)
	}
	return nil
}

func (r *sessionRepo) ListStudents(ctx context.Context, sessionID string) ([]model.UserRef, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name
		FROM session_students ss
		JOIN users u ON u.id = ss.student_id
		WHERE ss.session_id = $1
		ORDER BY ss.enrolled_at ASC`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session students: %w", err)
	}
	defer rows.Close()

	students := []model.UserRef{}
	for rows.Next() {
		var u model.UserRef
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, u)
	}
	return students, rows.Err()
}
