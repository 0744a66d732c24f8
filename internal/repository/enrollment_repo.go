package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lms/internal/model"
)

// EnrollmentFilter narrows ListEnrollments. Zero fields are ignored.
type EnrollmentFilter struct {
	UserID string
	Status string
}

// ReviewResult describes the side effects of approving an enrollment.
type ReviewResult struct {
	SubjectGranted bool
	SubjectRevoked bool
	// SessionsJoined counts sessions of the enrollment month the student was added to.
	SessionsJoined int64
}

type EnrollmentRepository interface {
	CreateEnrollment(ctx context.Context, e *model.Enrollment) error
	GetEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error)
	// FindActiveEnrollment returns the pending or approved enrollment for the
	// given period, or nil.
	FindActiveEnrollment(ctx context.Context, userID, subject string, month, year int) (*model.Enrollment, error)
	ListEnrollments(ctx context.Context, filter EnrollmentFilter) ([]model.Enrollment, error)
	UpdateEnrollment(ctx context.Context, e *model.Enrollment) error
	DeleteEnrollment(ctx context.Context, id string) (bool, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	HasApprovedEnrollment(ctx context.Context, userID, subject string) (bool, error)
	ApproveEnrollment(ctx context.Context, id, reviewerID, notes string) (*ReviewResult, error)
	RejectEnrollment(ctx context.Context, id, reviewerID, notes string) (*ReviewResult, error)
}

type enrollmentRepo struct {
	db *sql.DB
}

func NewEnrollmentRepo(db *sql.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

const enrollmentSelect = `
	SELECT e.id, e.user_id, e.subject, e.month, e.year, e.message, e.image_url, e.status,
	       e.reviewed_by, e.reviewed_at, e.review_notes, e.is_editable, e.created_at, e.updated_at,
	       u.first_name, u.last_name, u.email,
	       r.first_name, r.last_name, r.email
	FROM enrollments e
	JOIN users u ON u.id = e.user_id
	LEFT JOIN users r ON r.id = e.reviewed_by`

func scanEnrollment(row rowScanner) (*model.Enrollment, error) {
	var (
		e          model.Enrollment
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
		user       model.UserRef
		rFirst     sql.NullString
		rLast      sql.NullString
		rEmail     sql.NullString
	)
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Subject,
		&e.Month,
		&e.Year,
		&e.Message,
		&e.ImageURL,
		&e.Status,
		&reviewedBy,
		&reviewedAt,
		&e.ReviewNotes,
		&e.IsEditable,
		&e.CreatedAt,
		&e.UpdatedAt,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&rFirst,
		&rLast,
		&rEmail,
	)
	if err != nil {
		return nil, err
	}
	user.ID = e.UserID
	e.User = &user
	if reviewedBy.Valid {
		e.ReviewedBy = &reviewedBy.String
		e.Reviewer = &model.UserRef{
			ID:        reviewedBy.String,
			FirstName: rFirst.String,
			LastName:  rLast.String,
			Email:     rEmail.String,
		}
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		e.ReviewedAt = &t
	}
	return &e, nil
}

func (r *enrollmentRepo) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, subject, month, year, message, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		e.UserID, e.Subject, e.Month, e.Year, e.Message, e.ImageURL, e.Status,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	created, err := r.GetEnrollmentByID(ctx, id)
	if err != nil {
		return err
	}
	if created == nil {
		return fmt.Errorf("enrollment %s vanished after insert", id)
	}
	*e = *created
	return nil
}

func (r *enrollmentRepo) GetEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error) {
	if !validID(id) {
		return nil, nil
	}
	e, err := scanEnrollment(r.db.QueryRowContext(ctx, enrollmentSelect+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return e, nil
}

func (r *enrollmentRepo) FindActiveEnrollment(ctx context.Context, userID, subject string, month, year int) (*model.Enrollment, error) {
	query := enrollmentSelect + `
		WHERE e.user_id = $1 AND e.subject = $2 AND e.month = $3 AND e.year = $4
		  AND e.status <> 'rejected'
		LIMIT 1`
	e, err := scanEnrollment(r.db.QueryRowContext(ctx, query, userID, subject, month, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active enrollment: %w", err)
	}
	return e, nil
}

func (r *enrollmentRepo) ListEnrollments(ctx context.Context, filter EnrollmentFilter) ([]model.Enrollment, error) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != "" {
		if !validID(filter.UserID) {
			return []model.Enrollment{}, nil
		}
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("e.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("e.status = $%d", len(args)))
	}

	query := enrollmentSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []model.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		enrollments = append(enrollments, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// UpdateEnrollment writes the editable request fields. Review fields only
// change through ApproveEnrollment and RejectEnrollment.
func (r *enrollmentRepo) UpdateEnrollment(ctx context.Context, e *model.Enrollment) error {
	query := `
		UPDATE enrollments
		SET subject = $1, month = $2, year = $3, message = $4, image_url = $5,
		    is_editable = $6, updated_at = NOW()
		WHERE id = $7`
	_, err := r.db.ExecContext(ctx, query,
		e.Subject, e.Month, e.Year, e.Message, e.ImageURL, e.IsEditable, e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	updated, err := r.GetEnrollmentByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if updated != nil {
		*e = *updated
	}
	return nil
}

func (r *enrollmentRepo) DeleteEnrollment(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete enrollment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *enrollmentRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enrollments WHERE status = $1`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return n, nil
}

func (r *enrollmentRepo) HasApprovedEnrollment(ctx context.Context, userID, subject string) (bool, error) {
	if !validID(userID) {
		return false, nil
	}
	query := `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND subject = $2 AND status = 'approved')`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, subject).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check approved enrollment: %w", err)
	}
	return ok, nil
}

// ApproveEnrollment marks the enrollment approved, grants the subject to the
// student and adds them to every session of that subject in the enrollment month.
// It returns ErrDuplicate when another active enrollment holds the same period.
func (r *enrollmentRepo) ApproveEnrollment(ctx context.Context, id, reviewerID, notes string) (*ReviewResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin approve transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		userID, subject string
		month, year     int
	)
	err = tx.QueryRowContext(ctx, `
		UPDATE enrollments
		SET status = 'approved', reviewed_by = $2, reviewed_at = NOW(), review_notes = $3,
		    is_editable = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING user_id, subject, month, year`,
		id, reviewerID, notes,
	).Scan(&userID, &subject, &month, &year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to approve enrollment: %w", err)
	}

	result := &ReviewResult{}
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET accessible_subjects = array_append(accessible_subjects, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(accessible_subjects))`,
		userID, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to grant subject: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		result.SubjectGranted = true
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	res, err = tx.ExecContext(ctx, `
		INSERT INTO session_students (session_id, student_id)
		SELECT s.id, $1::uuid
		FROM sessions s
		WHERE s.subject = $2 AND s.date >= $3 AND s.date < $4
		ON CONFLICT DO NOTHING`,
		userID, subject, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to add student to sessions: %w", err)
	}
	result.SessionsJoined, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}
	return result, nil
}

// RejectEnrollment marks the enrollment rejected. The subject is revoked
// unless the student still holds another approved enrollment for it.
func (r *enrollmentRepo) RejectEnrollment(ctx context.Context, id, reviewerID, notes string) (*ReviewResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reject transaction: %w", err)
	}
	defer tx.Rollback()

	var userID, subject string
	err = tx.QueryRowContext(ctx, `
		UPDATE enrollments
		SET status = 'rejected', reviewed_by = $2, reviewed_at = NOW(), review_notes = $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING user_id, subject`,
		id, reviewerID, notes,
	).Scan(&userID, &subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to reject enrollment: %w", err)
	}

	result := &ReviewResult{}
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET accessible_subjects = array_remove(accessible_subjects, $2), updated_at = NOW()
		WHERE id = $1
		  AND $2 = ANY(accessible_subjects)
		  AND NOT EXISTS (
		      SELECT 1 FROM enrollments
		      WHERE user_id = $1 AND subject = $2 AND status = 'approved')`,
		userID, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke subject: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		result.SubjectRevoked = true
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}
	return result, nil
}
