package model

import (
	"fmt"
	"time"
)

const (
	EnrollmentPending  = "pending"
	EnrollmentApproved = "approved"
	EnrollmentRejected = "rejected"
)

const (
	MaxEnrollmentMessage = 1000
	MaxReviewNotes       = 500
	// MaxYearsAhead bounds how far in the future an enrollment period may be.
	MaxYearsAhead = 2
)

// Enrollment is a student's request to access a subject for one month,
// backed by a payment receipt image.
type Enrollment struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Subject     string     `db:"subject"`
	Month       int        `db:"month"`
	Year        int        `db:"year"`
	Message     string     `db:"message"`
	ImageURL    string     `db:"image_url"`
	Status      string     `db:"status"`
	ReviewedBy  *string    `db:"reviewed_by"`
	ReviewedAt  *time.Time `db:"reviewed_at"`
	ReviewNotes string     `db:"review_notes"`
	IsEditable  bool       `db:"is_editable"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`

	User     *UserRef
	Reviewer *UserRef
}

// Period renders the enrollment month, e.g. "March 2025".
func (e *Enrollment) Period() string {
	if e.Month < 1 || e.Month > 12 {
		return fmt.Sprintf("%d/%d", e.Month, e.Year)
	}
	return fmt.Sprintf("%s %d", time.Month(e.Month).String(), e.Year)
}

// PeriodBounds returns the half-open [start, end) range of the enrollment month.
func (e *Enrollment) PeriodBounds() (time.Time, time.Time) {
	start := time.Date(e.Year, time.Month(e.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func IsReviewStatus(status string) bool {
	return status == EnrollmentApproved || status == EnrollmentRejected
}
