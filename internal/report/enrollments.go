package report

import (
	"fmt"
	"io"
	"time"

	"lms/internal/model"

	"github.com/xuri/excelize/v2"
)

const EnrollmentSheet = "Enrollments"

var enrollmentHeader = []any{
	"Student", "Email", "Subject", "Period", "Status",
	"Submitted", "Reviewed By", "Reviewed At", "Review Notes", "Message", "Receipt",
}

// WriteEnrollments renders enrollments as an xlsx workbook with one row per request.
func WriteEnrollments(w io.Writer, enrollments []model.Enrollment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EnrollmentSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(EnrollmentSheet, "A1", &enrollmentHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(EnrollmentSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, e := range enrollments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := enrollmentRow(e)
		if err := f.SetSheetRow(EnrollmentSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(EnrollmentSheet, "A", "K", 20); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func enrollmentRow(e model.Enrollment) []any {
	var student, email, reviewer, reviewedAt string
	if e.User != nil {
		student = e.User.FirstName + " " + e.User.LastName
		email = e.User.Email
	}
	if e.Reviewer != nil {
		reviewer = e.Reviewer.FirstName + " " + e.Reviewer.LastName
	}
	if e.ReviewedAt != nil {
		reviewedAt = e.ReviewedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		student,
		email,
		e.Subject,
		e.Period(),
		e.Status,
		e.CreatedAt.UTC().Format(time.RFC3339),
		reviewer,
		reviewedAt,
		e.ReviewNotes,
		e.Message,
		e.ImageURL,
	}
}
