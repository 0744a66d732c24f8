package report

import (
	"bytes"
	"testing"
	"time"

	"lms/internal/model"

	"github.com/xuri/excelize/v2"
)

func TestWriteEnrollments(t *testing.T) {
	reviewedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	enrollments := []model.Enrollment{
		{
			ID:         "e1",
			Subject:    "Maths",
			Month:      3,
			Year:       2026,
			Status:     model.EnrollmentApproved,
			Message:    "paid at the bank",
			ImageURL:   "https://bucket.example.com/receipts/u1/r.png",
			ReviewedAt: &reviewedAt,
			CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			User:       &model.UserRef{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			Reviewer:   &model.UserRef{ID: "a1", FirstName: "Grace", LastName: "Hopper"},
		},
		{
			ID:        "e2",
			Subject:   "Physics",
			Month:     4,
			Year:      2026,
			Status:    model.EnrollmentPending,
			CreatedAt: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteEnrollments(&buf, enrollments); err != nil {
		t.Fatalf("WriteEnrollments returned error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(EnrollmentSheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Student" || rows[0][4] != "Status" {
		t.Errorf("unexpected header %v", rows[0])
	}

	first := rows[1]
	if first[0] != "Ada Lovelace" || first[1] != "ada@example.com" {
		t.Errorf("unexpected student cells %v", first[:2])
	}
	if first[3] != "March 2026" {
		t.Errorf("expected period 'March 2026', got %q", first[3])
	}
	if first[6] != "Grace Hopper" {
		t.Errorf("expected reviewer 'Grace Hopper', got %q", first[6])
	}
	if first[7] != "2026-03-02T10:00:00Z" {
		t.Errorf("unexpected reviewedAt %q", first[7])
	}

	second := rows[2]
	if second[2] != "Physics" || second[4] != model.EnrollmentPending {
		t.Errorf("unexpected second row %v", second)
	}
}

func TestWriteEnrollmentsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEnrollments(&buf, nil); err != nil {
		t.Fatalf("WriteEnrollments returned error: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(EnrollmentSheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
