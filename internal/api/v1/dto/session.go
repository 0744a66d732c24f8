package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lms/internal/model"
)

// Date is a calendar day encoded as "2006-01-02". Full RFC 3339 timestamps
// are accepted on input and truncated to their date.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(model.DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

// SessionCreateDTO is used for incoming session creation requests
type SessionCreateDTO struct {
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        Date   `json:"date" validate:"required"`
	StartTime   string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime     string `json:"endTime" validate:"required,datetime=15:04"`
	MaxStudents int    `json:"maxStudents" validate:"required,min=1"`
	Link        string `json:"link" validate:"required"`
	Code        string `json:"code" validate:"required"`
}

// SessionUpdateDTO is a partial session update
type SessionUpdateDTO struct {
	Subject     *string `json:"subject,omitempty" validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
	Date        *Date   `json:"date,omitempty"`
	StartTime   *string `json:"startTime,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime     *string `json:"endTime,omitempty" validate:"omitempty,datetime=15:04"`
	MaxStudents *int    `json:"maxStudents,omitempty" validate:"omitempty,min=1"`
	Link        *string `json:"link,omitempty"`
	Code        *string `json:"code,omitempty"`
	IsCancelled *bool   `json:"isCancelled,omitempty"`
}

// SessionResponseDTO is returned in API responses for sessions. Students is
// only present on the teacher's own listing.
type SessionResponseDTO struct {
	ID               string          `json:"_id"`
	Subject          string          `json:"subject"`
	Description      string          `json:"description"`
	Date             Date            `json:"date"`
	StartTime        string          `json:"startTime"`
	EndTime          string          `json:"endTime"`
	MaxStudents      int             `json:"maxStudents"`
	Link             string          `json:"link"`
	Code             string          `json:"code"`
	Teacher          model.UserRef   `json:"teacher"`
	EnrolledStudents []string        `json:"enrolledStudents"`
	Students         []model.UserRef `json:"students,omitempty"`
	IsCancelled      bool            `json:"isCancelled"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func NewSessionResponse(s *model.Session) SessionResponseDTO {
	enrolled := s.EnrolledStudents
	if enrolled == nil {
		enrolled = []string{}
	}
	return SessionResponseDTO{
		ID:               s.ID,
		Subject:          s.Subject,
		Description:      s.Description,
		Date:             Date{s.Date},
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		MaxStudents:      s.MaxStudents,
		Link:             s.Link,
		Code:             s.Code,
		Teacher:          s.Teacher,
		EnrolledStudents: enrolled,
		Students:         s.Students,
		IsCancelled:      s.IsCancelled,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func NewSessionList(sessions []model.Session) []SessionResponseDTO {
	out := make([]SessionResponseDTO, 0, len(sessions))
	for i := range sessions {
		out = append(out, NewSessionResponse(&sessions[i]))
	}
	return out
}

type SessionEnvelopeDTO struct {
	Message string             `json:"message"`
	Session SessionResponseDTO `json:"session"`
}
