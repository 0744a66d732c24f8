package dto

import (
	"time"

	"lms/internal/model"
)

// EnrollmentCreateDTO is a student's enrollment request
type EnrollmentCreateDTO struct {
	Message  string  `json:"message"`
	Subject  string  `json:"subject"`
	Month    FlexInt `json:"month"`
	Year     FlexInt `json:"year"`
	ImageURL string  `json:"imageUrl"`
}

// Complete reports whether every required field is present.
func (r *EnrollmentCreateDTO) Complete() bool {
	return r.Message != "" && r.Subject != "" && r.Month != 0 && r.Year != 0 && r.ImageURL != ""
}

// EnrollmentUpdateDTO is an admin correction of a request
type EnrollmentUpdateDTO struct {
	Subject *string  `json:"subject,omitempty" validate:"omitempty,subject"`
	Month   *FlexInt `json:"month,omitempty"`
	Year    *FlexInt `json:"year,omitempty"`
	Message *string  `json:"message,omitempty" validate:"omitempty,max=1000"`
}

type EnrollmentStatusDTO struct {
	Status      string `json:"status"`
	ReviewNotes string `json:"reviewNotes,omitempty"`
}

type ReceiptUploadRequestDTO struct {
	Filename string `json:"filename" validate:"required"`
}

type ReceiptUploadResponseDTO struct {
	UploadURL   string    `json:"uploadUrl"`
	ImageURL    string    `json:"imageUrl"`
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ReceiptViewResponseDTO struct {
	URL string `json:"url"`
}

type EnrollmentResponseDTO struct {
	ID          string         `json:"_id"`
	User        *model.UserRef `json:"user"`
	Subject     string         `json:"subject"`
	Month       int            `json:"month"`
	Year        int            `json:"year"`
	Period      string         `json:"period"`
	Message     string         `json:"message"`
	ImageURL    string         `json:"imageUrl"`
	Status      string         `json:"status"`
	ReviewedBy  *model.UserRef `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time     `json:"reviewedAt,omitempty"`
	ReviewNotes string         `json:"reviewNotes,omitempty"`
	IsEditable  bool           `json:"isEditable"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func NewEnrollmentResponse(e *model.Enrollment) EnrollmentResponseDTO {
	return EnrollmentResponseDTO{
		ID:          e.ID,
		User:        e.User,
		Subject:     e.Subject,
		Month:       e.Month,
		Year:        e.Year,
		Period:      e.Period(),
		Message:     e.Message,
		ImageURL:    e.ImageURL,
		Status:      e.Status,
		ReviewedBy:  e.Reviewer,
		ReviewedAt:  e.ReviewedAt,
		ReviewNotes: e.ReviewNotes,
		IsEditable:  e.IsEditable,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func NewEnrollmentList(enrollments []model.Enrollment) []EnrollmentResponseDTO {
	out := make([]EnrollmentResponseDTO, 0, len(enrollments))
	for i := range enrollments {
		out = append(out, NewEnrollmentResponse(&enrollments[i]))
	}
	return out
}

type EnrollmentEnvelopeDTO struct {
	Message    string                `json:"message"`
	Enrollment EnrollmentResponseDTO `json:"enrollment"`
}

type CountResponseDTO struct {
	Count int `json:"count"`
}

type SuccessResponseDTO struct {
	Success bool `json:"success"`
}
