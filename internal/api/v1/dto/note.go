package dto

import (
	"time"

	"lms/internal/model"
)

// NoteRequestDTO is used for note creation and full updates
type NoteRequestDTO struct {
	Subject       string `json:"subject" validate:"required"`
	Title         string `json:"title" validate:"required"`
	Caption       string `json:"caption" validate:"required"`
	SubjectCode   string `json:"subjectCode" validate:"required"`
	ClassroomLink string `json:"classroomLink,omitempty" validate:"omitempty,url"`
}

type NoteResponseDTO struct {
	ID            string        `json:"_id"`
	Subject       string        `json:"subject"`
	Title         string        `json:"title"`
	Caption       string        `json:"caption"`
	SubjectCode   string        `json:"subjectCode"`
	ClassroomLink string        `json:"classroomLink,omitempty"`
	CreatedBy     model.UserRef `json:"createdBy"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func NewNoteResponse(n *model.Note) NoteResponseDTO {
	return NoteResponseDTO{
		ID:            n.ID,
		Subject:       n.Subject,
		Title:         n.Title,
		Caption:       n.Caption,
		SubjectCode:   n.SubjectCode,
		ClassroomLink: n.ClassroomLink,
		CreatedBy:     n.Author,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

func NewNoteList(notes []model.Note) []NoteResponseDTO {
	out := make([]NoteResponseDTO, 0, len(notes))
	for i := range notes {
		out = append(out, NewNoteResponse(&notes[i]))
	}
	return out
}

type NoteEnvelopeDTO struct {
	Message string          `json:"message"`
	Note    NoteResponseDTO `json:"note"`
}
