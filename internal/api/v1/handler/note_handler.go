package handler

import (
	"errors"
	"net/http"

	"lms/internal/api/v1/dto"
	"lms/internal/middleware"
	"lms/internal/model"
	"lms/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// NoteHandler handles study material endpoints
type NoteHandler struct {
	noteService service.NoteService
	validate    *validator.Validate
}

func NewNoteHandler(noteService service.NoteService, v *validator.Validate) *NoteHandler {
	return &NoteHandler{noteService: noteService, validate: v}
}

// RegisterRoutes mounts note routes
func (h *NoteHandler) RegisterRoutes(r chi.Router, authMw, optionalAuthMw, subjectMw func(http.Handler) http.Handler) {
	r.Route("/notes", func(r chi.Router) {
		r.With(optionalAuthMw).Get("/", h.listNotes)
		r.With(optionalAuthMw).Get("/{id}", h.getNote)

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.With(middleware.RequireRole("Only admins and teachers can create notes", model.RoleAdmin, model.RoleTeacher)).
				Post("/", h.createNote)
			r.Put("/{id}", h.updateNote)
			r.Delete("/{id}", h.deleteNote)
			r.Get("/teacher/{teacherId}", h.notesByTeacher)
			r.With(subjectMw).Get("/subjects/{subject}", h.notesBySubject)
		})
	})
}

// listNotes godoc
// @Summary List notes
// @Tags notes
// @Produce json
// @Success 200 {array} dto.NoteResponseDTO
// @Router /notes [get]
func (h *NoteHandler) listNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.List(r.Context())
	if err != nil {
		writeFailure(w, "Error fetching notes", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewNoteList(notes))
}

// getNote godoc
// @Summary Get a note
// @Tags notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} dto.NoteResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /notes/{id} [get]
func (h *NoteHandler) getNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.noteService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			writeMessage(w, http.StatusNotFound, "Note not found")
			return
		}
		writeFailure(w, "Error fetching note", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewNoteResponse(note))
}

// createNote godoc
// @Summary Create a note
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param note body dto.NoteRequestDTO true "Note"
// @Success 201 {object} dto.NoteEnvelopeDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Router /notes [post]
func (h *NoteHandler) createNote(w http.ResponseWriter, r *http.Request) {
	var req dto.NoteRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, h.validate, &req) {
		return
	}
	note, err := h.noteService.Create(r.Context(), middleware.UserFromContext(r.Context()), noteInput(req))
	if err != nil {
		writeFailure(w, "Error creating note", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NoteEnvelopeDTO{Message: "Note created successfully", Note: dto.NewNoteResponse(note)})
}

// updateNote godoc
// @Summary Replace a note
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Param note body dto.NoteRequestDTO true "Note"
// @Success 200 {object} dto.NoteEnvelopeDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /notes/{id} [put]
func (h *NoteHandler) updateNote(w http.ResponseWriter, r *http.Request) {
	var req dto.NoteRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, h.validate, &req) {
		return
	}
	note, err := h.noteService.Update(r.Context(), middleware.UserFromContext(r.Context()), chi.URLParam(r, "id"), noteInput(req))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoteNotFound):
			writeMessage(w, http.StatusNotFound, "Note not found")
		case errors.Is(err, service.ErrNotNoteOwner):
			writeMessage(w, http.StatusForbidden, "You can only update your own notes")
		default:
			writeFailure(w, "Error updating note", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.NoteEnvelopeDTO{Message: "Note updated successfully", Note: dto.NewNoteResponse(note)})
}

// deleteNote godoc
// @Summary Delete a note
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /notes/{id} [delete]
func (h *NoteHandler) deleteNote(w http.ResponseWriter, r *http.Request) {
	err := h.noteService.Delete(r.Context(), middleware.UserFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoteNotFound):
			writeMessage(w, http.StatusNotFound, "Note not found")
		case errors.Is(err, service.ErrNotNoteOwner):
			writeMessage(w, http.StatusForbidden, "You can only delete your own notes")
		default:
			writeFailure(w, "Error deleting note", err)
		}
		return
	}
	writeMessage(w, http.StatusOK, "Note deleted successfully")
}

// notesByTeacher godoc
// @Summary Notes written by a teacher
// @Description Teachers can list their own notes; admins can list anyone's.
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Success 200 {array} dto.NoteResponseDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /notes/teacher/{teacherId} [get]
func (h *NoteHandler) notesByTeacher(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.ListByTeacher(r.Context(), middleware.UserFromContext(r.Context()), chi.URLParam(r, "teacherId"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTeacherNotesDenied):
			writeMessage(w, http.StatusForbidden, "Unauthorized to access these notes")
		case errors.Is(err, service.ErrNoteNotFound):
			writeMessage(w, http.StatusNotFound, "No notes found for this teacher")
		default:
			writeFailure(w, "Error fetching notes", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.NewNoteList(notes))
}

// notesBySubject godoc
// @Summary Notes of a subject
// @Description Requires an approved enrollment for the subject unless the caller is an admin.
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param subject path string true "Subject"
// @Success 200 {array} dto.NoteResponseDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Router /notes/subjects/{subject} [get]
func (h *NoteHandler) notesBySubject(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.ListBySubject(r.Context(), SubjectParam(r))
	if err != nil {
		writeFailure(w, "Error fetching notes", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewNoteList(notes))
}

func noteInput(req dto.NoteRequestDTO) service.NoteInput {
	return service.NoteInput{
		Subject:       req.Subject,
		Title:         req.Title,
		Caption:       req.Caption,
		SubjectCode:   req.SubjectCode,
		ClassroomLink: req.ClassroomLink,
	}
}
