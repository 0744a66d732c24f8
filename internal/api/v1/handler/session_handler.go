package handler

import (
	"errors"
	"net/http"
	"time"

	"lms/internal/api/v1/dto"
	"lms/internal/middleware"
	"lms/internal/model"
	"lms/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// SessionHandler handles session scheduling and seat enrollment
type SessionHandler struct {
	sessionService service.SessionService
	validate       *validator.Validate
}

func NewSessionHandler(sessionService service.SessionService, v *validator.Validate) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, validate: v}
}

// RegisterRoutes mounts session routes. subjectMw guards the {subject} listing.
func (h *SessionHandler) RegisterRoutes(r chi.Router, authMw, optionalAuthMw, subjectMw func(http.Handler) http.Handler) {
	r.Route("/sessions", func(r chi.Router) {
		r.With(optionalAuthMw).Get("/", h.listSessions)

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.With(middleware.RequireRole("Only admins and teachers can create sessions", model.RoleAdmin, model.RoleTeacher)).
				Post("/", h.createSession)
			r.With(middleware.RequireRole("Teacher access required", model.RoleAdmin, model.RoleTeacher)).
				Get("/teacher/me", h.teacherSessions)
			r.With(middleware.RequireRole("Student access required", model.RoleStudent)).
				Get("/student/me", h.studentSessions)
			r.With(subjectMw).Get("/subjects/{subject}", h.sessionsBySubject)
			r.Put("/{id}", h.updateSession)
			r.Delete("/{id}", h.deleteSession)
			r.With(middleware.RequireRole("Only students can enroll in sessions", model.RoleStudent)).
				Post("/{id}/enroll", h.enroll)
			r.With(middleware.RequireRole("Only students can withdraw from sessions", model.RoleStudent)).
				Delete("/{id}/enroll", h.withdraw)
		})

		r.With(optionalAuthMw).Get("/{id}", h.getSession)
	})
}

// listSessions godoc
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Success 200 {array} dto.SessionResponseDTO
// @Router /sessions [get]
func (h *SessionHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionService.List(r.Context())
	if err != nil {
		writeFailure(w, "Error fetching sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSessionList(sessions))
}

// getSession godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /sessions/{id} [get]
func (h *SessionHandler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Error fetching session")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSessionResponse(session))
}

// createSession godoc
// @Summary Create a session
// @Description The caller becomes the session's teacher.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body dto.SessionCreateDTO true "Session creation request"
// @Success 201 {object} dto.SessionEnvelopeDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Router /sessions [post]
func (h *SessionHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req dto.SessionCreateDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, h.validate, &req) {
		return
	}

	session, err := h.sessionService.Create(r.Context(), middleware.UserFromContext(r.Context()), service.SessionInput{
		Subject:     req.Subject,
		Description: req.Description,
		Date:        req.Date.Time,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxStudents: req.MaxStudents,
		Link:        req.Link,
		Code:        req.Code,
	})
	if err != nil {
		h.writeError(w, err, "Error creating session")
		return
	}
	writeJSON(w, http.StatusCreated, dto.SessionEnvelopeDTO{Message: "Session created successfully", Session: dto.NewSessionResponse(session)})
}

// updateSession godoc
// @Summary Update a session
// @Description Partial update by the owning teacher or an admin.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param session body dto.SessionUpdateDTO true "Fields to change"
// @Success 200 {object} dto.SessionEnvelopeDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /sessions/{id} [put]
func (h *SessionHandler) updateSession(w http.ResponseWriter, r *http.Request) {
	var req dto.SessionUpdateDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, h.validate, &req) {
		return
	}
	var date *time.Time
	if req.Date != nil {
		date = &req.Date.Time
	}

	session, err := h.sessionService.Update(r.Context(), middleware.UserFromContext(r.Context()), chi.URLParam(r, "id"), service.SessionUpdate{
		Subject:     req.Subject,
		Description: req.Description,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxStudents: req.MaxStudents,
		Link:        req.Link,
		Code:        req.Code,
		IsCancelled: req.IsCancelled,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotSessionOwner) {
			writeMessage(w, http.StatusForbidden, "You can only update your own sessions")
			return
		}
		h.writeError(w, err, "Error updating session")
		return
	}
	writeJSON(w, http.StatusOK, dto.SessionEnvelopeDTO{Message: "Session updated successfully", Session: dto.NewSessionResponse(session)})
}

// deleteSession godoc
// @Summary Delete a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /sessions/{id} [delete]
func (h *SessionHandler) deleteSession(w http.ResponseWriter, r *http.Request) {
	err := h.sessionService.Delete(r.Context(), middleware.UserFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrNotSessionOwner) {
			writeMessage(w, http.StatusForbidden, "You can only delete your own sessions")
			return
		}
		h.writeError(w, err, "Error deleting session")
		return
	}
	writeMessage(w, http.StatusOK, "Session deleted successfully")
}

// enroll godoc
// @Summary Take a seat in a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionEnvelopeDTO
// @Failure 400 {object} dto.MessageResponseDTO "Already enrolled or session cancelled"
// @Failure 404 {object} dto.MessageResponseDTO
// @Failure 409 {object} dto.MessageResponseDTO "Session is full"
// @Router /sessions/{id}/enroll [post]
func (h *SessionHandler) enroll(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionService.Enroll(r.Context(), middleware.UserFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Error enrolling in session")
		return
	}
	writeJSON(w, http.StatusOK, dto.SessionEnvelopeDTO{Message: "Enrolled successfully", Session: dto.NewSessionResponse(session)})
}

// withdraw godoc
// @Summary Give up a seat in a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionEnvelopeDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /sessions/{id}/enroll [delete]
func (h *SessionHandler) withdraw(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionService.Withdraw(r.Context(), middleware.UserFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Error withdrawing from session")
		return
	}
	writeJSON(w, http.StatusOK, dto.SessionEnvelopeDTO{Message: "Withdrawn successfully", Session: dto.NewSessionResponse(session)})
}

// teacherSessions godoc
// @Summary Sessions taught by the caller
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.SessionResponseDTO
// @Router /sessions/teacher/me [get]
func (h *SessionHandler) teacherSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionService.ListForTeacher(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeFailure(w, "Error fetching teacher sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSessionList(sessions))
}

// studentSessions godoc
// @Summary Sessions the caller is enrolled in
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.SessionResponseDTO
// @Router /sessions/student/me [get]
func (h *SessionHandler) studentSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionService.ListForStudent(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeFailure(w, "Error fetching student sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSessionList(sessions))
}

// sessionsBySubject godoc
// @Summary Sessions of a subject
// @Description Requires an approved enrollment for the subject unless the caller is an admin.
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param subject path string true "Subject"
// @Success 200 {array} dto.SessionResponseDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Router /sessions/subjects/{subject} [get]
func (h *SessionHandler) sessionsBySubject(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionService.ListBySubject(r.Context(), SubjectParam(r))
	if err != nil {
		writeFailure(w, "Error fetching sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSessionList(sessions))
}

func (h *SessionHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case asValidation(w, err):
	case errors.Is(err, service.ErrSessionNotFound):
		writeMessage(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrNotSessionOwner):
		writeMessage(w, http.StatusForbidden, "You can only manage your own sessions")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		writeMessage(w, http.StatusBadRequest, "Already enrolled in this session")
	case errors.Is(err, service.ErrSessionCancelled):
		writeMessage(w, http.StatusBadRequest, "Cannot enroll in a cancelled session")
	case errors.Is(err, service.ErrSessionFull):
		writeMessage(w, http.StatusConflict, "Session is full")
	default:
		writeFailure(w, fallback, err)
	}
}
