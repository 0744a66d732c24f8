package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lms/internal/api/v1/dto"
	"lms/internal/middleware"
	"lms/internal/model"
	"lms/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// EnrollmentHandler handles the receipt-based enrollment workflow
type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
	validate          *validator.Validate
}

func NewEnrollmentHandler(enrollmentService service.EnrollmentService, v *validator.Validate) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService, validate: v}
}

// RegisterRoutes mounts enrollment routes
func (h *EnrollmentHandler) RegisterRoutes(r chi.Router, authMw func(http.Handler) http.Handler) {
	adminOnly := middleware.RequireRole("Admin access required", model.RoleAdmin)

	r.Route("/enrollments", func(r chi.Router) {
		r.Use(authMw)
		r.Post("/receipt-upload-url", h.receiptUploadURL)
		r.Post("/enroll", h.submit)
		r.Get("/me", h.myEnrollments)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", h.listEnrollments)
			r.Get("/pending-count", h.pendingCount)
			r.Post("/clear-notifications", h.clearNotifications)
			r.Get("/export", h.export)
			r.Get("/{id}/receipt", h.receiptViewURL)
			r.Patch("/{id}/status", h.review)
			r.Put("/{id}", h.updateEnrollment)
			r.Delete("/{id}", h.deleteEnrollment)
		})
	})
}

// receiptUploadURL godoc
// @Summary Presign a receipt upload
// @Description Returns a short-lived PUT URL for the receipt image and the URL to submit as imageUrl.
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ReceiptUploadRequestDTO true "Receipt file name"
// @Success 200 {object} dto.ReceiptUploadResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Router /enrollments/receipt-upload-url [post]
func (h *EnrollmentHandler) receiptUploadURL(w http.ResponseWriter, r *http.Request) {
	var req dto.ReceiptUploadRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, h.validate, &req) {
		return
	}
	up, err := h.enrollmentService.ReceiptUploadURL(r.Context(), middleware.UserFromContext(r.Context()), req.Filename)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedReceipt) {
			writeMessage(w, http.StatusBadRequest, "Receipt must be a JPG, PNG, GIF or WEBP image")
			return
		}
		writeFailure(w, "Error creating upload URL", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ReceiptUploadResponseDTO{
		UploadURL:   up.UploadURL,
		ImageURL:    up.ImageURL,
		Key:         up.Key,
		ContentType: up.ContentType,
		ExpiresAt:   up.ExpiresAt,
	})
}

// submit godoc
// @Summary Request enrollment
// @Description Submits a payment receipt for a subject and month. The request stays pending until an admin reviews it.
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param enrollment body dto.EnrollmentCreateDTO true "Enrollment request"
// @Success 201 {object} dto.EnrollmentEnvelopeDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Router /enrollments/enroll [post]
func (h *EnrollmentHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req dto.EnrollmentCreateDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Complete() {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	e, err := h.enrollmentService.Submit(r.Context(), middleware.UserFromContext(r.Context()), service.EnrollmentInput{
		Subject:  req.Subject,
		Month:    int(req.Month),
		Year:     int(req.Year),
		Message:  req.Message,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		var past *service.PastPeriodError
		switch {
		case asValidation(w, err):
		case errors.As(err, &past):
			writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Cannot enroll for past months (%d/%d)", past.Month, past.Year))
		case errors.Is(err, service.ErrEnrollmentPending):
			writeMessage(w, http.StatusBadRequest, "You already have a pending enrollment for this subject and period")
		case errors.Is(err, service.ErrEnrollmentApproved):
			writeMessage(w, http.StatusBadRequest, "You're already enrolled in this subject for the selected period")
		default:
			writeFailure(w, "Error submitting enrollment", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, dto.EnrollmentEnvelopeDTO{Message: "Enrollment submitted successfully", Enrollment: dto.NewEnrollmentResponse(e)})
}

// myEnrollments godoc
// @Summary The caller's enrollments
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.EnrollmentResponseDTO
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) myEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.enrollmentService.ListForUser(r.Context(), middleware.UserFromContext(r.Context()).ID)
	if err != nil {
		writeFailure(w, "Error fetching enrollments", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewEnrollmentList(enrollments))
}

// listEnrollments godoc
// @Summary List enrollments
// @Description Newest first, with student and reviewer populated.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.EnrollmentResponseDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Router /enrollments [get]
func (h *EnrollmentHandler) listEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.enrollmentService.List(r.Context())
	if err != nil {
		writeFailure(w, "Error fetching enrollments", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewEnrollmentList(enrollments))
}

// pendingCount godoc
// @Summary Number of pending enrollments
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CountResponseDTO
// @Router /enrollments/pending-count [get]
func (h *EnrollmentHandler) pendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.enrollmentService.PendingCount(r.Context())
	if err != nil {
		writeFailure(w, "Error counting enrollments", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CountResponseDTO{Count: count})
}

// clearNotifications godoc
// @Summary Acknowledge enrollment notifications
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SuccessResponseDTO
// @Router /enrollments/clear-notifications [post]
func (h *EnrollmentHandler) clearNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.SuccessResponseDTO{Success: true})
}

// export godoc
// @Summary Export enrollments
// @Description Downloads every enrollment as an xlsx workbook.
// @Tags enrollments
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /enrollments/export [get]
func (h *EnrollmentHandler) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.enrollmentService.Export(r.Context(), &buf); err != nil {
		writeFailure(w, "Error exporting enrollments", err)
		return
	}
	filename := fmt.Sprintf("enrollments-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// receiptViewURL godoc
// @Summary Presign a receipt download
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} dto.ReceiptViewResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /enrollments/{id}/receipt [get]
func (h *EnrollmentHandler) receiptViewURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.enrollmentService.ReceiptViewURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound):
			writeMessage(w, http.StatusNotFound, "Enrollment not found")
		case errors.Is(err, service.ErrReceiptNotFound):
			writeMessage(w, http.StatusNotFound, "Receipt not found")
		default:
			writeFailure(w, "Error creating receipt URL", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.ReceiptViewResponseDTO{URL: url})
}

// review godoc
// @Summary Approve or reject an enrollment
// @Description Approval grants the subject and seats the student in that month's sessions. Rejection revokes the subject unless another approved enrollment covers it.
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param status body dto.EnrollmentStatusDTO true "Review decision"
// @Success 200 {object} dto.EnrollmentEnvelopeDTO
// @Failure 400 {object} dto.MessageResponseDTO "Invalid status"
// @Failure 404 {object} dto.MessageResponseDTO
// @Failure 409 {object} dto.MessageResponseDTO "Active enrollment exists for the period"
// @Router /enrollments/{id}/status [patch]
func (h *EnrollmentHandler) review(w http.ResponseWriter, r *http.Request) {
	var req dto.EnrollmentStatusDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.enrollmentService.Review(r.Context(), middleware.UserFromContext(r.Context()), chi.URLParam(r, "id"), req.Status, req.ReviewNotes)
	if err != nil {
		switch {
		case asValidation(w, err):
		case errors.Is(err, service.ErrInvalidStatus):
			writeMessage(w, http.StatusBadRequest, "Invalid status")
		case errors.Is(err, service.ErrEnrollmentNotFound):
			writeMessage(w, http.StatusNotFound, "Enrollment not found")
		case errors.Is(err, service.ErrEnrollmentConflict):
			writeMessage(w, http.StatusConflict, "The student already has an active enrollment for this subject and period")
		default:
			writeFailure(w, "Error updating enrollment status", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.EnrollmentEnvelopeDTO{
		Message:    fmt.Sprintf("Enrollment %s successfully", e.Status),
		Enrollment: dto.NewEnrollmentResponse(e),
	})
}

// updateEnrollment godoc
// @Summary Correct an enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param enrollment body dto.EnrollmentUpdateDTO true "Fields to change"
// @Success 200 {object} dto.EnrollmentEnvelopeDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /enrollments/{id} [put]
func (h *EnrollmentHandler) updateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req dto.EnrollmentUpdateDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, h.validate, &req) {
		return
	}
	in := service.EnrollmentUpdate{Subject: req.Subject, Message: req.Message}
	if req.Month != nil {
		m := int(*req.Month)
		in.Month = &m
	}
	if req.Year != nil {
		y := int(*req.Year)
		in.Year = &y
	}

	e, err := h.enrollmentService.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		switch {
		case asValidation(w, err):
		case errors.Is(err, service.ErrEnrollmentNotFound):
			writeMessage(w, http.StatusNotFound, "Enrollment not found")
		case errors.Is(err, service.ErrEnrollmentPending):
			writeMessage(w, http.StatusBadRequest, "An enrollment for this subject and period already exists")
		default:
			writeFailure(w, "Error updating enrollment", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.EnrollmentEnvelopeDTO{Message: "Enrollment updated successfully", Enrollment: dto.NewEnrollmentResponse(e)})
}

// deleteEnrollment godoc
// @Summary Delete an enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) deleteEnrollment(w http.ResponseWriter, r *http.Request) {
	if err := h.enrollmentService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, service.ErrEnrollmentNotFound) {
			writeMessage(w, http.StatusNotFound, "Enrollment not found")
			return
		}
		writeFailure(w, "Error deleting enrollment", err)
		return
	}
	writeMessage(w, http.StatusOK, "Enrollment deleted successfully")
}
