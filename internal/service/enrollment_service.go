package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"lms/internal/mail"
	"lms/internal/model"
	"lms/internal/pubsub"
	"lms/internal/report"
	"lms/internal/repository"
	"lms/internal/validation"

	"github.com/rs/zerolog"
)

const (
	EventEnrollmentSubmitted = "enrollment.submitted"
	EventEnrollmentReviewed  = "enrollment.reviewed"
)

// EnrollmentInput is a student's enrollment request.
type EnrollmentInput struct {
	Subject  string
	Month    int
	Year     int
	Message  string
	ImageURL string
}

// EnrollmentUpdate is an admin correction. Nil fields are left unchanged.
type EnrollmentUpdate struct {
	Subject *string
	Month   *int
	Year    *int
	Message *string
}

// EnrollmentEvent is published on the enrollment topic.
type EnrollmentEvent struct {
	Event        string    `json:"event"`
	EnrollmentID string    `json:"enrollmentId"`
	UserID       string    `json:"userId"`
	Subject      string    `json:"subject"`
	Month        int       `json:"month"`
	Year         int       `json:"year"`
	Status       string    `json:"status"`
	ReviewedBy   string    `json:"reviewedBy,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

type EnrollmentService interface {
	Submit(ctx context.Context, student *model.User, in EnrollmentInput) (*model.Enrollment, error)
	List(ctx context.Context) ([]model.Enrollment, error)
	ListForUser(ctx context.Context, userID string) ([]model.Enrollment, error)
	Get(ctx context.Context, id string) (*model.Enrollment, error)
	// Review approves or rejects an enrollment and applies the access changes.
	Review(ctx context.Context, reviewer *model.User, id, status, notes string) (*model.Enrollment, error)
	Update(ctx context.Context, id string, in EnrollmentUpdate) (*model.Enrollment, error)
	Delete(ctx context.Context, id string) error
	PendingCount(ctx context.Context) (int, error)
	Export(ctx context.Context, w io.Writer) error
	HasSubjectAccess(ctx context.Context, u *model.User, subject string) (bool, error)
	ReceiptUploadURL(ctx context.Context, student *model.User, filename string) (*ReceiptUpload, error)
	ReceiptViewURL(ctx context.Context, id string) (string, error)
}

type enrollmentService struct {
	repo      repository.EnrollmentRepository
	receipts  ReceiptService
	publisher pubsub.Publisher
	topic     string
	mailer    mail.Sender
	now       func() time.Time
	logger    zerolog.Logger
}

func NewEnrollmentService(
	repo repository.EnrollmentRepository,
	receipts ReceiptService,
	publisher pubsub.Publisher,
	topic string,
	mailer mail.Sender,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		receipts:  receipts,
		publisher: publisher,
		topic:     topic,
		mailer:    mailer,
		now:       time.Now,
		logger:    logger.With().Str("service", "EnrollmentService").Logger(),
	}
}

func (s *enrollmentService) validate(subject string, month, year int, message, imageURL string) error {
	verr := &ValidationError{}
	if !model.IsValidSubject(subject) {
		verr.add("subject", "Invalid subject selected")
	}
	if month < 1 || month > 12 {
		verr.add("month", "Month must be between 1-12")
	}
	current := s.now().Year()
	if year < current {
		verr.add("year", fmt.Sprintf("Year cannot be before %d", current))
	} else if year > current+model.MaxYearsAhead {
		verr.add("year", fmt.Sprintf("Year cannot be after %d", current+model.MaxYearsAhead))
	}
	if strings.TrimSpace(message) == "" {
		verr.add("message", "Message is required")
	} else if len([]rune(message)) > model.MaxEnrollmentMessage {
		verr.add("message", fmt.Sprintf("Message cannot exceed %d characters", model.MaxEnrollmentMessage))
	}
	if !validation.IsImageURL(imageURL) {
		verr.add("imageUrl", fmt.Sprintf("%s is not a valid image URL!", imageURL))
	}
	return verr.orNil()
}

func (s *enrollmentService) Submit(ctx context.Context, student *model.User, in EnrollmentInput) (*model.Enrollment, error) {
	in.Message = strings.TrimSpace(in.Message)
	in.Subject = strings.TrimSpace(in.Subject)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := s.validate(in.Subject, in.Month, in.Year, in.Message, in.ImageURL); err != nil {
		return nil, err
	}
	now := s.now()
	if in.Year == now.Year() && in.Month < int(now.Month()) {
		return nil, &PastPeriodError{Month: in.Month, Year: in.Year}
	}

	existing, err := s.repo.FindActiveEnrollment(ctx, student.ID, in.Subject, in.Month, in.Year)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, activeEnrollmentError(existing)
	}

	e := &model.Enrollment{
		UserID:   student.ID,
		Subject:  in.Subject,
		Month:    in.Month,
		Year:     in.Year,
		Message:  in.Message,
		ImageURL: in.ImageURL,
		Status:   model.EnrollmentPending,
	}
	if err := s.repo.CreateEnrollment(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent submission for the same period won.
			return nil, ErrEnrollmentPending
		}
		return nil, err
	}

	s.logger.Info().
		Str("enrollment_id", e.ID).
		Str("user_id", student.ID).
		Str("subject", e.Subject).
		Str("period", e.Period()).
		Msg("Enrollment submitted")
	s.publish(ctx, EventEnrollmentSubmitted, e, "")
	return e, nil
}

func activeEnrollmentError(e *model.Enrollment) error {
	if e.Status == model.EnrollmentPending {
		return ErrEnrollmentPending
	}
	return ErrEnrollmentApproved
}

func (s *enrollmentService) List(ctx context.Context) ([]model.Enrollment, error) {
	return s.repo.ListEnrollments(ctx, repository.EnrollmentFilter{})
}

func (s *enrollmentService) ListForUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return s.repo.ListEnrollments(ctx, repository.EnrollmentFilter{UserID: userID})
}

func (s *enrollmentService) Get(ctx context.Context, id string) (*model.Enrollment, error) {
	e, err := s.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEnrollmentNotFound
	}
	return e, nil
}

func (s *enrollmentService) Review(ctx context.Context, reviewer *model.User, id, status, notes string) (*model.Enrollment, error) {
	if !model.IsReviewStatus(status) {
		return nil, ErrInvalidStatus
	}
	notes = strings.TrimSpace(notes)
	if len([]rune(notes)) > model.MaxReviewNotes {
		return nil, &ValidationError{Fields: map[string]string{
			"reviewNotes": fmt.Sprintf("Review notes cannot exceed %d characters", model.MaxReviewNotes),
		}}
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var (
		result *repository.ReviewResult
		err    error
	)
	if status == model.EnrollmentApproved {
		result, err = s.repo.ApproveEnrollment(ctx, id, reviewer.ID, notes)
	} else {
		result, err = s.repo.RejectEnrollment(ctx, id, reviewer.ID, notes)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// The student resubmitted the period after this request was rejected.
			return nil, ErrEnrollmentConflict
		}
		return nil, err
	}
	if result == nil {
		return nil, ErrEnrollmentNotFound
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("enrollment_id", id).
		Str("status", status).
		Str("reviewer_id", reviewer.ID).
		Bool("subject_granted", result.SubjectGranted).
		Bool("subject_revoked", result.SubjectRevoked).
		Int64("sessions_joined", result.SessionsJoined).
		Msg("Enrollment reviewed")

	s.publish(ctx, EventEnrollmentReviewed, e, reviewer.ID)
	s.notifyReviewed(ctx, e)
	return e, nil
}

func (s *enrollmentService) Update(ctx context.Context, id string, in EnrollmentUpdate) (*model.Enrollment, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Subject != nil {
		e.Subject = strings.TrimSpace(*in.Subject)
	}
	if in.Month != nil {
		e.Month = *in.Month
	}
	if in.Year != nil {
		e.Year = *in.Year
	}
	if in.Message != nil {
		e.Message = strings.TrimSpace(*in.Message)
	}
	if err := s.validate(e.Subject, e.Month, e.Year, e.Message, e.ImageURL); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEnrollment(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEnrollmentPending
		}
		return nil, err
	}
	return e, nil
}

func (s *enrollmentService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteEnrollment(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEnrollmentNotFound
	}
	return nil
}

func (s *enrollmentService) PendingCount(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, model.EnrollmentPending)
}

func (s *enrollmentService) Export(ctx context.Context, w io.Writer) error {
	enrollments, err := s.List(ctx)
	if err != nil {
		return err
	}
	return report.WriteEnrollments(w, enrollments)
}

func (s *enrollmentService) HasSubjectAccess(ctx context.Context, u *model.User, subject string) (bool, error) {
	if u.IsAdmin() {
		return true, nil
	}
	return s.repo.HasApprovedEnrollment(ctx, u.ID, subject)
}

func (s *enrollmentService) ReceiptUploadURL(ctx context.Context, student *model.User, filename string) (*ReceiptUpload, error) {
	return s.receipts.UploadURL(ctx, student.ID, filename)
}

func (s *enrollmentService) ReceiptViewURL(ctx context.Context, id string) (string, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if e.ImageURL == "" {
		return "", ErrReceiptNotFound
	}
	return s.receipts.ViewURL(ctx, e.ImageURL)
}

// publish is best effort; a broker outage never fails the request.
func (s *enrollmentService) publish(ctx context.Context, event string, e *model.Enrollment, reviewerID string) {
	if s.publisher == nil {
		return
	}
	msg := EnrollmentEvent{
		Event:        event,
		EnrollmentID: e.ID,
		UserID:       e.UserID,
		Subject:      e.Subject,
		Month:        e.Month,
		Year:         e.Year,
		Status:       e.Status,
		ReviewedBy:   reviewerID,
		OccurredAt:   s.now().UTC(),
	}
	if _, err := pubsub.PublishJSON(ctx, s.publisher, s.topic, msg); err != nil {
		s.logger.Error().Err(err).Str("event", event).Str("enrollment_id", e.ID).Msg("Failed to publish enrollment event")
	}
}

func (s *enrollmentService) notifyReviewed(ctx context.Context, e *model.Enrollment) {
	if s.mailer == nil || e.User == nil || e.User.Email == "" {
		return
	}
	text := fmt.Sprintf("Hi %s,\n\nYour enrollment for %s (%s) was %s.",
		e.User.FirstName, e.Subject, e.Period(), e.Status)
	if e.ReviewNotes != "" {
		text += "\n\nReviewer notes: " + e.ReviewNotes
	}
	msg := mail.Message{
		ToName:  strings.TrimSpace(e.User.FirstName + " " + e.User.LastName),
		ToEmail: e.User.Email,
		Subject: fmt.Sprintf("Enrollment %s: %s %s", e.Status, e.Subject, e.Period()),
		Text:    text,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("enrollment_id", e.ID).Msg("Failed to send review email")
	}
}
