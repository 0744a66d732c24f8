package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidPassword        = errors.New("invalid password")
	ErrPasswordTooShort       = errors.New("password must be at least 8 characters long")
	ErrAccountBlocked         = errors.New("account is blocked")
	ErrTooManyAttempts        = errors.New("too many failed login attempts")
	ErrRoleNotAllowed         = errors.New("only admins can create admin or teacher accounts")
	ErrNotProfileOwner        = errors.New("you can only update your own profile")
	ErrRoleChangeForbidden    = errors.New("only admin can change user roles")
	ErrBlockForbidden         = errors.New("only admin can block users")

	ErrSessionNotFound    = errors.New("session not found")
	ErrNotSessionOwner    = errors.New("not the owner of this session")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this session")
	ErrSessionCancelled   = errors.New("session is cancelled")
	ErrSessionFull        = errors.New("session is full")
	ErrNoteNotFound       = errors.New("note not found")
	ErrNotNoteOwner       = errors.New("not the owner of this note")
	ErrTeacherNotesDenied = errors.New("unauthorized to access these notes")

	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrEnrollmentPending  = errors.New("pending enrollment exists for this subject and period")
	ErrEnrollmentApproved = errors.New("already enrolled in this subject for the period")
	ErrEnrollmentConflict = errors.New("another active enrollment exists for this subject and period")
	ErrPastPeriod         = errors.New("cannot enroll for past months")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrReceiptNotFound    = errors.New("receipt not found")
	ErrUnsupportedReceipt = errors.New("unsupported receipt file type")
)

// ValidationError carries per-field messages for input the service rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PastPeriodError reports an enrollment period that has already ended.
type PastPeriodError struct {
	Month int
	Year  int
}

func (e *PastPeriodError) Error() string {
	return fmt.Sprintf("%s (%d/%d)", ErrPastPeriod, e.Month, e.Year)
}

func (e *PastPeriodError) Is(target error) bool {
	return target == ErrPastPeriod
}
