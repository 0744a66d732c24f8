package model

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

const (
	DefaultUserImage = "https://example.com/default-user.png"
	passwordCost     = 12
)

// User represents an account in the system
type User struct {
	ID                 string    `db:"id" json:"_id"`
	Email              string    `db:"email" json:"email"`
	FirstName          string    `db:"first_name" json:"firstName"`
	LastName           string    `db:"last_name" json:"lastName"`
	PasswordHash       string    `db:"password" json:"-"`
	Role               string    `db:"role" json:"role"`
	IsBlocked          bool      `db:"is_blocked" json:"isBlocked"`
	Img                string    `db:"img" json:"img"`
	AccessibleSubjects []string  `db:"accessible_subjects" json:"accessibleSubjects"`
	Subject            string    `db:"subject" json:"subject"`
	UserExperience     string    `db:"user_experience" json:"userExperience"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

// UserRef is the populated subset of a user embedded in other resources.
type UserRef struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	Img       string `json:"img,omitempty"`
}

func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStudent || role == RoleTeacher
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// IsStaff reports whether the user may author sessions and notes.
func (u *User) IsStaff() bool { return u.IsAdmin() || u.IsTeacher() }

func (u *User) HasSubject(subject string) bool {
	for _, s := range u.AccessibleSubjects {
		if s == subject {
			return true
		}
	}
	return false
}

func (u *User) Ref() UserRef {
	return UserRef{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		Img:       u.Img,
	}
}
