package dto

import "lms/internal/model"

// RegisterRequestDTO is used for incoming sign-ups
type RegisterRequestDTO struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	FirstName      string `json:"firstName" validate:"required"`
	LastName       string `json:"lastName" validate:"required"`
	Role           string `json:"role,omitempty" validate:"omitempty,oneof=admin student teacher"`
	IsBlocked      bool   `json:"isBlocked,omitempty"`
	Img            string `json:"img,omitempty"`
	Subject        string `json:"subject,omitempty"`
	UserExperience string `json:"userExperience,omitempty" validate:"omitempty,experience"`
}

// MissingFields lists the required registration fields left empty, in form order.
func (r *RegisterRequestDTO) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"firstName", r.FirstName},
		{"lastName", r.LastName},
		{"email", r.Email},
		{"password", r.Password},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdateDTO is a partial profile update
type UserUpdateDTO struct {
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Password       *string `json:"password,omitempty" validate:"omitempty,min=8"`
	FirstName      *string `json:"firstName,omitempty" validate:"omitempty,min=1"`
	LastName       *string `json:"lastName,omitempty" validate:"omitempty,min=1"`
	Role           *string `json:"role,omitempty" validate:"omitempty,oneof=admin student teacher"`
	IsBlocked      *bool   `json:"isBlocked,omitempty"`
	Img            *string `json:"img,omitempty"`
	Subject        *string `json:"subject,omitempty"`
	UserExperience *string `json:"userExperience,omitempty" validate:"omitempty,experience"`
}

// CurrentUserDTO is the compact profile returned by /users/me
type CurrentUserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Img       string `json:"img"`
}

func NewCurrentUser(u *model.User) CurrentUserDTO {
	return CurrentUserDTO{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Img:       u.Img,
	}
}

type UserEnvelopeDTO struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

type LoginResponseDTO struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

type UserDeletedDTO struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type SubjectsResponseDTO struct {
	AccessibleSubjects []string `json:"accessibleSubjects"`
}

type IsAdminResponseDTO struct {
	IsAdmin bool `json:"isAdmin"`
}
