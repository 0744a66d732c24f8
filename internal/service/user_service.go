package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lms/internal/model"
	"lms/internal/repository"
	"lms/internal/throttle"
	"lms/internal/util"

	"github.com/rs/zerolog"
)

const minPasswordLength = 8

// RegisterInput holds the fields of a new account. Empty optional fields
// fall back to their defaults.
type RegisterInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           string
	IsBlocked      bool
	Img            string
	Subject        string
	UserExperience string
}

// UserUpdate is a partial profile update. Nil fields are left unchanged.
type UserUpdate struct {
	Email          *string
	Password       *string
	FirstName      *string
	LastName       *string
	Role           *string
	IsBlocked      *bool
	Img            *string
	Subject        *string
	UserExperience *string
}

type UserService interface {
	// Register creates an account. actor is nil for anonymous sign-ups.
	Register(ctx context.Context, actor *model.User, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, actor *model.User, id string, in UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id string) error
	Subjects(ctx context.Context, id string) ([]string, error)
}

type userService struct {
	userRepo  repository.UserRepository
	limiter   throttle.Limiter
	jwtSecret string
	jwtTTL    time.Duration
	logger    zerolog.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	limiter throttle.Limiter,
	jwtSecret string,
	jwtTTL time.Duration,
	logger zerolog.Logger,
) UserService {
	if limiter == nil {
		limiter = throttle.Noop()
	}
	return &userService{
		userRepo:  userRepo,
		limiter:   limiter,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		logger:    logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) Register(ctx context.Context, actor *model.User, in RegisterInput) (*model.User, error) {
	role := in.Role
	if role == "" {
		role = model.RoleStudent
	}
	verr := &ValidationError{}
	if !model.IsValidRole(role) {
		verr.add("role", "Invalid role")
	}
	if in.Subject != "" && !model.IsValidTeachingSubject(in.Subject) {
		verr.add("subject", "Invalid subject")
	}
	if in.UserExperience != "" && !model.IsValidExperience(in.UserExperience) {
		verr.add("userExperience", "Invalid experience level")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	email := model.NormalizeEmail(in.Email)
	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	callerIsAdmin := actor != nil && actor.IsAdmin()
	if role != model.RoleStudent && !callerIsAdmin {
		return nil, ErrRoleNotAllowed
	}
	if in.IsBlocked && !callerIsAdmin {
		return nil, ErrBlockForbidden
	}

	u := &model.User{
		Email:          email,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           role,
		IsBlocked:      in.IsBlocked,
		Img:            orDefault(in.Img, model.DefaultUserImage),
		Subject:        orDefault(in.Subject, model.SubjectOther),
		UserExperience: orDefault(in.UserExperience, model.DefaultExperience),
	}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("User registered")
	return u, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = model.NormalizeEmail(email)

	blocked, err := s.limiter.Blocked(ctx, email)
	if err != nil {
		// A throttle outage must not lock everyone out.
		s.logger.Warn().Err(err).Msg("Login throttle unavailable")
	}
	if blocked {
		return nil, "", ErrTooManyAttempts
	}

	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		s.recordFailure(ctx, email)
		return nil, "", ErrUserNotFound
	}
	if !u.CheckPassword(password) {
		s.recordFailure(ctx, email)
		return nil, "", ErrInvalidPassword
	}
	if u.IsBlocked {
		return nil, "", ErrAccountBlocked
	}
	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to reset login attempts")
	}

	token, err := util.GenerateJWT(u, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return u, token, nil
}

func (s *userService) recordFailure(ctx context.Context, email string) {
	n, err := s.limiter.Fail(ctx, email)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record login attempt")
		return
	}
	if n > 0 {
		s.logger.Debug().Int64("attempts", n).Msg("Failed login attempt")
	}
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.ListUsers(ctx)
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) Update(ctx context.Context, actor *model.User, id string, in UserUpdate) (*model.User, error) {
	if actor.ID != id && !actor.IsAdmin() {
		return nil, ErrNotProfileOwner
	}
	if in.Role != nil && !actor.IsAdmin() {
		return nil, ErrRoleChangeForbidden
	}
	if in.IsBlocked != nil && !actor.IsAdmin() {
		return nil, ErrBlockForbidden
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if in.Email != nil {
		u.Email = model.NormalizeEmail(*in.Email)
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Role != nil {
		if !model.IsValidRole(*in.Role) {
			verr.add("role", "Invalid role")
		}
		u.Role = *in.Role
	}
	if in.IsBlocked != nil {
		u.IsBlocked = *in.IsBlocked
	}
	if in.Img != nil {
		u.Img = orDefault(*in.Img, model.DefaultUserImage)
	}
	if in.Subject != nil {
		if !model.IsValidTeachingSubject(*in.Subject) {
			verr.add("subject", "Invalid subject")
		}
		u.Subject = *in.Subject
	}
	if in.UserExperience != nil {
		if !model.IsValidExperience(*in.UserExperience) {
			verr.add("userExperience", "Invalid experience level")
		}
		u.UserExperience = *in.UserExperience
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		if err := u.SetPassword(*in.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	if err := s.userRepo.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	ok, err := s.userRepo.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	s.logger.Info().Str("user_id", id).Msg("User deleted")
	return nil
}

func (s *userService) Subjects(ctx context.Context, id string) ([]string, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.AccessibleSubjects, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
