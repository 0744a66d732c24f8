package handler

import (
	"errors"
	"net/http"
	"net/mail"

	"lms/internal/api/v1/dto"
	"lms/internal/middleware"
	"lms/internal/model"
	"lms/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
}

func NewUserHandler(userService service.UserService, v *validator.Validate) *UserHandler {
	return &UserHandler{userService: userService, validate: v}
}

// RegisterRoutes mounts v1 user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMw, optionalAuthMw func(http.Handler) http.Handler) {
	adminOnly := middleware.RequireRole("Unauthorized: Admin access required", model.RoleAdmin)

	r.Route("/users", func(r chi.Router) {
		r.With(optionalAuthMw).Post("/register", h.register)
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Get("/me", h.me)
			r.Get("/me/subjects", h.subjects)
			r.Get("/isAdmin", h.isAdmin)
			r.Put("/{id}", h.updateUser)
			r.With(adminOnly).Get("/", h.listUsers)
			r.With(adminOnly).Get("/{id}", h.getUser)
			r.With(adminOnly).Delete("/{id}", h.deleteUser)
		})
	})
}

// register godoc
// @Summary Register a user
// @Description Creates an account. Only admins may create admin or teacher accounts.
// @Tags users
// @Accept json
// @Produce json
// @Param user body dto.RegisterRequestDTO true "Registration request"
// @Success 201 {object} dto.UserEnvelopeDTO
// @Failure 400 {object} dto.ErrorResponseDTO "Missing or invalid fields"
// @Failure 403 {object} dto.MessageResponseDTO "Role or block flag not allowed"
// @Failure 409 {object} dto.MessageResponseDTO "Email already exists"
// @Router /users/register [post]
func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponseDTO{Message: "Missing required fields", MissingFields: missing})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if len(req.Password) < 8 {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 8 characters long")
		return
	}
	if !validateStruct(w, h.validate, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), middleware.UserFromContext(r.Context()), service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		IsBlocked:      req.IsBlocked,
		Img:            req.Img,
		Subject:        req.Subject,
		UserExperience: req.UserExperience,
	})
	if err != nil {
		switch {
		case asValidation(w, err):
		case errors.Is(err, service.ErrPasswordTooShort):
			writeMessage(w, http.StatusBadRequest, "Password must be at least 8 characters long")
		case errors.Is(err, service.ErrRoleNotAllowed):
			writeMessage(w, http.StatusForbidden, "Only admins can create admin or teacher accounts")
		case errors.Is(err, service.ErrBlockForbidden):
			writeMessage(w, http.StatusForbidden, "Only admin can block users")
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			writeMessage(w, http.StatusConflict, "Email already exists")
		default:
			writeFailure(w, "Error registering user", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, dto.UserEnvelopeDTO{Message: "User registered successfully", User: user})
}

// login godoc
// @Summary Log in
// @Description Exchanges email and password for a JWT valid for two hours.
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequestDTO true "Login request"
// @Success 200 {object} dto.LoginResponseDTO
// @Failure 400 {object} dto.MessageResponseDTO "Email and password are required"
// @Failure 401 {object} dto.MessageResponseDTO "Invalid password"
// @Failure 403 {object} dto.MessageResponseDTO "Account blocked"
// @Failure 404 {object} dto.MessageResponseDTO "User not found"
// @Failure 429 {object} dto.MessageResponseDTO "Too many failed attempts"
// @Router /users/login [post]
func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrInvalidPassword):
			writeMessage(w, http.StatusUnauthorized, "Invalid password")
		case errors.Is(err, service.ErrAccountBlocked):
			writeMessage(w, http.StatusForbidden, "Your account has been blocked")
		case errors.Is(err, service.ErrTooManyAttempts):
			writeMessage(w, http.StatusTooManyRequests, "Too many failed login attempts, please try again later")
		default:
			writeFailure(w, "Error logging in", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.LoginResponseDTO{Message: "Login successful", Token: token, User: user})
}

// me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CurrentUserDTO
// @Failure 401 {object} dto.MessageResponseDTO
// @Router /users/me [get]
func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.NewCurrentUser(middleware.UserFromContext(r.Context())))
}

// subjects godoc
// @Summary Subjects the current user can access
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubjectsResponseDTO
// @Router /users/me/subjects [get]
func (h *UserHandler) subjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.userService.Subjects(r.Context(), middleware.UserFromContext(r.Context()).ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeFailure(w, "Error fetching subjects", err)
		return
	}
	if subjects == nil {
		subjects = []string{}
	}
	writeJSON(w, http.StatusOK, dto.SubjectsResponseDTO{AccessibleSubjects: subjects})
}

// isAdmin godoc
// @Summary Check admin role
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.IsAdminResponseDTO
// @Failure 403 {object} dto.IsAdminResponseDTO
// @Router /users/isAdmin [get]
func (h *UserHandler) isAdmin(w http.ResponseWriter, r *http.Request) {
	if !middleware.UserFromContext(r.Context()).IsAdmin() {
		writeJSON(w, http.StatusForbidden, dto.IsAdminResponseDTO{IsAdmin: false})
		return
	}
	writeJSON(w, http.StatusOK, dto.IsAdminResponseDTO{IsAdmin: true})
}

// listUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 403 {object} dto.MessageResponseDTO
// @Router /users [get]
func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeFailure(w, "Error fetching users", err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// getUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /users/{id} [get]
func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeFailure(w, "Error fetching user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// updateUser godoc
// @Summary Update a user
// @Description Users may update their own profile. Only admins may change roles or block accounts.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param user body dto.UserUpdateDTO true "Fields to change"
// @Success 200 {object} dto.UserEnvelopeDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.MessageResponseDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Failure 409 {object} dto.MessageResponseDTO
// @Router /users/{id} [put]
func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UserUpdateDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, h.validate, &req) {
		return
	}

	actor := middleware.UserFromContext(r.Context())
	user, err := h.userService.Update(r.Context(), actor, chi.URLParam(r, "id"), service.UserUpdate{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		IsBlocked:      req.IsBlocked,
		Img:            req.Img,
		Subject:        req.Subject,
		UserExperience: req.UserExperience,
	})
	if err != nil {
		switch {
		case asValidation(w, err):
		case errors.Is(err, service.ErrNotProfileOwner):
			writeMessage(w, http.StatusForbidden, "You can only update your own profile")
		case errors.Is(err, service.ErrRoleChangeForbidden):
			writeMessage(w, http.StatusForbidden, "Only admin can change user roles")
		case errors.Is(err, service.ErrBlockForbidden):
			writeMessage(w, http.StatusForbidden, "Only admin can block users")
		case errors.Is(err, service.ErrPasswordTooShort):
			writeMessage(w, http.StatusBadRequest, "Password must be at least 8 characters long")
		case errors.Is(err, service.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			writeMessage(w, http.StatusConflict, "Email already exists")
		default:
			writeFailure(w, "Error updating user", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.UserEnvelopeDTO{Message: "User updated successfully", User: user})
}

// deleteUser godoc
// @Summary Delete a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.UserDeletedDTO
// @Failure 404 {object} dto.MessageResponseDTO
// @Router /users/{id} [delete]
func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.userService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeFailure(w, "Error deleting user", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserDeletedDTO{Message: "User deleted successfully", UserID: id})
}
