package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"lms/internal/model"
	"lms/internal/util"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

// UserLookup loads the account behind a validated token.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(UserContextKey).(*model.User)
	return u
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// AuthMiddleware requires a valid bearer token for an existing, unblocked user.
func AuthMiddleware(jwtSecret string, users UserLookup, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("middleware", "auth").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized - Token missing")
				return
			}
			claims, err := util.ValidateJWT(tokenString, jwtSecret)
			if err != nil {
				logger.Debug().Err(err).Msg("Invalid token")
				writeError(w, http.StatusUnauthorized, "Unauthorized - Invalid token")
				return
			}
			user, err := users.GetUserByID(r.Context(), claims.ID)
			if err != nil {
				logger.Error().Err(err).Str("user_id", claims.ID).Msg("Failed to load user")
				writeError(w, http.StatusInternalServerError, "Failed to authenticate")
				return
			}
			if user == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized - User not found")
				return
			}
			if user.IsBlocked {
				writeError(w, http.StatusForbidden, "Your account has been blocked")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuthMiddleware attaches the user when a bearer token is present.
// Requests without a token continue anonymously; a bad token is rejected.
func OptionalAuthMiddleware(jwtSecret string, users UserLookup, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("middleware", "optional_auth").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := util.ValidateJWT(tokenString, jwtSecret)
			if err != nil {
				writeError(w, http.StatusForbidden, "Invalid token")
				return
			}
			user, err := users.GetUserByID(r.Context(), claims.ID)
			if err != nil {
				logger.Error().Err(err).Str("user_id", claims.ID).Msg("Failed to load user")
				writeError(w, http.StatusInternalServerError, "Failed to authenticate")
				return
			}
			if user == nil || user.IsBlocked {
				writeError(w, http.StatusForbidden, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole rejects authenticated users whose role is not listed. It must
// run after AuthMiddleware.
func RequireRole(message string, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized - Token missing")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, message)
		})
	}
}

// SubjectChecker decides whether a user may read a subject's material.
type SubjectChecker interface {
	HasSubjectAccess(ctx context.Context, u *model.User, subject string) (bool, error)
}

// SubjectAccess guards routes by the subject named in the URL. subjectParam
// extracts it from the request.
func SubjectAccess(checker SubjectChecker, subjectParam func(*http.Request) string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized - Token missing")
				return
			}
			subject := subjectParam(r)
			if subject == "" {
				subject = r.URL.Query().Get("subject")
			}
			ok, err := checker.HasSubjectAccess(r.Context(), user, subject)
			if err != nil {
				logger.Error().Err(err).Str("subject", subject).Msg("Access verification failed")
				writeError(w, http.StatusInternalServerError, "Access verification failed")
				return
			}
			if !ok {
				writeError(w, http.StatusForbidden, "Access denied. Your enrollment for this subject is not approved.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
