package util

import (
	"strings"
	"testing"
	"time"

	"lms/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	u := &model.User{ID: "u-1", Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", Role: model.RoleStudent}
	token, err := GenerateJWT(u, "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	claims, err := ValidateJWT(token, "secret")
	if err != nil {
		t.Fatalf("ValidateJWT returned error: %v", err)
	}
	if claims.ID != "u-1" || claims.Subject != "u-1" {
		t.Errorf("unexpected subject: id=%q sub=%q", claims.ID, claims.Subject)
	}
	if claims.Role != model.RoleStudent || claims.Email != "jane@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestValidateJWTRejects(t *testing.T) {
	u := &model.User{ID: "u-1", Role: model.RoleAdmin}

	wrongSecret, _ := GenerateJWT(u, "other", time.Hour)
	expired, _ := GenerateJWT(u, "secret", -time.Minute)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		ID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", wrongSecret},
		{"expired", expired},
		{"alg none", unsigned},
		{"garbage", "not.a.token"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateJWT(tt.token, "secret"); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestGenerateJWTEmptySecret(t *testing.T) {
	_, err := GenerateJWT(&model.User{ID: "u"}, "", time.Hour)
	if err == nil || !strings.Contains(err.Error(), "secret") {
		t.Fatalf("expected empty secret error, got %v", err)
	}
}
