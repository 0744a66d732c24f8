package repository

import "testing"

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		dsn         string
		development bool
		want        string
	}{
		{"postgres://u:p@localhost:5432/lms", true, "postgres://u:p@localhost:5432/lms?sslmode=disable"},
		{"postgres://u:p@localhost:5432/lms?connect_timeout=5", true, "postgres://u:p@localhost:5432/lms?connect_timeout=5&sslmode=disable"},
		{"host=localhost dbname=lms", true, "host=localhost dbname=lms sslmode=disable"},
		{"postgres://u:p@db:5432/lms?sslmode=require", true, "postgres://u:p@db:5432/lms?sslmode=require"},
		{"postgres://u:p@db:6543/lms", false, "postgres://u:p@db:6543/lms?prefer_simple_protocol=true"},
		{"postgres://u:p@db:6543/lms?sslmode=require", false, "postgres://u:p@db:6543/lms?sslmode=require&prefer_simple_protocol=true"},
	}
	for _, tt := range tests {
		if got := NormalizeDSN(tt.dsn, tt.development); got != tt.want {
			t.Errorf("NormalizeDSN(%q, %v) = %q, want %q", tt.dsn, tt.development, got, tt.want)
		}
	}
}

func TestPortFromDSN(t *testing.T) {
	if got := PortFromDSN("postgres://u:p@localhost:5432/lms"); got != "5432" {
		t.Errorf("unexpected port %q", got)
	}
	if got := PortFromDSN("host=localhost"); got != "not_found" {
		t.Errorf("unexpected port %q", got)
	}
}
