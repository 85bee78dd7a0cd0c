package auth

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name          string
		password      string
		shouldFail    bool
		errorContains string
	}{
		{
			name:       "valid strong password",
			password:   "Secur3Pass!",
			shouldFail: false,
		},
		{
			name:          "too short",
			password:      "weak",
			shouldFail:    true,
			errorContains: "at least 8 characters",
		},
		{
			name:          "missing uppercase",
			password:      "securepass@123",
			shouldFail:    true,
			errorContains: "uppercase",
		},
		{
			name:          "missing lowercase",
			password:      "SECUREPASS@123",
			shouldFail:    true,
			errorContains: "lowercase",
		},
		{
			name:          "missing digit",
			password:      "SecurePass@xyz",
			shouldFail:    true,
			errorContains: "digit",
		},
		{
			name:          "missing special character",
			password:      "SecurePass123",
			shouldFail:    true,
			errorContains: "special character",
		},
		{
			name:          "common password rejected",
			password:      "Password123!",
			shouldFail:    true,
			errorContains: "too common",
		},
		{
			name:       "valid with multiple special chars",
			password:   "Secure#P@ssw0rd",
			shouldFail: false,
		},
		{
			name:          "too long",
			password:      strings.Repeat("Aa1!", 40),
			shouldFail:    true,
			errorContains: "at most",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if tt.shouldFail {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("error message should contain %q, got: %v", tt.errorContains, err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestHashAndComparePassword(t *testing.T) {
	password := "Secur3Pass!"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "" {
		t.Error("hash should not be empty")
	}

	if hash == password {
		t.Error("hash should not equal plaintext password")
	}

	if err := ComparePassword(hash, password); err != nil {
		t.Errorf("ComparePassword with correct password failed: %v", err)
	}

	if err := ComparePassword(hash, "WrongPassword123!"); err == nil {
		t.Error("ComparePassword with wrong password should fail")
	}
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestGenerateResetToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		token, err := GenerateResetToken()
		if err != nil {
			t.Fatalf("GenerateResetToken failed: %v", err)
		}
		if token == "" {
			t.Fatal("token should not be empty")
		}
		if seen[token] {
			t.Fatal("duplicate reset token generated")
		}
		seen[token] = true
	}
}
