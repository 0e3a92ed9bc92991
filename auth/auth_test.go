// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if string(hash) == "correct horse" {
		t.Error("HashPassword() returned the plain password")
	}

	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword() with right password error = %v", err)
	}

	if err := CheckPassword(hash, "wrong horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword() with wrong password = %v, want ErrInvalidCredentials", err)
	}

	// Salted: two hashes of the same password differ
	hash2, _ := HashPassword("correct horse")
	if string(hash) == string(hash2) {
		t.Error("HashPassword() produced identical hashes")
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("HashPassword(\"\") error = %v, want ErrEmptyPassword", err)
	}
}

func TestHashPassword_Length(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Errorf("HashPassword() at the limit error = %v", err)
	}

	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("HashPassword() over the limit error = %v, want ErrPasswordTooLong", err)
	}

	// The limit counts bytes: 25 three-byte runes are 75 bytes
	if _, err := HashPassword(strings.Repeat("ก", 25)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("HashPassword() with multibyte runes error = %v, want ErrPasswordTooLong", err)
	}
}

func TestSessionToken_RoundTrip(t *testing.T) {
	now := time.Now()
	token, err := IssueSessionToken(42, "secret", time.Hour, now)
	if err != nil {
		t.Fatalf("IssueSessionToken() error = %v", err)
	}

	if strings.Count(token, ".") != 2 {
		t.Errorf("token should have three JWT segments, got %q", token)
	}

	uid, err := ParseSessionToken(token, "secret")
	if err != nil {
		t.Fatalf("ParseSessionToken() error = %v", err)
	}
	if uid != 42 {
		t.Errorf("ParseSessionToken() uid = %d, want 42", uid)
	}
}

func TestSessionToken_Rejected(t *testing.T) {
	valid, _ := IssueSessionToken(7, "secret", time.Hour, time.Now())
	expired, _ := IssueSessionToken(7, "secret", time.Hour, time.Now().Add(-2*time.Hour))

	noType := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": 7,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noTypeSigned, _ := noType.SignedString([]byte("secret"))

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other"},
		{"expired", expired, "secret"},
		{"garbage", "not-a-token", "secret"},
		{"empty", "", "secret"},
		{"missing typ claim", noTypeSigned, "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSessionToken(tt.token, tt.secret)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParseSessionToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestSessionToken_Unique(t *testing.T) {
	now := time.Now()
	t1, _ := IssueSessionToken(1, "secret", time.Hour, now)
	t2, _ := IssueSessionToken(1, "secret", time.Hour, now)
	if t1 == t2 {
		t.Error("IssueSessionToken() produced identical tokens for the same user and time")
	}
}

func TestSignValue(t *testing.T) {
	signed := SignValue("payload", "secret")

	if !strings.HasPrefix(signed, "payload.") {
		t.Errorf("SignValue() = %q, want payload prefix", signed)
	}
	if strings.Contains(signed, "=") {
		t.Error("SignValue() should not contain padding")
	}

	// Deterministic
	if SignValue("payload", "secret") != signed {
		t.Error("SignValue() is not deterministic")
	}

	got, err := VerifyValue(signed, "secret")
	if err != nil {
		t.Fatalf("VerifyValue() error = %v", err)
	}
	if got != "payload" {
		t.Errorf("VerifyValue() = %q, want %q", got, "payload")
	}
}

func TestVerifyValue_Rejected(t *testing.T) {
	signed := SignValue("payload", "secret")

	tests := []struct {
		name   string
		signed string
		secret string
	}{
		{"wrong secret", signed, "other"},
		{"tampered value", "pay1oad" + signed[len("payload"):], "secret"},
		{"no separator", "payload", "secret"},
		{"empty", "", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyValue(tt.signed, tt.secret); !errors.Is(err, ErrInvalidSignature) {
				t.Errorf("VerifyValue() error = %v, want ErrInvalidSignature", err)
			}
		})
	}
}
