// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrEmptyPassword      = errors.New("password must not be empty")
	ErrPasswordTooLong    = fmt.Errorf("password must be %d bytes or fewer", MaxPasswordBytes)
)

// Password limits; bcrypt accepts at most 72 bytes
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// HashPassword returns a bcrypt hash of the password
func HashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// CheckPassword compares a stored hash with a candidate password
func CheckPassword(hash []byte, password string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueSessionToken creates a signed HS256 token identifying the user
func IssueSessionToken(userID int64, secret string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"uid": userID,
		"jti": uuid.NewString(),
		"typ": "session",
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates a session token and returns the user ID it carries
func ParseSessionToken(tokenString, secret string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != "session" {
		return 0, ErrInvalidToken
	}

	// JSON numbers decode as float64
	uid, ok := claims["uid"].(float64)
	if !ok || uid <= 0 {
		return 0, ErrInvalidToken
	}
	return int64(uid), nil
}

// SignValue appends an HMAC-SHA256 signature to value.
// The result is "value.signature" with URL-safe base64 and no padding.
func SignValue(value, secret string) string {
	return value + "." + signature(value, secret)
}

// VerifyValue checks a value produced by SignValue and returns the original
func VerifyValue(signed, secret string) (string, error) {
	i := strings.LastIndexByte(signed, '.')
	if i < 0 {
		return "", ErrInvalidSignature
	}
	value, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(signature(value, secret))) {
		return "", ErrInvalidSignature
	}
	return value, nil
}

func signature(value, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(value))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(h.Sum(nil)), "=")
}
