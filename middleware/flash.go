// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/ku-polls/auth"
	"github.com/danielhkuo/ku-polls/models"
)

const FlashCookieName = "messages"

// Flashes stores one-shot messages in a signed cookie until the next
// rendered page pops them.
type Flashes struct {
	secret string
	secure bool
}

func NewFlashes(secret string, secure bool) *Flashes {
	return &Flashes{secret: secret, secure: secure}
}

// Add queues messages behind any still pending on the request
func (f *Flashes) Add(w http.ResponseWriter, r *http.Request, msgs ...models.Message) {
	pending := append(f.read(r), msgs...)

	payload, err := json.Marshal(pending)
	if err != nil {
		slog.Error("failed to encode flash messages", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    auth.SignValue(base64.RawURLEncoding.EncodeToString(payload), f.secret),
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Error queues a single error message
func (f *Flashes) Error(w http.ResponseWriter, r *http.Request, text string) {
	f.Add(w, r, models.Message{Level: models.LevelError, Text: text})
}

// Success queues a single success message
func (f *Flashes) Success(w http.ResponseWriter, r *http.Request, text string) {
	f.Add(w, r, models.Message{Level: models.LevelSuccess, Text: text})
}

// Pop returns the pending messages and clears the cookie
func (f *Flashes) Pop(w http.ResponseWriter, r *http.Request) []models.Message {
	if _, err := r.Cookie(FlashCookieName); err != nil {
		return nil
	}

	msgs := f.read(r)
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return msgs
}

func (f *Flashes) read(r *http.Request) []models.Message {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	value, err := auth.VerifyValue(cookie.Value, f.secret)
	if err != nil {
		slog.Debug("dropping tampered flash cookie")
		return nil
	}

	payload, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}

	var msgs []models.Message
	if err := json.Unmarshal(payload, &msgs); err != nil {
		return nil
	}
	return msgs
}
