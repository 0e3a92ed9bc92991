// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"regexp"
	"time"
	"unicode/utf8"
)

// Field and window limits
const (
	MaxTextLength     = 200
	MaxUsernameLength = 150
	RecentWindow      = 24 * time.Hour
	IndexSize         = 5
)

// Message levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// User-facing messages
const (
	MsgNotAvailable = "The question is not available for vote"
	MsgVoteEnded    = "The question vote is ended"
	MsgNoChoice     = "You didn't select choice answer."
	MsgBadLogin     = "Please enter a correct username and password."
)

// Domain types

// Question is a poll prompt that accepts votes in [PubDate, EndDate).
type Question struct {
	ID           int64     `json:"id"`
	QuestionText string    `json:"question_text"`
	PubDate      time.Time `json:"pub_date"`
	EndDate      time.Time `json:"end_date"`
}

func (q Question) String() string {
	return q.QuestionText
}

// WasPublishedRecently reports whether PubDate falls within the last day.
func (q Question) WasPublishedRecently(now time.Time) bool {
	return !q.PubDate.Before(now.Add(-RecentWindow)) && !q.PubDate.After(now)
}

// IsPublished reports whether now is inside the question's window.
func (q Question) IsPublished(now time.Time) bool {
	return !q.PubDate.After(now) && now.Before(q.EndDate)
}

// CanVote uses the same window as IsPublished.
func (q Question) CanVote(now time.Time) bool {
	return !q.PubDate.After(now) && now.Before(q.EndDate)
}

type Choice struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	ChoiceText string `json:"choice_text"`
	Votes      int    `json:"votes"`
}

func (c Choice) String() string {
	return c.ChoiceText
}

// Vote is a user's current selection for one question.
type Vote struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	QuestionID int64     `json:"question_id"`
	ChoiceID   int64     `json:"choice_id"`
	VotedAt    time.Time `json:"voted_at"`
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	PassHash  []byte    `json:"-"` // Never expose in JSON
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

// UsernamePattern accepts letters and digits of any script plus @ . + - _
var UsernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// ValidUsername reports whether name is 1 to MaxUsernameLength characters
// matching UsernamePattern.
func ValidUsername(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n <= MaxUsernameLength && UsernamePattern.MatchString(name)
}

// DisplayName returns the full name, or the username when no name is set.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Message is a one-shot flash notice.
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Response types

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
