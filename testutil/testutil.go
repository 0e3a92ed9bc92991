// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/danielhkuo/ku-polls/auth"
	"github.com/danielhkuo/ku-polls/cliparse"
	"github.com/danielhkuo/ku-polls/db"
	"github.com/danielhkuo/ku-polls/models"
)

const (
	TestSecret   = "test-secret-key"
	TestPassword = "test-password"
)

// SetupTestDB creates a fresh, migrated SQLite database for one test
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "polls_test.db")
	conn, err := db.Open(context.Background(), cliparse.DatabaseSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(conn, cliparse.DatabaseSQLite); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         8000,
		DatabaseURL:  "file:polls_test.db",
		DatabaseType: cliparse.DatabaseSQLite,
		SecretKey:    TestSecret,
		SessionTTL:   time.Hour,
		TimeZone:     "UTC",
		Location:     time.UTC,
		Env:          "test",
	}
}

// CreateTestQuestion creates a question published the given number of days
// offset from now (negative for the past) that ends three days after that.
func CreateTestQuestion(t *testing.T, db *sql.DB, text string, days int) models.Question {
	t.Helper()

	now := time.Now().UTC()
	pub := now.Add(time.Duration(days) * 24 * time.Hour)
	return CreateTestQuestionWindow(t, db, text, pub, pub.Add(3*24*time.Hour))
}

// CreateTestQuestionWindow creates a question with an explicit voting window
func CreateTestQuestionWindow(t *testing.T, db *sql.DB, text string, pub, end time.Time) models.Question {
	t.Helper()

	q := models.Question{QuestionText: text, PubDate: pub.UTC(), EndDate: end.UTC()}
	err := db.QueryRow(`
		INSERT INTO question (question_text, pub_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`, q.QuestionText, q.PubDate, q.EndDate).Scan(&q.ID)
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	return q
}

// AddTestChoice adds a choice to a question and returns it.
// An empty text is replaced with a random one.
func AddTestChoice(t *testing.T, db *sql.DB, questionID int64, text string) models.Choice {
	t.Helper()

	if text == "" {
		text = gofakeit.Noun()
	}

	c := models.Choice{QuestionID: questionID, ChoiceText: text}
	err := db.QueryRow(`
		INSERT INTO choice (question_id, choice_text, votes)
		VALUES ($1, $2, 0)
		RETURNING id
	`, questionID, text).Scan(&c.ID)
	if err != nil {
		t.Fatalf("Failed to create test choice: %v", err)
	}

	return c
}

// CreateTestUser creates a user whose password is TestPassword.
// An empty username is replaced with a random one.
func CreateTestUser(t *testing.T, db *sql.DB, username string, staff bool) models.User {
	t.Helper()

	if username == "" {
		username = gofakeit.Username()
	}

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	u := models.User{
		Username:  username,
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		PassHash:  hash,
		IsStaff:   staff,
		CreatedAt: time.Now().UTC(),
	}
	err = db.QueryRow(`
		INSERT INTO users (username, first_name, last_name, pass_hash, is_staff, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, u.Username, u.FirstName, u.LastName, u.PassHash, u.IsStaff, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return u
}

// CastTestVote inserts a vote row and recounts the question's choices
func CastTestVote(t *testing.T, db *sql.DB, userID, questionID, choiceID int64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO vote (user_id, question_id, choice_id, voted_at)
		VALUES ($1, $2, $3, $4)
	`, userID, questionID, choiceID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	_, err = db.Exec(`
		UPDATE choice
		SET votes = (SELECT COUNT(*) FROM vote WHERE vote.choice_id = choice.id)
		WHERE question_id = $1
	`, questionID)
	if err != nil {
		t.Fatalf("Failed to recount test votes: %v", err)
	}
}

// ChoiceVotes returns the stored counter of a choice
func ChoiceVotes(t *testing.T, db *sql.DB, choiceID int64) int {
	t.Helper()

	var votes int
	if err := db.QueryRow(`SELECT votes FROM choice WHERE id = $1`, choiceID).Scan(&votes); err != nil {
		t.Fatalf("Failed to read choice votes: %v", err)
	}
	return votes
}

// CountRows returns the number of rows in table matching an optional where clause
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}

	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// SessionCookie returns a session cookie that logs in as userID
func SessionCookie(t *testing.T, cfg cliparse.Config, userID int64) *http.Cookie {
	t.Helper()

	token, err := auth.IssueSessionToken(userID, cfg.SecretKey, cfg.SessionTTL, time.Now())
	if err != nil {
		t.Fatalf("Failed to issue session token: %v", err)
	}
	return &http.Cookie{Name: "sessionid", Value: token}
}

// MakeRequest creates an HTTP test request carrying the given cookies
func MakeRequest(method, path string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// MakeFormRequest creates a url-encoded form request carrying the given cookies
func MakeFormRequest(method, path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// ResponseCookie returns the named cookie set by the response, or nil
func ResponseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertRedirect checks for a 302 to the expected location
func AssertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	AssertStatus(t, w, http.StatusFound)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Expected redirect to %q, got %q", location, got)
	}
}
