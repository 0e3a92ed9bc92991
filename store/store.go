// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/ku-polls/models"
)

type Storage struct {
	db *sql.DB
}

func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Ping verifies the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ChoiceChange is one row of the inline choice editor.
// ID 0 with non-empty Text adds a choice; a known ID updates or deletes it.
type ChoiceChange struct {
	ID     int64
	Text   string
	Delete bool
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Questions

// LatestQuestions returns up to limit questions published at or before now,
// most recent first.
func (s *Storage) LatestQuestions(ctx context.Context, now time.Time, limit int) ([]models.Question, error) {
	const op = "store.LatestQuestions"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_text, pub_date, end_date
		FROM question
		WHERE pub_date <= $1
		ORDER BY pub_date DESC, id DESC
		LIMIT $2
	`, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return questions, nil
}

// Questions returns every question, most recent first
func (s *Storage) Questions(ctx context.Context) ([]models.Question, error) {
	const op = "store.Questions"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_text, pub_date, end_date
		FROM question
		ORDER BY pub_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return questions, nil
}

func (s *Storage) Question(ctx context.Context, id int64) (models.Question, error) {
	const op = "store.Question"

	var q models.Question
	err := s.db.QueryRowContext(ctx, `
		SELECT id, question_text, pub_date, end_date
		FROM question
		WHERE id = $1
	`, id).Scan(&q.ID, &q.QuestionText, &q.PubDate, &q.EndDate)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Question{}, fmt.Errorf("%s: %w", op, ErrQuestionNotFound)
	}
	if err != nil {
		return models.Question{}, fmt.Errorf("%s: %w", op, err)
	}

	q.PubDate, q.EndDate = q.PubDate.UTC(), q.EndDate.UTC()
	return q, nil
}

// CreateQuestion inserts the question and its new choices in one transaction
func (s *Storage) CreateQuestion(ctx context.Context, q models.Question, changes []ChoiceChange) (int64, error) {
	const op = "store.CreateQuestion"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO question (question_text, pub_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`, q.QuestionText, q.PubDate.UTC(), q.EndDate.UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := applyChoiceChanges(ctx, tx, id, changes); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}
	return id, nil
}

// UpdateQuestion saves the question fields and applies the choice changes.
// Vote counts are recomputed since deleting a choice deletes its votes.
func (s *Storage) UpdateQuestion(ctx context.Context, q models.Question, changes []ChoiceChange) error {
	const op = "store.UpdateQuestion"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE question
		SET question_text = $1, pub_date = $2, end_date = $3
		WHERE id = $4
	`, q.QuestionText, q.PubDate.UTC(), q.EndDate.UTC(), q.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrQuestionNotFound)
	}

	if err := applyChoiceChanges(ctx, tx, q.ID, changes); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := recountVotes(ctx, tx, q.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// DeleteQuestion removes the question; choices and votes cascade
func (s *Storage) DeleteQuestion(ctx context.Context, id int64) error {
	const op = "store.DeleteQuestion"

	res, err := s.db.ExecContext(ctx, `DELETE FROM question WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrQuestionNotFound)
	}
	return nil
}

// Choices

// Choices returns the choices of a question in creation order
func (s *Storage) Choices(ctx context.Context, questionID int64) ([]models.Choice, error) {
	const op = "store.Choices"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, choice_text, votes
		FROM choice
		WHERE question_id = $1
		ORDER BY id
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	choices := []models.Choice{}
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.Votes); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		choices = append(choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return choices, nil
}

// Choice returns a choice only if it belongs to the question
func (s *Storage) Choice(ctx context.Context, questionID, choiceID int64) (models.Choice, error) {
	const op = "store.Choice"

	var c models.Choice
	err := s.db.QueryRowContext(ctx, `
		SELECT id, question_id, choice_text, votes
		FROM choice
		WHERE id = $1 AND question_id = $2
	`, choiceID, questionID).Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.Votes)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Choice{}, fmt.Errorf("%s: %w", op, ErrChoiceNotFound)
	}
	if err != nil {
		return models.Choice{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func applyChoiceChanges(ctx context.Context, q queryer, questionID int64, changes []ChoiceChange) error {
	for _, ch := range changes {
		switch {
		case ch.ID == 0 && ch.Text == "":
			// blank extra row
		case ch.ID == 0:
			if _, err := q.ExecContext(ctx, `
				INSERT INTO choice (question_id, choice_text, votes) VALUES ($1, $2, 0)
			`, questionID, ch.Text); err != nil {
				return fmt.Errorf("insert choice: %w", err)
			}
		case ch.Delete:
			if _, err := q.ExecContext(ctx, `
				DELETE FROM choice WHERE id = $1 AND question_id = $2
			`, ch.ID, questionID); err != nil {
				return fmt.Errorf("delete choice %d: %w", ch.ID, err)
			}
		default:
			res, err := q.ExecContext(ctx, `
				UPDATE choice SET choice_text = $1 WHERE id = $2 AND question_id = $3
			`, ch.Text, ch.ID, questionID)
			if err != nil {
				return fmt.Errorf("update choice %d: %w", ch.ID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("update choice %d: %w", ch.ID, ErrChoiceNotFound)
			}
		}
	}
	return nil
}

// Votes

// CastVote records the user's choice for the question, replacing any earlier
// vote, and recounts every choice of the question from the vote rows.
func (s *Storage) CastVote(ctx context.Context, userID, questionID, choiceID int64, now time.Time) error {
	const op = "store.CastVote"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (user_id, question_id, choice_id, voted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, question_id)
		DO UPDATE SET choice_id = excluded.choice_id, voted_at = excluded.voted_at
	`, userID, questionID, choiceID, now.UTC())
	if err != nil {
		return fmt.Errorf("%s: upsert: %w", op, err)
	}

	if err := recountVotes(ctx, tx, questionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// UserVote returns the user's current vote on the question
func (s *Storage) UserVote(ctx context.Context, userID, questionID int64) (models.Vote, error) {
	const op = "store.UserVote"

	var v models.Vote
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, question_id, choice_id, voted_at
		FROM vote
		WHERE user_id = $1 AND question_id = $2
	`, userID, questionID).Scan(&v.ID, &v.UserID, &v.QuestionID, &v.ChoiceID, &v.VotedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vote{}, fmt.Errorf("%s: %w", op, ErrVoteNotFound)
	}
	if err != nil {
		return models.Vote{}, fmt.Errorf("%s: %w", op, err)
	}

	v.VotedAt = v.VotedAt.UTC()
	return v, nil
}

// recountVotes sets every choice's counter to its number of vote rows
func recountVotes(ctx context.Context, q queryer, questionID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE choice
		SET votes = (
			SELECT COUNT(*) FROM vote
			WHERE vote.question_id = $1 AND vote.choice_id = choice.id
		)
		WHERE question_id = $1
	`, questionID)
	if err != nil {
		return fmt.Errorf("recount votes: %w", err)
	}
	return nil
}

// Users

func (s *Storage) CreateUser(ctx context.Context, u models.User) (int64, error) {
	const op = "store.CreateUser"

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, first_name, last_name, pass_hash, is_staff, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, u.Username, u.FirstName, u.LastName, u.PassHash, u.IsStaff, u.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (models.User, error) {
	const op = "store.UserByID"

	u, err := s.scanUser(ctx, `
		SELECT id, username, first_name, last_name, pass_hash, is_staff, created_at
		FROM users WHERE id = $1
	`, id)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Storage) UserByUsername(ctx context.Context, username string) (models.User, error) {
	const op = "store.UserByUsername"

	u, err := s.scanUser(ctx, `
		SELECT id, username, first_name, last_name, pass_hash, is_staff, created_at
		FROM users WHERE username = $1
	`, username)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Storage) scanUser(ctx context.Context, query string, arg any) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PassHash, &u.IsStaff, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func scanQuestions(rows *sql.Rows) ([]models.Question, error) {
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.PubDate, &q.EndDate); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		q.PubDate, q.EndDate = q.PubDate.UTC(), q.EndDate.UTC()
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return questions, nil
}
