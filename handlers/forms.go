// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/ku-polls/models"
	"github.com/danielhkuo/ku-polls/render"
	"github.com/danielhkuo/ku-polls/store"
)

// ExtraChoiceRows is the number of blank choice rows on the question form
const ExtraChoiceRows = 3

// maxChoiceRows bounds the choice row index
const maxChoiceRows = 100

// QuestionForm is the admin question page with its inline choices
type QuestionForm struct {
	ID           int64
	QuestionText string
	PubDate      string
	EndDate      string
	Choices      []ChoiceRow
	Errors       []string
}

type ChoiceRow struct {
	ID     int64
	Text   string
	Votes  int
	Delete bool
}

// newQuestionForm fills the form from stored values and appends blank rows
func newQuestionForm(q models.Question, choices []models.Choice, loc *time.Location) QuestionForm {
	form := QuestionForm{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		PubDate:      render.FormatLocal(q.PubDate, loc),
		EndDate:      render.FormatLocal(q.EndDate, loc),
	}
	for _, c := range choices {
		form.Choices = append(form.Choices, ChoiceRow{ID: c.ID, Text: c.ChoiceText, Votes: c.Votes})
	}
	for i := 0; i < ExtraChoiceRows; i++ {
		form.Choices = append(form.Choices, ChoiceRow{})
	}
	return form
}

// questionInput is the submitted question form. Choice rows are posted as
// choices.N.id, choices.N.text and choices.N.delete.
type questionInput struct {
	QuestionText string        `schema:"question_text" validate:"required,max=200"`
	PubDate      string        `schema:"pub_date" validate:"required,datetime=2006-01-02T15:04"`
	EndDate      string        `schema:"end_date" validate:"required,datetime=2006-01-02T15:04"`
	Choices      []choiceInput `schema:"choices"`
}

type choiceInput struct {
	ID     int64  `schema:"id" validate:"gte=0"`
	Text   string `schema:"text" validate:"max=200"`
	Delete bool   `schema:"delete"`
}

var questionMessages = map[string]string{
	"QuestionText.required": "Question text is required.",
	"QuestionText.max":      "Question text must be 200 characters or fewer.",
	"PubDate.required":      "Date published: enter a valid date/time.",
	"PubDate.datetime":      "Date published: enter a valid date/time.",
	"EndDate.required":      "End date: enter a valid date/time.",
	"EndDate.datetime":      "End date: enter a valid date/time.",
}

var choiceMessages = map[string]string{
	"ID.gte":        "invalid id.",
	"Text.required": "choice text is required.",
	"Text.max":      "choice text must be 200 characters or fewer.",
}

// parseQuestionForm reads and validates a submitted question form.
// Form field errors are collected in form.Errors.
func parseQuestionForm(r *http.Request, loc *time.Location) (QuestionForm, models.Question, []store.ChoiceChange) {
	var in questionInput
	decodeErr := decodeForm(r, &in)

	in.QuestionText = strings.TrimSpace(in.QuestionText)
	in.PubDate = strings.TrimSpace(in.PubDate)
	in.EndDate = strings.TrimSpace(in.EndDate)

	form := QuestionForm{
		QuestionText: in.QuestionText,
		PubDate:      in.PubDate,
		EndDate:      in.EndDate,
	}
	if decodeErr != nil {
		form.Errors = append(form.Errors, decodeErrors(decodeErr)...)
	}
	form.Errors = append(form.Errors, fieldErrors(validate.Struct(in), questionMessages)...)

	pub, pubErr := time.ParseInLocation(render.LocalLayout, in.PubDate, loc)
	end, endErr := time.ParseInLocation(render.LocalLayout, in.EndDate, loc)
	if pubErr == nil && endErr == nil && !end.After(pub) {
		form.Errors = append(form.Errors, "End date must be after the publication date.")
	}
	q := models.Question{
		QuestionText: in.QuestionText,
		PubDate:      pub.UTC(),
		EndDate:      end.UTC(),
	}

	if len(in.Choices) > maxChoiceRows {
		in.Choices = in.Choices[:maxChoiceRows]
	}

	changes := make([]store.ChoiceChange, 0, len(in.Choices))
	for i, c := range in.Choices {
		c.Text = strings.TrimSpace(c.Text)
		form.Choices = append(form.Choices, ChoiceRow{ID: c.ID, Text: c.Text, Delete: c.Delete})

		for _, msg := range fieldErrors(validate.Struct(c), choiceMessages) {
			form.Errors = append(form.Errors, fmt.Sprintf("Choice %d: %s", i+1, msg))
		}

		changes = append(changes, store.ChoiceChange{ID: c.ID, Text: c.Text, Delete: c.Delete})
	}

	return form, q, changes
}
