// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/ku-polls/middleware"
	"github.com/danielhkuo/ku-polls/models"
	"github.com/danielhkuo/ku-polls/render"
	"github.com/danielhkuo/ku-polls/store"
)

const AdminURL = "/admin/"

const msgForeignChoice = "A choice does not belong to this question."

// AdminHandler serves the staff-only question and choice editor
type AdminHandler struct {
	store   *store.Storage
	render  *render.Renderer
	flashes *middleware.Flashes
	loc     *time.Location

	Now func() time.Time
}

func NewAdminHandler(st *store.Storage, rd *render.Renderer, flashes *middleware.Flashes, loc *time.Location) *AdminHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminHandler{store: st, render: rd, flashes: flashes, loc: loc, Now: time.Now}
}

type AdminIndexData struct {
	Questions []models.Question
	Now       time.Time
}

type AdminDeleteData struct {
	Question models.Question
	Choices  []models.Choice
}

// Index handles GET /admin/
func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.Questions(r.Context())
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	h.render.HTML(w, r, http.StatusOK, render.PageAdminIndex, AdminIndexData{
		Questions: questions,
		Now:       h.Now(),
	})
}

// AddForm handles GET /admin/questions/add/
func (h *AdminHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	now := h.Now()
	form := newQuestionForm(models.Question{PubDate: now, EndDate: now.Add(7 * 24 * time.Hour)}, nil, h.loc)
	h.render.HTML(w, r, http.StatusOK, render.PageAdminForm, form)
}

// Add handles POST /admin/questions/add/
func (h *AdminHandler) Add(w http.ResponseWriter, r *http.Request) {
	form, q, changes := parseQuestionForm(r, h.loc)
	if len(form.Errors) > 0 {
		h.render.HTML(w, r, http.StatusOK, render.PageAdminForm, form)
		return
	}

	id, err := h.store.CreateQuestion(r.Context(), q, changes)
	switch {
	case errors.Is(err, store.ErrChoiceNotFound):
		form.Errors = append(form.Errors, msgForeignChoice)
		h.render.HTML(w, r, http.StatusOK, render.PageAdminForm, form)
		return
	case err != nil:
		h.render.ServerError(w, r, err)
		return
	}

	slog.Info("question added", "question_id", id, "user_id", staffID(r))
	h.flashes.Success(w, r, fmt.Sprintf("The question %q was added successfully.", q.QuestionText))
	http.Redirect(w, r, AdminURL, http.StatusFound)
}

// ChangeForm handles GET /admin/questions/{id}/
func (h *AdminHandler) ChangeForm(w http.ResponseWriter, r *http.Request) {
	q, choices, ok := h.questionWithChoices(w, r)
	if !ok {
		return
	}
	h.render.HTML(w, r, http.StatusOK, render.PageAdminForm, newQuestionForm(q, choices, h.loc))
}

// Change handles POST /admin/questions/{id}/
func (h *AdminHandler) Change(w http.ResponseWriter, r *http.Request) {
	existing, choices, ok := h.questionWithChoices(w, r)
	if !ok {
		return
	}

	form, q, changes := parseQuestionForm(r, h.loc)
	form.ID, q.ID = existing.ID, existing.ID
	if len(form.Errors) > 0 {
		h.renderChangeForm(w, r, form, choices)
		return
	}

	err := h.store.UpdateQuestion(r.Context(), q, changes)
	switch {
	case errors.Is(err, store.ErrQuestionNotFound):
		h.render.NotFound(w, r)
		return
	case errors.Is(err, store.ErrChoiceNotFound):
		form.Errors = append(form.Errors, msgForeignChoice)
		h.renderChangeForm(w, r, form, choices)
		return
	case err != nil:
		h.render.ServerError(w, r, err)
		return
	}

	slog.Info("question changed", "question_id", q.ID, "user_id", staffID(r))
	h.flashes.Success(w, r, fmt.Sprintf("The question %q was changed successfully.", q.QuestionText))
	http.Redirect(w, r, AdminURL, http.StatusFound)
}

// DeleteConfirm handles GET /admin/questions/{id}/delete/
func (h *AdminHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	q, choices, ok := h.questionWithChoices(w, r)
	if !ok {
		return
	}
	h.render.HTML(w, r, http.StatusOK, render.PageAdminDelete, AdminDeleteData{Question: q, Choices: choices})
}

// Delete handles POST /admin/questions/{id}/delete/
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.render.NotFound(w, r)
		return
	}

	err = h.store.DeleteQuestion(r.Context(), id)
	if errors.Is(err, store.ErrQuestionNotFound) {
		h.render.NotFound(w, r)
		return
	}
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	slog.Info("question deleted", "question_id", id, "user_id", staffID(r))
	h.flashes.Success(w, r, "The question was deleted successfully.")
	http.Redirect(w, r, AdminURL, http.StatusFound)
}

func (h *AdminHandler) questionWithChoices(w http.ResponseWriter, r *http.Request) (models.Question, []models.Choice, bool) {
	id, err := parseID(r)
	if err != nil {
		h.render.NotFound(w, r)
		return models.Question{}, nil, false
	}

	q, err := h.store.Question(r.Context(), id)
	if errors.Is(err, store.ErrQuestionNotFound) {
		h.render.NotFound(w, r)
		return models.Question{}, nil, false
	}
	if err != nil {
		h.render.ServerError(w, r, err)
		return models.Question{}, nil, false
	}

	choices, err := h.store.Choices(r.Context(), id)
	if err != nil {
		h.render.ServerError(w, r, err)
		return models.Question{}, nil, false
	}
	return q, choices, true
}

// renderChangeForm re-renders a rejected form, restoring stored vote counts
func (h *AdminHandler) renderChangeForm(w http.ResponseWriter, r *http.Request, form QuestionForm, choices []models.Choice) {
	votes := make(map[int64]int, len(choices))
	for _, c := range choices {
		votes[c.ID] = c.Votes
	}
	for i := range form.Choices {
		form.Choices[i].Votes = votes[form.Choices[i].ID]
	}
	h.render.HTML(w, r, http.StatusOK, render.PageAdminForm, form)
}

func staffID(r *http.Request) int64 {
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		return u.ID
	}
	return 0
}
