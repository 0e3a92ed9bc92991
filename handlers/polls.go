// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/ku-polls/middleware"
	"github.com/danielhkuo/ku-polls/models"
	"github.com/danielhkuo/ku-polls/render"
	"github.com/danielhkuo/ku-polls/store"
)

const IndexURL = "/polls/"

type PollHandler struct {
	store   *store.Storage
	render  *render.Renderer
	flashes *middleware.Flashes

	// Now is the clock used for the voting window
	Now func() time.Time
}

func NewPollHandler(st *store.Storage, rd *render.Renderer, flashes *middleware.Flashes) *PollHandler {
	return &PollHandler{store: st, render: rd, flashes: flashes, Now: time.Now}
}

type IndexData struct {
	Questions []models.Question
}

type DetailData struct {
	Question models.Question
	Choices  []models.Choice
	Selected int64
	Error    string
}

type voteInput struct {
	Choice int64 `schema:"choice" validate:"required,gt=0"`
}

type ResultsData struct {
	Question models.Question
	Choices  []models.Choice
	Total    int
}

// Index handles GET /polls/
func (h *PollHandler) Index(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.LatestQuestions(r.Context(), h.Now(), models.IndexSize)
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	h.render.HTML(w, r, http.StatusOK, render.PageIndex, IndexData{Questions: questions})
}

// Detail handles GET /polls/{id}/
func (h *PollHandler) Detail(w http.ResponseWriter, r *http.Request) {
	q, ok := h.question(w, r)
	if !ok {
		return
	}
	if !h.checkWindow(w, r, q) {
		return
	}

	h.renderDetail(w, r, q, "")
}

// Vote handles POST /polls/{id}/vote/
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, middleware.LoginURL, http.StatusFound)
		return
	}

	q, ok := h.question(w, r)
	if !ok {
		return
	}
	if !h.checkWindow(w, r, q) {
		return
	}

	var in voteInput
	if err := decodeForm(r, &in); err != nil || validate.Struct(in) != nil {
		h.renderDetail(w, r, q, models.MsgNoChoice)
		return
	}

	choice, err := h.store.Choice(r.Context(), q.ID, in.Choice)
	if errors.Is(err, store.ErrChoiceNotFound) {
		h.renderDetail(w, r, q, models.MsgNoChoice)
		return
	}
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	if err := h.store.CastVote(r.Context(), user.ID, q.ID, choice.ID, h.Now()); err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	http.Redirect(w, r, resultsURL(q.ID), http.StatusFound)
}

// VoteRedirect handles GET /polls/{id}/vote/, reached after logging in from
// the vote form, by sending the user back to the question.
func (h *PollHandler) VoteRedirect(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.render.NotFound(w, r)
		return
	}
	http.Redirect(w, r, detailURL(id), http.StatusFound)
}

// Results handles GET /polls/{id}/results/
func (h *PollHandler) Results(w http.ResponseWriter, r *http.Request) {
	q, ok := h.question(w, r)
	if !ok {
		return
	}

	choices, err := h.store.Choices(r.Context(), q.ID)
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	total := 0
	for _, c := range choices {
		total += c.Votes
	}

	h.render.HTML(w, r, http.StatusOK, render.PageResults, ResultsData{
		Question: q,
		Choices:  choices,
		Total:    total,
	})
}

// question loads the question named by the path, rendering 404 or 500
// when it cannot.
func (h *PollHandler) question(w http.ResponseWriter, r *http.Request) (models.Question, bool) {
	id, err := parseID(r)
	if err != nil {
		h.render.NotFound(w, r)
		return models.Question{}, false
	}

	q, err := h.store.Question(r.Context(), id)
	if errors.Is(err, store.ErrQuestionNotFound) {
		h.render.NotFound(w, r)
		return models.Question{}, false
	}
	if err != nil {
		h.render.ServerError(w, r, err)
		return models.Question{}, false
	}
	return q, true
}

// checkWindow redirects to the index with an error flash when the question
// is not yet published or its vote has ended.
func (h *PollHandler) checkWindow(w http.ResponseWriter, r *http.Request, q models.Question) bool {
	now := h.Now()
	if q.CanVote(now) {
		return true
	}

	if q.PubDate.After(now) {
		h.flashes.Error(w, r, models.MsgNotAvailable)
	} else {
		h.flashes.Error(w, r, models.MsgVoteEnded)
	}

	http.Redirect(w, r, IndexURL, http.StatusFound)
	return false
}

func (h *PollHandler) renderDetail(w http.ResponseWriter, r *http.Request, q models.Question, errMsg string) {
	choices, err := h.store.Choices(r.Context(), q.ID)
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	data := DetailData{Question: q, Choices: choices, Error: errMsg}

	if user, ok := middleware.UserFromContext(r.Context()); ok {
		vote, err := h.store.UserVote(r.Context(), user.ID, q.ID)
		switch {
		case err == nil:
			data.Selected = vote.ChoiceID
		case !errors.Is(err, store.ErrVoteNotFound):
			h.render.ServerError(w, r, err)
			return
		}
	}

	h.render.HTML(w, r, http.StatusOK, render.PageDetail, data)
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func detailURL(id int64) string {
	return IndexURL + strconv.FormatInt(id, 10) + "/"
}

func resultsURL(id int64) string {
	return detailURL(id) + "results/"
}
