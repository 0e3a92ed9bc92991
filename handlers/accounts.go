// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielhkuo/ku-polls/auth"
	"github.com/danielhkuo/ku-polls/middleware"
	"github.com/danielhkuo/ku-polls/models"
	"github.com/danielhkuo/ku-polls/render"
	"github.com/danielhkuo/ku-polls/store"
)

type AccountsHandler struct {
	store    *store.Storage
	render   *render.Renderer
	flashes  *middleware.Flashes
	sessions *middleware.Sessions

	Now func() time.Time
}

func NewAccountsHandler(st *store.Storage, rd *render.Renderer, flashes *middleware.Flashes, sessions *middleware.Sessions) *AccountsHandler {
	return &AccountsHandler{store: st, render: rd, flashes: flashes, sessions: sessions, Now: time.Now}
}

type LoginData struct {
	Next     string
	Username string
	Error    string
}

type SignupData struct {
	Username  string
	FirstName string
	LastName  string
	Errors    []string
}

type loginInput struct {
	Username string `schema:"username"`
	Password string `schema:"password"`
	Next     string `schema:"next"`
}

type signupInput struct {
	Username  string `schema:"username" validate:"required,max=150,username"`
	FirstName string `schema:"first_name" validate:"max=150"`
	LastName  string `schema:"last_name" validate:"max=150"`
	Password1 string `schema:"password1" validate:"min=8,bcryptlen"`
	Password2 string `schema:"password2" validate:"eqfield=Password1"`
}

var signupMessages = map[string]string{
	"Username.required":   "Username is required.",
	"Username.max":        "Username must be 150 characters or fewer.",
	"Username.username":   "Username may contain only letters, numbers, and @/./+/-/_ characters.",
	"FirstName.max":       "First name must be 150 characters or fewer.",
	"LastName.max":        "Last name must be 150 characters or fewer.",
	"Password1.min":       "Password must contain at least 8 characters.",
	"Password1.bcryptlen": "Password must be 72 bytes or fewer.",
	"Password2.eqfield":   "The two password fields didn't match.",
}

// LoginForm handles GET /accounts/login/
func (h *AccountsHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, render.PageLogin, LoginData{
		Next: r.URL.Query().Get("next"),
	})
}

// Login handles POST /accounts/login/
func (h *AccountsHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := decodeForm(r, &in); err != nil {
		h.render.Error(w, r, http.StatusBadRequest, "The login form could not be read.")
		return
	}
	data := LoginData{
		Next:     in.Next,
		Username: strings.TrimSpace(in.Username),
	}
	password := in.Password

	user, err := h.store.UserByUsername(r.Context(), data.Username)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		data.Error = models.MsgBadLogin
	case err != nil:
		h.render.ServerError(w, r, err)
		return
	case auth.CheckPassword(user.PassHash, password) != nil:
		data.Error = models.MsgBadLogin
	}

	if data.Error != "" {
		slog.Info("login failed", "username", data.Username, "remote", middleware.GetClientIP(r))
		h.render.HTML(w, r, http.StatusOK, render.PageLogin, data)
		return
	}

	if err := h.sessions.Login(w, user.ID, h.Now()); err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, SafeNext(data.Next), http.StatusFound)
}

// Logout handles POST /accounts/logout/
func (h *AccountsHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	h.flashes.Add(w, r, models.Message{Level: models.LevelInfo, Text: "You have been logged out."})
	http.Redirect(w, r, IndexURL, http.StatusFound)
}

// SignupForm handles GET /accounts/signup/
func (h *AccountsHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, render.PageSignup, SignupData{})
}

// Signup handles POST /accounts/signup/, creating the user and logging them in
func (h *AccountsHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	decodeErr := decodeForm(r, &in)

	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	data := SignupData{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if decodeErr != nil {
		data.Errors = decodeErrors(decodeErr)
	}
	data.Errors = append(data.Errors, validateSignup(in)...)

	if len(data.Errors) == 0 {
		user, err := h.createUser(r, data, in.Password1)
		switch {
		case errors.Is(err, store.ErrUserExists):
			data.Errors = append(data.Errors, "A user with that username already exists.")
		case err != nil:
			h.render.ServerError(w, r, err)
			return
		default:
			if err := h.sessions.Login(w, user.ID, h.Now()); err != nil {
				h.render.ServerError(w, r, err)
				return
			}
			slog.Info("user signed up", "user_id", user.ID, "username", user.Username)
			h.flashes.Success(w, r, "Welcome, "+user.DisplayName()+".")
			http.Redirect(w, r, IndexURL, http.StatusFound)
			return
		}
	}

	h.render.HTML(w, r, http.StatusOK, render.PageSignup, data)
}

func (h *AccountsHandler) createUser(r *http.Request, data SignupData, password string) (models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Username:  data.Username,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		PassHash:  hash,
		CreatedAt: h.Now(),
	}
	user.ID, err = h.store.CreateUser(r.Context(), user)
	return user, err
}

func validateSignup(in signupInput) []string {
	return fieldErrors(validate.Struct(in), signupMessages)
}

// SafeNext returns next when it is a path on this site, or the index.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return IndexURL
	}

	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return IndexURL
	}
	return next
}
