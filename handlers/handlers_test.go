// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/ku-polls/cliparse"
	"github.com/danielhkuo/ku-polls/middleware"
	"github.com/danielhkuo/ku-polls/models"
	"github.com/danielhkuo/ku-polls/render"
	"github.com/danielhkuo/ku-polls/store"
	"github.com/danielhkuo/ku-polls/testutil"
)

type testApp struct {
	db       *sql.DB
	cfg      cliparse.Config
	store    *store.Storage
	flashes  *middleware.Flashes
	sessions *middleware.Sessions
	polls    *PollHandler
	accounts *AccountsHandler
	admin    *AdminHandler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	st := store.New(db)
	flashes := middleware.NewFlashes(cfg.SecretKey, false)
	sessions := middleware.NewSessions(cfg.SecretKey, cfg.SessionTTL, false, st.UserByID)

	rd, err := render.New(cfg.Location, flashes)
	require.NoError(t, err)

	return &testApp{
		db:       db,
		cfg:      cfg,
		store:    st,
		flashes:  flashes,
		sessions: sessions,
		polls:    NewPollHandler(st, rd, flashes),
		accounts: NewAccountsHandler(st, rd, flashes, sessions),
		admin:    NewAdminHandler(st, rd, flashes, cfg.Location),
	}
}

// withID sets the {id} path value
func withID(req *http.Request, id int64) *http.Request {
	req.SetPathValue("id", strconv.FormatInt(id, 10))
	return req
}

// asUser puts the user in the request context as LoadUser would
func asUser(req *http.Request, u models.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), &u))
}

// popFlashes returns the flash messages a response queued
func (a *testApp) popFlashes(t *testing.T, w *httptest.ResponseRecorder) []models.Message {
	t.Helper()

	cookie := testutil.ResponseCookie(w, middleware.FlashCookieName)
	if cookie == nil {
		return nil
	}
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	return a.flashes.Pop(httptest.NewRecorder(), req)
}
