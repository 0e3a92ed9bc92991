// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/ku-polls/auth"
	"github.com/danielhkuo/ku-polls/middleware"
	"github.com/danielhkuo/ku-polls/models"
	"github.com/danielhkuo/ku-polls/testutil"
)

func TestLoginForm(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.accounts.LoginForm(w, testutil.MakeRequest("GET", "/accounts/login/?next=/polls/2/vote/"))

	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `name="next" value="/polls/2/vote/"`)
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	user := testutil.CreateTestUser(t, app.db, "alice", false)

	testCases := []struct {
		name     string
		next     string
		location string
	}{
		{"default", "", "/polls/"},
		{"local next", "/polls/3/", "/polls/3/"},
		{"external next", "https://evil.example/", "/polls/"},
		{"protocol relative next", "//evil.example/", "/polls/"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			form := url.Values{
				"username": {"alice"},
				"password": {testutil.TestPassword},
				"next":     {tc.next},
			}
			w := httptest.NewRecorder()

			app.accounts.Login(w, testutil.MakeFormRequest("POST", "/accounts/login/", form))

			testutil.AssertRedirect(t, w, tc.location)

			cookie := testutil.ResponseCookie(w, middleware.SessionCookieName)
			require.NotNil(t, cookie)
			assert.True(t, cookie.HttpOnly)

			uid, err := auth.ParseSessionToken(cookie.Value, app.cfg.SecretKey)
			require.NoError(t, err)
			assert.Equal(t, user.ID, uid)
		})
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateTestUser(t, app.db, "alice", false)

	testCases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "nope-nope"},
		{"unknown user", "mallory", testutil.TestPassword},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			form := url.Values{"username": {tc.username}, "password": {tc.password}}
			w := httptest.NewRecorder()

			app.accounts.Login(w, testutil.MakeFormRequest("POST", "/accounts/login/", form))

			testutil.AssertStatus(t, w, http.StatusOK)
			assert.Contains(t, w.Body.String(), models.MsgBadLogin)
			assert.Nil(t, testutil.ResponseCookie(w, middleware.SessionCookieName))
		})
	}
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.accounts.Logout(w, testutil.MakeRequest("POST", "/accounts/logout/"))

	testutil.AssertRedirect(t, w, IndexURL)
	cookie := testutil.ResponseCookie(w, middleware.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Negative(t, cookie.MaxAge)

	msgs := app.popFlashes(t, w)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.LevelInfo, msgs[0].Level)
}

func TestSignup(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{
		"username":   {"new.user"},
		"first_name": {"New"},
		"last_name":  {"User"},
		"password1":  {"long-enough"},
		"password2":  {"long-enough"},
	}
	w := httptest.NewRecorder()

	app.accounts.Signup(w, testutil.MakeFormRequest("POST", "/accounts/signup/", form))

	testutil.AssertRedirect(t, w, IndexURL)
	require.NotNil(t, testutil.ResponseCookie(w, middleware.SessionCookieName))

	user, err := app.store.UserByUsername(context.Background(), "new.user")
	require.NoError(t, err)
	assert.Equal(t, "New User", user.DisplayName())
	assert.False(t, user.IsStaff)
	assert.NoError(t, auth.CheckPassword(user.PassHash, "long-enough"))

	msgs := app.popFlashes(t, w)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Welcome, New User.", msgs[0].Text)
}

func TestSignup_Invalid(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateTestUser(t, app.db, "taken", false)

	testCases := []struct {
		name      string
		username  string
		password1 string
		password2 string
		errText   string
	}{
		{"missing username", "", "long-enough", "long-enough", "Username is required."},
		{"bad characters", "white space", "long-enough", "long-enough", "Username may contain only"},
		{"short password", "bob", "short", "short", "at least 8 characters"},
		{"mismatch", "bob", "long-enough", "long-enougH", "didn&#39;t match"},
		{"duplicate", "taken", "long-enough", "long-enough", "already exists"},
		{"password over 72 bytes", "bob", strings.Repeat("p", 80), strings.Repeat("p", 80), "72 bytes or fewer"},
		{"multibyte password over 72 bytes", "bob", strings.Repeat("ก", 30), strings.Repeat("ก", 30), "72 bytes or fewer"},
		{"long username", strings.Repeat("u", 151), "long-enough", "long-enough", "150 characters or fewer"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			form := url.Values{
				"username":  {tc.username},
				"password1": {tc.password1},
				"password2": {tc.password2},
			}
			w := httptest.NewRecorder()

			app.accounts.Signup(w, testutil.MakeFormRequest("POST", "/accounts/signup/", form))

			testutil.AssertStatus(t, w, http.StatusOK)
			assert.Contains(t, w.Body.String(), tc.errText)
			assert.Nil(t, testutil.ResponseCookie(w, middleware.SessionCookieName))
		})
	}

	assert.Equal(t, 1, testutil.CountRows(t, app.db, "users", ""))
}

func TestSignup_UnicodeUsername(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{
		"username":  {"สมชาย"},
		"password1": {"long-enough"},
		"password2": {"long-enough"},
	}
	w := httptest.NewRecorder()

	app.accounts.Signup(w, testutil.MakeFormRequest("POST", "/accounts/signup/", form))

	testutil.AssertRedirect(t, w, IndexURL)
	_, err := app.store.UserByUsername(context.Background(), "สมชาย")
	require.NoError(t, err)
}

func TestSafeNext(t *testing.T) {
	testCases := []struct {
		next string
		want string
	}{
		{"", "/polls/"},
		{"/polls/1/", "/polls/1/"},
		{"/polls/1/vote/?x=1", "/polls/1/vote/?x=1"},
		{"polls/1/", "/polls/"},
		{"//evil.example", "/polls/"},
		{`/\evil.example`, "/polls/"},
		{"https://evil.example/", "/polls/"},
		{"javascript:alert(1)", "/polls/"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, SafeNext(tc.next), "SafeNext(%q)", tc.next)
	}
}
