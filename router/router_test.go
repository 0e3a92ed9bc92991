// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/danielhkuo/ku-polls/cliparse"
	"github.com/danielhkuo/ku-polls/models"
	"github.com/danielhkuo/ku-polls/testutil"
)

type fixture struct {
	db  *sql.DB
	cfg cliparse.Config
}

func newTestRouter(t *testing.T) (http.Handler, fixture) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler, err := NewRouter(db, cfg)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return handler, fixture{db: db, cfg: cfg}
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp models.HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if resp.Status != "ok" || resp.Database != "ok" {
		t.Errorf("Expected ok/ok, got %s/%s", resp.Status, resp.Database)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected request id header from logging middleware")
	}
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	handler, fx := newTestRouter(t)
	fx.db.Close()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error != "Service Unavailable" || resp.Message != "database unreachable" {
		t.Errorf("Expected Service Unavailable/database unreachable, got %s/%s", resp.Error, resp.Message)
	}
}

func TestRootEndpoint(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	testutil.AssertRedirect(t, w, "/polls/")
}

func TestRouteExistence(t *testing.T) {
	handler, fx := newTestRouter(t)

	q := testutil.CreateTestQuestion(t, fx.db, "Routed question.", -1)
	id := strconv.FormatInt(q.ID, 10)

	testCases := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/polls/", http.StatusOK},
		{"GET", "/polls/" + id + "/", http.StatusOK},
		{"GET", "/polls/" + id + "/results/", http.StatusOK},
		{"GET", "/polls/" + id + "/vote/", http.StatusFound},
		{"POST", "/polls/" + id + "/vote/", http.StatusFound},
		{"GET", "/accounts/login/", http.StatusOK},
		{"GET", "/accounts/signup/", http.StatusOK},
		{"POST", "/accounts/logout/", http.StatusFound},
		{"GET", "/admin/", http.StatusFound},
		{"GET", "/admin/questions/add/", http.StatusFound},
		{"GET", "/admin/questions/" + id + "/", http.StatusFound},
		{"GET", "/admin/questions/" + id + "/delete/", http.StatusFound},
		{"GET", "/static/style.css", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Errorf("Expected %d for %s %s, got %d", tc.status, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestUnknownPaths(t *testing.T) {
	handler, _ := newTestRouter(t)

	testCases := []string{
		"/polls",
		"/polls/1/extra/",
		"/polls/abc/",
		"/nothing-here",
	}

	for _, path := range testCases {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			// "/polls" is redirected to "/polls/" by the mux
			if w.Code != http.StatusNotFound && w.Code != http.StatusMovedPermanently {
				t.Errorf("Expected 404 for %s, got %d", path, w.Code)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"DELETE", "/polls/1/"},
		{"POST", "/polls/1/results/"},
		{"GET", "/accounts/logout/"},
		{"PUT", "/admin/questions/1/"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestVoteRequiresLogin(t *testing.T) {
	handler, fx := newTestRouter(t)

	q := testutil.CreateTestQuestion(t, fx.db, "Login first.", -1)
	c := testutil.AddTestChoice(t, fx.db, q.ID, "")
	path := fmt.Sprintf("/polls/%d/vote/", q.ID)

	form := url.Values{"choice": {strconv.FormatInt(c.ID, 10)}}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.MakeFormRequest("POST", path, form))

	testutil.AssertRedirect(t, w, "/accounts/login/?next="+url.QueryEscape(path))
	if votes := testutil.ChoiceVotes(t, fx.db, c.ID); votes != 0 {
		t.Errorf("Expected no votes, got %d", votes)
	}
}

func TestVoteWithSession(t *testing.T) {
	handler, fx := newTestRouter(t)

	q := testutil.CreateTestQuestion(t, fx.db, "Logged in vote.", -1)
	c := testutil.AddTestChoice(t, fx.db, q.ID, "")
	user := testutil.CreateTestUser(t, fx.db, "", false)
	session := testutil.SessionCookie(t, fx.cfg, user.ID)

	form := url.Values{"choice": {strconv.FormatInt(c.ID, 10)}}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.MakeFormRequest("POST", fmt.Sprintf("/polls/%d/vote/", q.ID), form, session))

	testutil.AssertRedirect(t, w, fmt.Sprintf("/polls/%d/results/", q.ID))
	if votes := testutil.ChoiceVotes(t, fx.db, c.ID); votes != 1 {
		t.Errorf("Expected 1 vote, got %d", votes)
	}
}

func TestLoginThenVote(t *testing.T) {
	handler, fx := newTestRouter(t)

	q := testutil.CreateTestQuestion(t, fx.db, "Full flow.", -1)
	c := testutil.AddTestChoice(t, fx.db, q.ID, "")
	user := testutil.CreateTestUser(t, fx.db, "flow-user", false)

	// Log in through the form
	form := url.Values{"username": {user.Username}, "password": {testutil.TestPassword}}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.MakeFormRequest("POST", "/accounts/login/", form))

	testutil.AssertRedirect(t, w, "/polls/")
	session := testutil.ResponseCookie(w, "sessionid")
	if session == nil {
		t.Fatal("Expected session cookie after login")
	}

	// The session shows up on the next page
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.MakeRequest("GET", "/polls/", session))
	if !strings.Contains(w.Body.String(), "Log out") {
		t.Error("Expected logged-in navigation on index")
	}

	vote := url.Values{"choice": {strconv.FormatInt(c.ID, 10)}}
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.MakeFormRequest("POST", fmt.Sprintf("/polls/%d/vote/", q.ID), vote, session))

	testutil.AssertStatus(t, w, http.StatusFound)
	if votes := testutil.ChoiceVotes(t, fx.db, c.ID); votes != 1 {
		t.Errorf("Expected 1 vote, got %d", votes)
	}
}

func TestFlashShownAfterRedirect(t *testing.T) {
	handler, fx := newTestRouter(t)

	q := testutil.CreateTestQuestion(t, fx.db, "Future question.", 5)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.MakeRequest("GET", fmt.Sprintf("/polls/%d/", q.ID)))
	testutil.AssertRedirect(t, w, "/polls/")

	flash := testutil.ResponseCookie(w, "messages")
	if flash == nil {
		t.Fatal("Expected flash cookie on redirect")
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.MakeRequest("GET", "/polls/", flash))

	if !strings.Contains(w.Body.String(), models.MsgNotAvailable) {
		t.Errorf("Expected flash message on index, body: %s", w.Body.String())
	}
}

func TestAdminAccess(t *testing.T) {
	handler, fx := newTestRouter(t)

	regular := testutil.CreateTestUser(t, fx.db, "", false)
	staff := testutil.CreateTestUser(t, fx.db, "", true)

	testCases := []struct {
		name   string
		cookie *http.Cookie
		status int
	}{
		{"anonymous", nil, http.StatusFound},
		{"regular user", testutil.SessionCookie(t, fx.cfg, regular.ID), http.StatusForbidden},
		{"staff", testutil.SessionCookie(t, fx.cfg, staff.ID), http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("GET", "/admin/")
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, tc.status)
			if tc.status == http.StatusFound {
				if loc := w.Header().Get("Location"); loc != "/accounts/login/?next=%2Fadmin%2F" {
					t.Errorf("Expected login redirect, got %q", loc)
				}
			}
		})
	}
}
