// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/danielhkuo/ku-polls/auth"
	"github.com/danielhkuo/ku-polls/models"
)

const (
	SessionCookieName = "sessionid"
	LoginURL          = "/accounts/login/"
)

type contextKey int

const userKey contextKey = iota

// UserLoader fetches the user a session token refers to
type UserLoader func(ctx context.Context, id int64) (models.User, error)

// Sessions issues and reads the signed session cookie
type Sessions struct {
	secret string
	ttl    time.Duration
	secure bool
	load   UserLoader
}

func NewSessions(secret string, ttl time.Duration, secure bool, load UserLoader) *Sessions {
	return &Sessions{secret: secret, ttl: ttl, secure: secure, load: load}
}

// LoadUser attaches the logged-in user, if any, to the request context.
// Invalid or stale cookies are cleared and the request continues anonymously.
func (s *Sessions) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		uid, err := auth.ParseSessionToken(cookie.Value, s.secret)
		if err != nil {
			slog.Debug("rejected session cookie", "error", err)
			s.Clear(w)
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.load(r.Context(), uid)
		if err != nil {
			slog.Debug("session user not loaded", "user_id", uid, "error", err)
			s.Clear(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &user)))
	})
}

// Login sets a fresh session cookie for the user
func (s *Sessions) Login(w http.ResponseWriter, userID int64, now time.Time) error {
	token, err := auth.IssueSessionToken(userID, s.secret, s.ttl, now)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(s.ttl),
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the logged-in user
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// RequireLogin redirects anonymous users to the login page
func RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			redirectToLogin(w, r)
			return
		}
		next(w, r)
	}
}

// RequireStaff lets only staff users through. Anonymous users are sent to
// the login page; others get forbidden, or a plain 403 when it is nil.
func RequireStaff(next, forbidden http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			redirectToLogin(w, r)
			return
		}
		if !user.IsStaff {
			if forbidden == nil {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			forbidden(w, r)
			return
		}
		next(w, r)
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginURL + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}
