// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/ku-polls/cliparse"
	"github.com/danielhkuo/ku-polls/handlers"
	"github.com/danielhkuo/ku-polls/middleware"
	"github.com/danielhkuo/ku-polls/models"
	"github.com/danielhkuo/ku-polls/render"
	"github.com/danielhkuo/ku-polls/store"
)

const healthTimeout = 2 * time.Second

func NewRouter(db *sql.DB, cfg cliparse.Config) (http.Handler, error) {
	st := store.New(db)
	flashes := middleware.NewFlashes(cfg.SecretKey, cfg.SecureCookies)
	sessions := middleware.NewSessions(cfg.SecretKey, cfg.SessionTTL, cfg.SecureCookies, st.UserByID)

	rd, err := render.New(cfg.Location, flashes)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(st, rd, flashes)
	accountsHandler := handlers.NewAccountsHandler(st, rd, flashes, sessions)
	adminHandler := handlers.NewAdminHandler(st, rd, flashes, cfg.Location)

	login := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireLogin(h))
	}
	staff := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireStaff(h, rd.Forbidden))
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", middleware.WithLogging(healthCheck(st)))

	// Polls (public, voting requires login)
	mux.HandleFunc("GET /polls/{$}", middleware.WithLogging(pollHandler.Index))
	mux.HandleFunc("GET /polls/{id}/{$}", middleware.WithLogging(pollHandler.Detail))
	mux.HandleFunc("POST /polls/{id}/vote/{$}", login(pollHandler.Vote))
	mux.HandleFunc("GET /polls/{id}/vote/{$}", middleware.WithLogging(pollHandler.VoteRedirect))
	mux.HandleFunc("GET /polls/{id}/results/{$}", middleware.WithLogging(pollHandler.Results))

	// Accounts
	mux.HandleFunc("GET /accounts/login/{$}", middleware.WithLogging(accountsHandler.LoginForm))
	mux.HandleFunc("POST /accounts/login/{$}", middleware.WithLogging(accountsHandler.Login))
	mux.HandleFunc("POST /accounts/logout/{$}", middleware.WithLogging(accountsHandler.Logout))
	mux.HandleFunc("GET /accounts/signup/{$}", middleware.WithLogging(accountsHandler.SignupForm))
	mux.HandleFunc("POST /accounts/signup/{$}", middleware.WithLogging(accountsHandler.Signup))

	// Admin (staff only)
	mux.HandleFunc("GET /admin/{$}", staff(adminHandler.Index))
	mux.HandleFunc("GET /admin/questions/add/{$}", staff(adminHandler.AddForm))
	mux.HandleFunc("POST /admin/questions/add/{$}", staff(adminHandler.Add))
	mux.HandleFunc("GET /admin/questions/{id}/{$}", staff(adminHandler.ChangeForm))
	mux.HandleFunc("POST /admin/questions/{id}/{$}", staff(adminHandler.Change))
	mux.HandleFunc("GET /admin/questions/{id}/delete/{$}", staff(adminHandler.DeleteConfirm))
	mux.HandleFunc("POST /admin/questions/{id}/delete/{$}", staff(adminHandler.Delete))

	// Static assets
	mux.Handle("GET /static/", render.Static())

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, handlers.IndexURL, http.StatusFound)
	})

	return sessions.LoadUser(mux), nil
}

func healthCheck(st *store.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}

		middleware.JSONResponse(w, http.StatusOK, models.HealthResponse{
			Status:   "ok",
			Database: "ok",
		})
	}
}
