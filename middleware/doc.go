// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Each request gets an id (reused from X-Request-ID when the client sends
one) that is echoed back in the response header and logged with the
method, path, status and duration_ms.

# Sessions

Sessions.LoadUser reads the "sessionid" cookie, validates the signed token
and stores the user in the request context:

	sessions := middleware.NewSessions(secret, ttl, secure, store.UserByID)
	handler := sessions.LoadUser(mux)

	user, ok := middleware.UserFromContext(r.Context())

RequireLogin and RequireStaff guard individual routes. Anonymous users are
redirected to /accounts/login/?next=<request uri>.

# Flash Messages

Flashes carries one-shot messages across a redirect in a signed
"messages" cookie:

	flashes.Error(w, r, models.MsgVoteEnded)
	http.Redirect(w, r, "/polls/", http.StatusFound)

	msgs := flashes.Pop(w, r) // on the next rendered page

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unreachable")

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
