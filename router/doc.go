// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the KU Polls site.

# Route Registration

NewRouter builds the storage layer, sessions, flash messages and
templates, and returns the full handler tree:

	handler, err := router.NewRouter(db, cfg)

The returned handler loads the session user before dispatching to an
http.ServeMux. Every trailing-slash route is anchored with {$}.

# Endpoints

Health:

	GET /health

Polls:

	GET  /polls/                - Five latest published questions
	GET  /polls/{id}/           - Voting form
	POST /polls/{id}/vote/      - Cast or change a vote (login required)
	GET  /polls/{id}/vote/      - Back to the voting form
	GET  /polls/{id}/results/   - Vote counts

Accounts:

	GET|POST /accounts/login/
	POST     /accounts/logout/
	GET|POST /accounts/signup/

Admin (staff only; anonymous users are sent to login, others get 403):

	GET      /admin/
	GET|POST /admin/questions/add/
	GET|POST /admin/questions/{id}/
	GET|POST /admin/questions/{id}/delete/

GET / redirects to /polls/ and GET /static/ serves the stylesheet.
*/
package router
