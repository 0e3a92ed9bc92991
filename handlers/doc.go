// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for the KU Polls site.

# Handler Types

Each handler is a struct holding the storage layer, the page renderer and
the flash message store:

  - PollHandler: question list, voting form, vote submission, results
  - AccountsHandler: login, logout, signup
  - AdminHandler: staff-only question and choice editor

	polls := handlers.NewPollHandler(st, rd, flashes)

Every handler has a Now field (time.Now by default) that supplies the
clock for the voting window.

# Voting Window

A question accepts votes while pub_date <= now < end_date. Outside that
window the detail and vote routes redirect to /polls/ with an error flash:

	pub_date > now   "The question is not available for vote"
	now >= end_date  "The question vote is ended"

Submitting the vote form without a choice that belongs to the question
re-renders the form with "You didn't select choice answer." and leaves
every count unchanged.

# Admin Form

The question form posts question_text, pub_date and end_date
(datetime-local, read in the configured time zone) followed by rows of
choices.N.id, choices.N.text and choices.N.delete. Forms are decoded with
gorilla/schema and checked with go-playground/validator struct tags.
Rows without an id and without text are ignored, so the three extra blank
rows cost nothing.
*/
package handlers
