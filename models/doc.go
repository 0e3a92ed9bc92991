// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain and response types of the polls site.

# Domain Types

  - Question: poll prompt with a publication window
  - Choice: answer belonging to a question, with a cached vote count
  - Vote: a user's current choice for a question
  - User: account that can vote, and administer polls when IsStaff is set
  - Message: flash notice carried to the next rendered page

# Date Predicates

All predicates take the current time so callers control the clock:

	q.WasPublishedRecently(now) // now-24h <= PubDate <= now
	q.IsPublished(now)          // PubDate <= now < EndDate
	q.CanVote(now)              // same window as IsPublished

# Constants

Message levels:

	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"

The index page shows at most IndexSize questions.
*/
package models
