// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package render turns handler data into HTML pages.

Templates live in templates/ and are embedded in the binary. Each page is
parsed together with base.html, which defines the layout and calls the
page's "title" and "content" blocks:

	rd, err := render.New(cfg.Location, flashes)
	rd.HTML(w, r, http.StatusOK, render.PageIndex, data)

Every page executes with a Page value: the logged-in user, the flash
messages popped for this response, and the handler's Data.

# Template Functions

	naturaltime  "3 hours ago" (go-humanize)
	datetime     absolute time in the configured zone
	plural       "1 vote", "2 votes" (go-humanize/english)
	percent      whole-number share of a total

FormatLocal and LocalLayout produce the value of a datetime-local input.
*/
package render
