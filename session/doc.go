// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session keeps per-visitor state on the server.

The browser only holds a cookie with a random UUID and its HMAC
signature. Everything else stays in memory:

  - Authenticated and PIN: set when the visitor enters a valid PIN
  - Voted: one flag per PIN the visitor has voted on
  - Flashes: one-shot messages shown on the next page

# Usage

	sess := sessions.Load(r)
	sess.Enter(pin)
	sess.AddFlash(session.FlashSuccess, "Welcome")
	sessions.Save(w, sess)  // before writing headers
	http.Redirect(w, r, "/", http.StatusSeeOther)

Load hands out a copy; changes are only kept once Save runs.

# Lifetime

Sessions expire after the configured idle time (PERMANENT_SESSION_LIFETIME
minutes). Every Load or Save restarts the timer. Expired sessions are
swept whenever a new session is stored.

Sessions live in process memory, so a restart logs everyone out.
*/
package session
