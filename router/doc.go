// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines the HTTP routes for the live survey.

# Route Registration

NewRouter returns a chi router with every page registered:

	h := router.NewRouter(st, sessions, cfg)

Panics inside a handler are recovered and answered with 500.

# Endpoints

Health:

	GET /health - {"status":"ok","store":"sqlite"}

Voting:

	GET/POST /          - Vote on the active PIN
	GET/POST /enter_pin - Choose the active PIN
	GET      /logout    - Forget the PIN and voted flags

Results (public):

	GET/POST /show - Results for ?pin= or the active PIN

Administration:

	GET/POST /update      - Edit question, options and PIN
	GET/POST /update_yaml - Import a ballot as YAML
	GET/POST /reset       - Zero every tally

Other methods on these paths get 405.
*/
package router
