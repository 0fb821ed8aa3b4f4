// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	r.Get("/show", middleware.WithLogging(h.Show))

Logs request start (method, path, remote) and completion (status,
duration_ms).

# Responses

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusNotFound, "ballot not found")

ErrorResponse writes a short plain-text page; the HTML pages themselves
are rendered by the handlers package.

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Hashed with auth.HashIP before it is logged.
*/
package middleware
