// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// ErrorResponder writes an error response for status. It has the shape of
// render.Renderer.Error so the styled error page (or its HTMX partial) can
// be used outside the handlers. An empty msg means the status text.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, status int, msg string)

// plainError is used when no ErrorResponder is configured.
func plainError(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	http.Error(w, msg, status)
}

// NewRecoverer returns middleware that turns a panic in a downstream
// handler into a logged 500 answered through respond. A nil respond falls
// back to a plain-text body. http.ErrAbortHandler is re-raised so the
// server can drop the connection as it expects.
func NewRecoverer(respond ErrorResponder) func(http.Handler) http.Handler {
	if respond == nil {
		respond = plainError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				slog.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"htmx", r.Header.Get("HX-Request") == "true",
					"stack", string(debug.Stack()),
				)
				respond(w, r, http.StatusInternalServerError, "Something broke on our side. Please try again.")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
