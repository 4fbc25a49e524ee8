// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// VAMP server. Routes are grouped into public, auth, member and admin
// areas with the middleware each one needs.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vamp/internal/handlers"
	"vamp/internal/middleware"
	"vamp/internal/session"
	"vamp/web"
)

// Handlers bundles the handler groups mounted by New.
type Handlers struct {
	Public *handlers.Public
	Auth   *handlers.Auth
	Member *handlers.Member
	Admin  *handlers.Admin

	// ErrorPage answers recovered panics, usually render.Renderer.Error.
	ErrorPage middleware.ErrorResponder
}

// New creates and returns the configured Chi router. authLimiter throttles
// the sign-in endpoints; secureCookies marks the CSRF cookie Secure.
func New(sessionStore *session.Store, h Handlers, authLimiter *middleware.RateLimiter, secureCookies bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.NewRecoverer(h.ErrorPage))
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check and static assets: no session, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(secureCookies))
		r.Use(middleware.LoadSession(sessionStore))

		// Public showcase.
		r.Get("/", h.Public.Homepage)
		r.Get("/projects", h.Public.Projects)
		r.Get("/projects/{slug}", h.Public.Project)
		r.Get("/grants", h.Public.Grants)
		r.Get("/grants/{slug}", h.Public.Grant)
		r.Get("/members", h.Public.Members)
		r.Get("/members/{username}", h.Public.Member)

		// Sign-in.
		r.Get("/login", h.Auth.LoginPage)
		r.Post("/logout", h.Auth.Logout)
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Get("/github", h.Auth.GitHubStart)
			r.Get("/github/callback", h.Auth.GitHubCallback)
		})

		// Member area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Route("/me", func(r chi.Router) {
				r.Route("/projects", func(r chi.Router) {
					r.Get("/", h.Member.MyProjects)
					r.Get("/new", h.Member.ProjectNew)
					r.Post("/", h.Member.ProjectCreate)
					r.Get("/{id}", h.Member.ProjectEdit)
					r.Post("/{id}", h.Member.ProjectUpdate)
					r.Post("/{id}/delete", h.Member.ProjectDelete)
				})
				r.Get("/profile", h.Member.ProfileEdit)
				r.Post("/profile", h.Member.ProfileUpdate)
			})

			r.Post("/grants/{slug}/submit", h.Member.Submit)
			r.Post("/grants/{slug}/withdraw", h.Member.Withdraw)
		})

		// Grant management, admins only.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireAdmin)

			r.Route("/grants", func(r chi.Router) {
				r.Get("/", h.Admin.GrantsList)
				r.Get("/new", h.Admin.GrantNew)
				r.Post("/", h.Admin.GrantCreate)
				r.Get("/{id}", h.Admin.GrantEdit)
				r.Post("/{id}", h.Admin.GrantUpdate)
				r.Post("/{id}/status", h.Admin.GrantStatus)
			})
		})
	})

	return r
}

// staticHandler serves the embedded web/static tree under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: static assets missing: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
