// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vamp/internal/cache"
	"vamp/internal/middleware"
	"vamp/internal/models"
	"vamp/internal/render"
	"vamp/internal/store"
)

// homepageProjects is how many recent projects the homepage lists.
const homepageProjects = 6

// Public groups handlers for the public showcase. Anonymous full-page
// requests are served from the Valkey page cache and stored on miss.
type Public struct {
	renderer    *render.Renderer
	profiles    *store.ProfileStore
	projects    *store.ProjectStore
	grants      *store.GrantStore
	submissions *store.SubmissionStore
	pageCache   *cache.PageCache
}

// NewPublic creates a new Public handler group.
func NewPublic(renderer *render.Renderer, profiles *store.ProfileStore, projects *store.ProjectStore, grants *store.GrantStore, submissions *store.SubmissionStore, pageCache *cache.PageCache) *Public {
	return &Public{
		renderer:    renderer,
		profiles:    profiles,
		projects:    projects,
		grants:      grants,
		submissions: submissions,
		pageCache:   pageCache,
	}
}

// Homepage renders the latest projects and the open grants.
func (p *Public) Homepage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cache.HomepageKey()
	if p.serveCached(w, r, key) {
		return
	}

	projects, err := p.projects.ListPublished(ctx, homepageProjects)
	if err != nil {
		slog.Error("list published projects failed", "error", err)
	}
	grants, err := p.grants.ListOpen(ctx)
	if err != nil {
		slog.Error("list open grants failed", "error", err)
	}
	count, err := p.projects.CountPublished(ctx)
	if err != nil {
		slog.Error("count projects failed", "error", err)
	}

	p.page(w, r, key, "home", &render.PageData{
		Data: map[string]any{
			"Projects":     projects,
			"Grants":       grants,
			"ProjectCount": count,
		},
	})
}

// Projects renders every published project, newest first.
func (p *Public) Projects(w http.ResponseWriter, r *http.Request) {
	key := cache.ProjectsKey()
	if p.serveCached(w, r, key) {
		return
	}

	projects, err := p.projects.ListPublished(r.Context(), 0)
	if err != nil {
		slog.Error("list published projects failed", "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	p.page(w, r, key, "projects", &render.PageData{
		Title: "Projects",
		Data:  map[string]any{"Projects": projects},
	})
}

// Project renders a published project by its slug.
func (p *Public) Project(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	key := cache.ProjectKey(slugParam)
	if p.serveCached(w, r, key) {
		return
	}

	project, err := p.projects.FindBySlug(r.Context(), slugParam)
	if err != nil {
		slog.Error("find project by slug failed", "error", err, "slug", slugParam)
		p.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}
	if project == nil {
		p.renderer.Error(w, r, http.StatusNotFound, "Project not found.")
		return
	}

	p.page(w, r, key, "project", &render.PageData{
		Title: project.Title,
		Data:  map[string]any{"Project": project},
	})
}

// Grants renders the open and closed grants.
func (p *Public) Grants(w http.ResponseWriter, r *http.Request) {
	key := cache.GrantsKey()
	if p.serveCached(w, r, key) {
		return
	}

	grants, err := p.grants.ListVisible(r.Context())
	if err != nil {
		slog.Error("list grants failed", "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	p.page(w, r, key, "grants", &render.PageData{
		Title: "Grants",
		Data:  map[string]any{"Grants": grants},
	})
}

// grantEntry pairs a member's published project with whether it is
// already entered into the grant being viewed.
type grantEntry struct {
	Project   models.Project
	Submitted bool
}

// Grant renders a grant with its submissions. Signed-in members also see
// their published projects with submit or withdraw actions.
func (p *Public) Grant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")
	key := cache.GrantKey(slugParam)
	if p.serveCached(w, r, key) {
		return
	}

	grant, err := p.grants.FindBySlug(ctx, slugParam)
	if err != nil {
		slog.Error("find grant by slug failed", "error", err, "slug", slugParam)
		p.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}
	if grant == nil {
		p.renderer.Error(w, r, http.StatusNotFound, "Grant not found.")
		return
	}

	submissions, err := p.submissions.ListByGrant(ctx, grant.ID)
	if err != nil {
		slog.Error("list submissions failed", "error", err, "grant_id", grant.ID)
	}

	data := map[string]any{
		"Grant":       grant,
		"Submissions": submissions,
		"Accepting":   grant.AcceptsSubmissions(time.Now()),
	}

	if sess := middleware.SessionFromCtx(ctx); sess != nil {
		data["Entries"] = p.memberEntries(r, sess.ProfileID, submissions)
	}

	p.page(w, r, key, "grant", &render.PageData{
		Title: grant.Title,
		Data:  data,
	})
}

// memberEntries lists the member's published projects and marks the ones
// already submitted.
func (p *Public) memberEntries(r *http.Request, profileID uuid.UUID, submissions []models.Submission) []grantEntry {
	projects, err := p.projects.ListPublishedByOwner(r.Context(), profileID)
	if err != nil {
		slog.Error("list member projects failed", "error", err, "profile_id", profileID)
		return nil
	}

	submitted := make(map[uuid.UUID]bool, len(submissions))
	for _, s := range submissions {
		submitted[s.ProjectID] = true
	}

	entries := make([]grantEntry, 0, len(projects))
	for _, proj := range projects {
		entries = append(entries, grantEntry{Project: proj, Submitted: submitted[proj.ID]})
	}
	return entries
}

// Members renders the member directory.
func (p *Public) Members(w http.ResponseWriter, r *http.Request) {
	key := cache.MembersKey()
	if p.serveCached(w, r, key) {
		return
	}

	members, err := p.profiles.List(r.Context())
	if err != nil {
		slog.Error("list profiles failed", "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	p.page(w, r, key, "members", &render.PageData{
		Title: "Members",
		Data:  map[string]any{"Members": members},
	})
}

// Member renders a member's public profile and published projects.
func (p *Public) Member(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")
	key := cache.ProfileKey(username)
	if p.serveCached(w, r, key) {
		return
	}

	profile, err := p.profiles.FindByUsername(ctx, username)
	if err != nil {
		slog.Error("find profile failed", "error", err, "username", username)
		p.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}
	if profile == nil {
		p.renderer.Error(w, r, http.StatusNotFound, "Member not found.")
		return
	}

	projects, err := p.projects.ListPublishedByOwner(ctx, profile.ID)
	if err != nil {
		slog.Error("list member projects failed", "error", err, "profile_id", profile.ID)
	}

	p.page(w, r, key, "member", &render.PageData{
		Title: profile.Name(),
		Data: map[string]any{
			"Profile":  profile,
			"Projects": projects,
		},
	})
}

// cacheable reports whether the response for r may come from, or go to,
// the page cache: only anonymous full-page requests qualify.
func cacheable(r *http.Request) bool {
	return middleware.SessionFromCtx(r.Context()) == nil && !render.IsHTMX(r)
}

// serveCached writes the cached page for key and reports whether it did.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if p.pageCache == nil || !cacheable(r) {
		return false
	}
	cached, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	writeHTML(w, cached)
	return true
}

// page renders a public page, storing it under key when cacheable.
func (p *Public) page(w http.ResponseWriter, r *http.Request, key, name string, data *render.PageData) {
	if p.pageCache == nil || !cacheable(r) {
		p.renderer.Page(w, r, name, data)
		return
	}

	rendered, err := p.renderer.Render(r, name, data)
	if err != nil {
		slog.Error("render page failed", "error", err, "template", name)
		p.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}
	p.pageCache.Set(r.Context(), key, rendered)
	writeHTML(w, rendered)
}

func writeHTML(w http.ResponseWriter, html []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}
