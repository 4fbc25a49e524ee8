// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handler groups of the VAMP server:
// Public (cached showcase pages), Auth (GitHub sign-in), Member (the
// signed-in area) and Admin (grant management).
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vamp/internal/cache"
	"vamp/internal/middleware"
	"vamp/internal/models"
	"vamp/internal/render"
	"vamp/internal/slug"
	"vamp/internal/store"
)

// grantStatuses is the order statuses are offered in admin forms.
var grantStatuses = []models.GrantStatus{
	models.GrantStatusDraft,
	models.GrantStatusOpen,
	models.GrantStatusClosed,
}

// Admin groups the grant management handlers. All routes require the
// admin role.
type Admin struct {
	renderer  *render.Renderer
	grants    *store.GrantStore
	pageCache *cache.PageCache
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(renderer *render.Renderer, grants *store.GrantStore, pageCache *cache.PageCache) *Admin {
	return &Admin{
		renderer:  renderer,
		grants:    grants,
		pageCache: pageCache,
	}
}

// GrantsList renders every grant, drafts included.
func (a *Admin) GrantsList(w http.ResponseWriter, r *http.Request) {
	grants, err := a.grants.ListAll(r.Context())
	if err != nil {
		slog.Error("list grants failed", "error", err)
	}

	a.renderer.Page(w, r, "admin_grants", &render.PageData{
		Title: "Manage grants",
		Data: map[string]any{
			"Grants":   grants,
			"Statuses": grantStatuses,
		},
	})
}

// GrantNew renders the new grant form.
func (a *Admin) GrantNew(w http.ResponseWriter, r *http.Request) {
	a.grantForm(w, r, &models.Grant{Status: models.GrantStatusDraft}, true, "")
}

// GrantCreate handles the new grant form submission.
func (a *Admin) GrantCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	g, errMsg := grantFromForm(r)
	if errMsg != "" {
		a.grantForm(w, r, g, true, errMsg)
		return
	}
	g.CreatedBy = sess.ProfileID

	base := slug.Normalize(g.Title)
	if base == "" {
		a.grantForm(w, r, g, true, emptySlugMessage)
		return
	}

	created, err := store.CreateWithUniqueSlug(ctx, base, a.grants.SlugExists, func(s string) (*models.Grant, error) {
		g.Slug = s
		return a.grants.Create(ctx, g)
	})
	if err != nil {
		slog.Error("create grant failed", "error", err)
		a.grantForm(w, r, g, true, "Failed to create the grant. Please try again.")
		return
	}

	a.invalidateGrant(ctx, created.Slug)
	slog.Info("grant created", "slug", created.Slug, "by", sess.Username)
	http.Redirect(w, r, "/admin/grants", http.StatusSeeOther)
}

// GrantEdit renders the edit form for a grant.
func (a *Admin) GrantEdit(w http.ResponseWriter, r *http.Request) {
	g, ok := a.findGrant(w, r)
	if !ok {
		return
	}
	a.grantForm(w, r, g, false, "")
}

// GrantUpdate saves the edit form. The slug is kept.
func (a *Admin) GrantUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	g, ok := a.findGrant(w, r)
	if !ok {
		return
	}

	form, errMsg := grantFromForm(r)
	form.ID = g.ID
	form.Slug = g.Slug
	form.CreatedBy = g.CreatedBy
	if errMsg != "" {
		a.grantForm(w, r, form, false, errMsg)
		return
	}

	if err := a.grants.Update(ctx, form); err != nil {
		slog.Error("update grant failed", "error", err, "id", g.ID)
		a.grantForm(w, r, form, false, "Failed to save the grant. Please try again.")
		return
	}

	a.invalidateGrant(ctx, g.Slug)
	http.Redirect(w, r, "/admin/grants", http.StatusSeeOther)
}

// GrantStatus moves a grant to the posted status.
func (a *Admin) GrantStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	g, ok := a.findGrant(w, r)
	if !ok {
		return
	}

	status := models.GrantStatus(r.FormValue("status"))
	if !models.ValidGrantStatus(status) {
		a.renderer.Error(w, r, http.StatusBadRequest, "Unknown grant status.")
		return
	}

	if status != g.Status {
		if err := a.grants.SetStatus(ctx, g.ID, status); err != nil {
			slog.Error("set grant status failed", "error", err, "id", g.ID)
			a.renderer.Error(w, r, http.StatusInternalServerError, "")
			return
		}
		a.invalidateGrant(ctx, g.Slug)
		slog.Info("grant status changed", "slug", g.Slug, "from", g.Status, "to", status)
	}

	http.Redirect(w, r, "/admin/grants", http.StatusSeeOther)
}

// findGrant loads the grant named by the {id} URL parameter.
func (a *Admin) findGrant(w http.ResponseWriter, r *http.Request) (*models.Grant, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.renderer.Error(w, r, http.StatusBadRequest, "Invalid ID")
		return nil, false
	}

	g, err := a.grants.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find grant failed", "error", err, "id", id)
		a.renderer.Error(w, r, http.StatusInternalServerError, "")
		return nil, false
	}
	if g == nil {
		a.renderer.Error(w, r, http.StatusNotFound, "Grant not found.")
		return nil, false
	}
	return g, true
}

func (a *Admin) grantForm(w http.ResponseWriter, r *http.Request, g *models.Grant, isNew bool, errMsg string) {
	title := "Edit grant"
	if isNew {
		title = "New grant"
	}
	data := map[string]any{
		"Grant":    g,
		"IsNew":    isNew,
		"Statuses": grantStatuses,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.Page(w, r, "grant_form", &render.PageData{Title: title, Data: data})
}

// grantFromForm reads the grant form. The returned grant is always usable
// for re-rendering the form; the message is non-empty when it is invalid.
func grantFromForm(r *http.Request) (*models.Grant, string) {
	g := &models.Grant{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Prize:       strings.TrimSpace(r.FormValue("prize")),
		Description: r.FormValue("description"),
		Status:      models.GrantStatus(r.FormValue("status")),
	}
	if g.Status == "" {
		g.Status = models.GrantStatusDraft
	}
	if !models.ValidGrantStatus(g.Status) {
		return g, "Unknown grant status."
	}

	var err error
	if g.OpensAt, err = parseDateInput(r.FormValue("opens_at")); err != nil {
		return g, "Opening time is not a valid date."
	}
	if g.ClosesAt, err = parseDateInput(r.FormValue("closes_at")); err != nil {
		return g, "Closing time is not a valid date."
	}

	return g, validateGrant(g.Title, g.Prize, g.Description, g.OpensAt, g.ClosesAt)
}

// invalidateGrant drops the cached pages that list or show the grant.
func (a *Admin) invalidateGrant(ctx context.Context, grantSlug string) {
	a.pageCache.Invalidate(ctx, cache.HomepageKey(), cache.GrantsKey(), cache.GrantKey(grantSlug))
}
