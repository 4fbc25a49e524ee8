// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vamp/internal/cache"
	"vamp/internal/middleware"
	"vamp/internal/models"
	"vamp/internal/render"
	"vamp/internal/session"
	"vamp/internal/slug"
	"vamp/internal/store"
)

// emptySlugMessage is shown when a title has nothing a URL can be made of.
const emptySlugMessage = "The title must contain at least one letter or digit (A-Z, 0-9)."

// Member groups the handlers of the signed-in member area: project
// management, profile editing and grant submissions.
type Member struct {
	renderer    *render.Renderer
	sessions    *session.Store
	profiles    *store.ProfileStore
	projects    *store.ProjectStore
	grants      *store.GrantStore
	submissions *store.SubmissionStore
	pageCache   *cache.PageCache
}

// NewMember creates a new Member handler group.
func NewMember(renderer *render.Renderer, sessions *session.Store, profiles *store.ProfileStore, projects *store.ProjectStore, grants *store.GrantStore, submissions *store.SubmissionStore, pageCache *cache.PageCache) *Member {
	return &Member{
		renderer:    renderer,
		sessions:    sessions,
		profiles:    profiles,
		projects:    projects,
		grants:      grants,
		submissions: submissions,
		pageCache:   pageCache,
	}
}

// --- Projects ---

// MyProjects lists every project the member owns, drafts included.
func (m *Member) MyProjects(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	projects, err := m.projects.ListByOwner(r.Context(), sess.ProfileID)
	if err != nil {
		slog.Error("list own projects failed", "error", err)
	}

	m.renderer.Page(w, r, "my_projects", &render.PageData{
		Title: "My projects",
		Data:  map[string]any{"Projects": projects},
	})
}

// ProjectNew renders the new project form.
func (m *Member) ProjectNew(w http.ResponseWriter, r *http.Request) {
	m.renderer.Page(w, r, "project_form", &render.PageData{
		Title: "New project",
		Data:  map[string]any{"IsNew": true},
	})
}

// ProjectCreate handles the new project form submission. The slug is
// derived from the title and suffixed when it is already taken.
func (m *Member) ProjectCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	p := projectFromForm(r)
	p.OwnerID = sess.ProfileID

	if errMsg := validateProject(p.Title, p.Summary, p.Description, p.RepoURL, p.DemoURL); errMsg != "" {
		m.projectForm(w, r, p, true, errMsg)
		return
	}

	base := slug.Normalize(p.Title)
	if base == "" {
		m.projectForm(w, r, p, true, emptySlugMessage)
		return
	}

	created, err := store.CreateWithUniqueSlug(ctx, base, m.projects.SlugExists, func(s string) (*models.Project, error) {
		p.Slug = s
		return m.projects.Create(ctx, p)
	})
	if err != nil {
		slog.Error("create project failed", "error", err)
		m.projectForm(w, r, p, true, "Failed to create the project. Please try again.")
		return
	}

	if created.IsPublished() {
		m.invalidateProject(ctx, created.Slug, sess.Username)
	}
	slog.Info("project created", "slug", created.Slug, "owner", sess.Username)
	http.Redirect(w, r, "/me/projects", http.StatusSeeOther)
}

// ProjectEdit renders the edit form for one of the member's projects.
func (m *Member) ProjectEdit(w http.ResponseWriter, r *http.Request) {
	project, ok := m.ownProject(w, r)
	if !ok {
		return
	}
	m.projectForm(w, r, project, false, "")
}

// ProjectUpdate saves the edit form. The slug is kept so published URLs
// stay stable when the title changes.
func (m *Member) ProjectUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	project, ok := m.ownProject(w, r)
	if !ok {
		return
	}
	wasPublished := project.IsPublished()
	oldTitle := project.Title

	form := projectFromForm(r)
	project.Title = form.Title
	project.Summary = form.Summary
	project.Description = form.Description
	project.RepoURL = form.RepoURL
	project.DemoURL = form.DemoURL
	project.Status = form.Status

	if errMsg := validateProject(project.Title, project.Summary, project.Description, project.RepoURL, project.DemoURL); errMsg != "" {
		m.projectForm(w, r, project, false, errMsg)
		return
	}

	if err := m.projects.Update(ctx, project); err != nil {
		slog.Error("update project failed", "error", err, "id", project.ID)
		m.projectForm(w, r, project, false, "Failed to save the project. Please try again.")
		return
	}

	switch {
	case wasPublished && (!project.IsPublished() || project.Title != oldTitle):
		// Grant pages list entries by title.
		m.pageCache.InvalidateAll(ctx)
	case project.IsPublished():
		m.invalidateProject(ctx, project.Slug, sess.Username)
	}
	http.Redirect(w, r, "/me/projects", http.StatusSeeOther)
}

// ProjectDelete removes one of the member's projects. HTMX requests get
// an empty fragment so the table row can be swapped out.
func (m *Member) ProjectDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, ok := m.ownProject(w, r)
	if !ok {
		return
	}

	if err := m.projects.Delete(ctx, project.ID); err != nil {
		slog.Error("delete project failed", "error", err, "id", project.ID)
		m.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	if project.IsPublished() {
		// Submissions cascade away with the project.
		m.pageCache.InvalidateAll(ctx)
	}

	if render.IsHTMX(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/me/projects", http.StatusSeeOther)
}

// ownProject loads the project named by the {id} URL parameter and checks
// that the signed-in member owns it. Other members' projects yield 404.
func (m *Member) ownProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		m.renderer.Error(w, r, http.StatusBadRequest, "Invalid ID")
		return nil, false
	}

	project, err := m.projects.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find project failed", "error", err, "id", id)
		m.renderer.Error(w, r, http.StatusInternalServerError, "")
		return nil, false
	}

	sess := middleware.SessionFromCtx(r.Context())
	if project == nil || project.OwnerID != sess.ProfileID {
		m.renderer.Error(w, r, http.StatusNotFound, "Project not found.")
		return nil, false
	}
	return project, true
}

func (m *Member) projectForm(w http.ResponseWriter, r *http.Request, p *models.Project, isNew bool, errMsg string) {
	title := "Edit project"
	if isNew {
		title = "New project"
	}
	data := map[string]any{
		"Project": p,
		"IsNew":   isNew,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	m.renderer.Page(w, r, "project_form", &render.PageData{Title: title, Data: data})
}

func projectFromForm(r *http.Request) *models.Project {
	status := models.ProjectStatus(r.FormValue("status"))
	if status != models.ProjectStatusPublished {
		status = models.ProjectStatusDraft
	}
	return &models.Project{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Summary:     strings.TrimSpace(r.FormValue("summary")),
		Description: r.FormValue("description"),
		RepoURL:     strings.TrimSpace(r.FormValue("repo_url")),
		DemoURL:     strings.TrimSpace(r.FormValue("demo_url")),
		Status:      status,
	}
}

// invalidateProject drops every cached page that lists or shows the project.
func (m *Member) invalidateProject(ctx context.Context, projectSlug, owner string) {
	m.pageCache.Invalidate(ctx,
		cache.HomepageKey(),
		cache.ProjectsKey(),
		cache.ProjectKey(projectSlug),
		cache.ProfileKey(owner),
	)
}

// --- Profile ---

// ProfileEdit renders the profile form.
func (m *Member) ProfileEdit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	profile, err := m.profiles.FindByID(r.Context(), sess.ProfileID)
	if err != nil || profile == nil {
		slog.Error("find own profile failed", "error", err, "profile_id", sess.ProfileID)
		m.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	m.renderer.Page(w, r, "profile_form", &render.PageData{
		Title: "Your profile",
		Data:  map[string]any{"Profile": profile},
	})
}

// ProfileUpdate saves the profile form and refreshes the session so the
// header shows the new display name.
func (m *Member) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	profile, err := m.profiles.FindByID(ctx, sess.ProfileID)
	if err != nil || profile == nil {
		slog.Error("find own profile failed", "error", err, "profile_id", sess.ProfileID)
		m.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	profile.DisplayName = strings.TrimSpace(r.FormValue("display_name"))
	profile.Bio = strings.TrimSpace(r.FormValue("bio"))
	profile.Website = strings.TrimSpace(r.FormValue("website"))

	if errMsg := validateProfile(profile.DisplayName, profile.Bio, profile.Website); errMsg != "" {
		m.renderer.Page(w, r, "profile_form", &render.PageData{
			Title: "Your profile",
			Data:  map[string]any{"Profile": profile, "Error": errMsg},
		})
		return
	}

	if err := m.profiles.UpdateProfile(ctx, profile); err != nil {
		slog.Error("update profile failed", "error", err, "profile_id", profile.ID)
		m.renderer.Page(w, r, "profile_form", &render.PageData{
			Title: "Your profile",
			Data:  map[string]any{"Profile": profile, "Error": "Failed to save your profile. Please try again."},
		})
		return
	}

	sess.DisplayName = profile.DisplayName
	if err := m.sessions.Update(ctx, r, sess); err != nil {
		slog.Warn("session refresh failed", "error", err)
	}

	m.pageCache.Invalidate(ctx, cache.MembersKey(), cache.ProfileKey(profile.Username))

	m.renderer.Page(w, r, "profile_form", &render.PageData{
		Title:   "Your profile",
		Session: sess,
		Data:    map[string]any{"Profile": profile},
		Flashes: []render.Flash{{Type: "success", Message: "Profile saved."}},
	})
}

// --- Grant submissions ---

// Submit enters one of the member's published projects into an open grant.
func (m *Member) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	grant, project, ok := m.submissionTarget(w, r)
	if !ok {
		return
	}
	if !grant.AcceptsSubmissions(time.Now()) {
		m.renderer.Error(w, r, http.StatusConflict, "This grant is not accepting submissions.")
		return
	}
	if !project.IsPublished() {
		m.renderer.Error(w, r, http.StatusConflict, "Only published projects can be submitted.")
		return
	}

	note := strings.TrimSpace(r.FormValue("note"))
	if errMsg := validateNote(note); errMsg != "" {
		m.renderer.Error(w, r, http.StatusBadRequest, errMsg)
		return
	}

	_, err := m.submissions.Create(ctx, &models.Submission{
		GrantID:     grant.ID,
		ProjectID:   project.ID,
		SubmittedBy: sess.ProfileID,
		Note:        note,
	})
	if err != nil && !errors.Is(err, store.ErrDuplicateSubmission) {
		slog.Error("create submission failed", "error", err, "grant", grant.Slug, "project", project.Slug)
		m.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	m.pageCache.Invalidate(ctx, cache.GrantKey(grant.Slug))
	http.Redirect(w, r, "/grants/"+grant.Slug, http.StatusSeeOther)
}

// Withdraw removes one of the member's projects from a grant. Withdrawing
// is allowed until the grant closes.
func (m *Member) Withdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	grant, project, ok := m.submissionTarget(w, r)
	if !ok {
		return
	}
	if grant.Status == models.GrantStatusClosed {
		m.renderer.Error(w, r, http.StatusConflict, "This grant is closed.")
		return
	}

	removed, err := m.submissions.Withdraw(ctx, grant.ID, project.ID, sess.ProfileID)
	if err != nil {
		slog.Error("withdraw submission failed", "error", err, "grant", grant.Slug, "project", project.Slug)
		m.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}
	if removed {
		m.pageCache.Invalidate(ctx, cache.GrantKey(grant.Slug))
	}
	http.Redirect(w, r, "/grants/"+grant.Slug, http.StatusSeeOther)
}

// submissionTarget resolves the {slug} grant and the project_id form
// value, which must name a project the member owns.
func (m *Member) submissionTarget(w http.ResponseWriter, r *http.Request) (*models.Grant, *models.Project, bool) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	grant, err := m.grants.FindBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("find grant failed", "error", err)
		m.renderer.Error(w, r, http.StatusInternalServerError, "")
		return nil, nil, false
	}
	if grant == nil {
		m.renderer.Error(w, r, http.StatusNotFound, "Grant not found.")
		return nil, nil, false
	}

	projectID, err := uuid.Parse(r.FormValue("project_id"))
	if err != nil {
		m.renderer.Error(w, r, http.StatusBadRequest, "Invalid project.")
		return nil, nil, false
	}
	project, err := m.projects.FindByID(ctx, projectID)
	if err != nil {
		slog.Error("find project failed", "error", err, "id", projectID)
		m.renderer.Error(w, r, http.StatusInternalServerError, "")
		return nil, nil, false
	}
	if project == nil || project.OwnerID != sess.ProfileID {
		m.renderer.Error(w, r, http.StatusNotFound, "Project not found.")
		return nil, nil, false
	}
	return grant, project, true
}
