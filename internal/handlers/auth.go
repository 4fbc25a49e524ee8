// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"vamp/internal/avatar"
	"vamp/internal/cache"
	"vamp/internal/middleware"
	"vamp/internal/oauth"
	"vamp/internal/render"
	"vamp/internal/session"
	"vamp/internal/store"
)

// afterLoginPath is where members land after signing in.
const afterLoginPath = "/me/projects"

// Auth groups the GitHub sign-in flow and logout.
type Auth struct {
	renderer  *render.Renderer
	sessions  *session.Store
	profiles  *store.ProfileStore
	provider  oauth.Provider
	avatars   *avatar.Cacher
	pageCache *cache.PageCache
	isAdmin   func(login string) bool
	secure    bool
}

// AuthConfig carries the optional collaborators of the Auth group.
// Provider is nil when GitHub sign-in is not configured; Avatars is nil
// when object storage is not configured.
type AuthConfig struct {
	Provider  oauth.Provider
	Avatars   *avatar.Cacher
	PageCache *cache.PageCache
	IsAdmin   func(login string) bool
	Secure    bool
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, profiles *store.ProfileStore, cfg AuthConfig) *Auth {
	isAdmin := cfg.IsAdmin
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &Auth{
		renderer:  renderer,
		sessions:  sessions,
		profiles:  profiles,
		provider:  cfg.Provider,
		avatars:   cfg.Avatars,
		pageCache: cfg.PageCache,
		isAdmin:   isAdmin,
		secure:    cfg.Secure,
	}
}

// LoginPage renders the sign-in page. Signed-in members are redirected.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, afterLoginPath, http.StatusSeeOther)
		return
	}
	a.loginPage(w, r, "")
}

func (a *Auth) loginPage(w http.ResponseWriter, r *http.Request, errMsg string) {
	data := map[string]any{"Configured": a.provider != nil}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
		Data:  data,
	})
}

// GitHubStart stores a fresh state value and redirects to GitHub.
func (a *Auth) GitHubStart(w http.ResponseWriter, r *http.Request) {
	if a.provider == nil {
		a.renderer.Error(w, r, http.StatusNotFound, "GitHub sign-in is not configured.")
		return
	}

	state, err := session.NewState(w, a.secure)
	if err != nil {
		slog.Error("oauth state failed", "error", err)
		a.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	http.Redirect(w, r, a.provider.AuthCodeURL(state), http.StatusFound)
}

// GitHubCallback completes the sign-in: it verifies the state, exchanges
// the code, loads the GitHub account, upserts the profile, caches the
// avatar and starts a session.
func (a *Auth) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	if a.provider == nil {
		a.renderer.Error(w, r, http.StatusNotFound, "GitHub sign-in is not configured.")
		return
	}
	ctx := r.Context()
	q := r.URL.Query()

	if !session.ConsumeState(w, r, q.Get("state"), a.secure) {
		slog.Warn("oauth state mismatch", "remote", r.RemoteAddr)
		a.loginPage(w, r, "Your sign-in attempt expired. Please try again.")
		return
	}

	if errCode := q.Get("error"); errCode != "" {
		slog.Info("oauth authorization denied", "error", errCode)
		a.loginPage(w, r, "GitHub sign-in was cancelled.")
		return
	}

	code := q.Get("code")
	if code == "" {
		a.loginPage(w, r, "GitHub did not return an authorization code.")
		return
	}

	token, err := a.provider.Exchange(ctx, code)
	if err != nil {
		slog.Error("oauth exchange failed", "error", err)
		a.loginPage(w, r, "Could not complete GitHub sign-in. Please try again.")
		return
	}

	info, err := a.provider.FetchUserInfo(ctx, token)
	if errors.Is(err, oauth.ErrEmailNotVerified) {
		a.loginPage(w, r, "Your GitHub account needs a verified email address.")
		return
	}
	if err != nil {
		slog.Error("oauth user info failed", "error", err)
		a.loginPage(w, r, "Could not load your GitHub account. Please try again.")
		return
	}

	profile, created, err := a.profiles.UpsertFromGitHub(ctx, info.ID, info.Login, info.DisplayName(), a.isAdmin(info.Login))
	if err != nil {
		slog.Error("profile upsert failed", "error", err, "login", info.Login)
		a.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	avatarURL := a.avatars.Cache(ctx, profile.ID, info.AvatarURL, profile.AvatarURL)
	if avatarURL != profile.AvatarURL {
		if err := a.profiles.SetAvatarURL(ctx, profile.ID, avatarURL); err != nil {
			slog.Error("set avatar url failed", "error", err, "profile_id", profile.ID)
		} else {
			profile.AvatarURL = avatarURL
			a.invalidateProfile(r, profile.Username)
		}
	}
	if created {
		a.invalidateProfile(r, profile.Username)
	}

	_, err = a.sessions.Create(ctx, w, &session.Data{
		ProfileID:   profile.ID,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
		Role:        string(profile.Role),
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		a.renderer.Error(w, r, http.StatusInternalServerError, "")
		return
	}

	slog.Info("member signed in", "username", profile.Username, "new", created)
	http.Redirect(w, r, afterLoginPath, http.StatusSeeOther)
}

// Logout destroys the session and redirects to the homepage.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Auth) invalidateProfile(r *http.Request, username string) {
	if a.pageCache == nil {
		return
	}
	a.pageCache.Invalidate(r.Context(), cache.MembersKey(), cache.ProfileKey(username))
}
