// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"vamp/internal/oauth"
)

var _ oauth.Provider = (*oauth.GitHubProvider)(nil)

var testConfig = oauth.GitHubConfig{
	ClientID:     "test-id",
	ClientSecret: "test-secret",
	RedirectURL:  "https://vamp.example.com/auth/github/callback",
}

func TestNewGitHubProvider(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		p, err := oauth.NewGitHubProvider(testConfig)
		require.NoError(t, err)
		require.NotNil(t, p)
		require.Equal(t, "github", p.Name())
	})

	t.Run("missing client ID", func(t *testing.T) {
		t.Parallel()
		p, err := oauth.NewGitHubProvider(oauth.GitHubConfig{ClientSecret: "s"})
		require.ErrorIs(t, err, oauth.ErrMissingClientID)
		require.Nil(t, p)
	})

	t.Run("missing client secret", func(t *testing.T) {
		t.Parallel()
		p, err := oauth.NewGitHubProvider(oauth.GitHubConfig{ClientID: "id"})
		require.ErrorIs(t, err, oauth.ErrMissingClientSecret)
		require.Nil(t, p)
	})

	t.Run("custom scopes replace defaults", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig
		cfg.Scopes = []string{"repo"}
		p, err := oauth.NewGitHubProvider(cfg)
		require.NoError(t, err)
		u := p.AuthCodeURL("state")
		require.Contains(t, u, "repo")
		require.NotContains(t, u, "read%3Auser")
	})
}

func TestGitHubProvider_AuthCodeURL(t *testing.T) {
	t.Parallel()

	p, err := oauth.NewGitHubProvider(testConfig)
	require.NoError(t, err)

	u := p.AuthCodeURL("test-state")
	require.True(t, strings.HasPrefix(u, "https://github.com/login/oauth/authorize?"))
	require.Contains(t, u, "state=test-state")
	require.Contains(t, u, "client_id=test-id")
	require.Contains(t, u, "redirect_uri=")
	require.Contains(t, u, "vamp.example.com")
	require.Contains(t, u, "scope=read%3Auser+user%3Aemail")
}

func TestGitHubProvider_Exchange(t *testing.T) {
	t.Parallel()

	t.Run("successful exchange", func(t *testing.T) {
		t.Parallel()
		transport := &githubRewriteTransport{
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				require.Equal(t, "good-code", r.PostForm.Get("code"))
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"access_token": "gh-test-token",
					"token_type":   "Bearer",
				})
			}),
		}
		p, err := oauth.NewGitHubProvider(testConfig, oauth.WithHTTPClient(&http.Client{Transport: transport}))
		require.NoError(t, err)

		token, err := p.Exchange(context.Background(), "good-code")
		require.NoError(t, err)
		require.Equal(t, "gh-test-token", token.AccessToken)
	})

	t.Run("invalid code", func(t *testing.T) {
		t.Parallel()
		transport := &githubRewriteTransport{
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			}),
		}
		p, err := oauth.NewGitHubProvider(testConfig, oauth.WithHTTPClient(&http.Client{Transport: transport}))
		require.NoError(t, err)

		_, err = p.Exchange(context.Background(), "bad-code")
		require.Error(t, err)
	})
}

func TestGitHubProvider_FetchUserInfo(t *testing.T) {
	t.Parallel()

	user := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         42,
			"login":      "octocat",
			"name":       "The Octocat",
			"avatar_url": "https://avatars.githubusercontent.com/u/42",
		})
	}
	emails := func(list ...map[string]any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(list)
		}
	}
	status := func(code int) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(code) }
	}
	garbage := func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not-json")) }

	tests := []struct {
		name      string
		user      http.HandlerFunc
		emails    http.HandlerFunc
		wantErr   error
		wantEmail string
	}{
		{
			name: "primary verified email",
			user: user,
			emails: emails(
				map[string]any{"email": "secondary@example.com", "primary": false, "verified": true},
				map[string]any{"email": "primary@example.com", "primary": true, "verified": true},
			),
			wantEmail: "primary@example.com",
		},
		{
			name: "fallback verified email",
			user: user,
			emails: emails(
				map[string]any{"email": "unverified@example.com", "primary": true, "verified": false},
				map[string]any{"email": "verified@example.com", "primary": false, "verified": true},
			),
			wantEmail: "verified@example.com",
		},
		{
			name:    "no verified email",
			user:    user,
			emails:  emails(map[string]any{"email": "nope@example.com", "primary": true, "verified": false}),
			wantErr: oauth.ErrEmailNotVerified,
		},
		{name: "user endpoint error", user: status(http.StatusInternalServerError), emails: emails(), wantErr: oauth.ErrRequestFailed},
		{name: "emails endpoint error", user: user, emails: status(http.StatusForbidden), wantErr: oauth.ErrRequestFailed},
		{name: "bad JSON from user endpoint", user: garbage, emails: emails(), wantErr: oauth.ErrDecodeFailed},
		{name: "bad JSON from emails endpoint", user: user, emails: garbage, wantErr: oauth.ErrDecodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer test-token" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				tt.user(w, r)
			})
			mux.HandleFunc("/user/emails", tt.emails)
			srv := httptest.NewServer(mux)
			t.Cleanup(srv.Close)

			p, err := oauth.NewGitHubProvider(testConfig,
				oauth.WithHTTPClient(srv.Client()),
				oauth.WithAPIBaseURL(srv.URL+"/"),
			)
			require.NoError(t, err)

			info, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "test-token"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, info)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "42", info.ID)
			require.Equal(t, "octocat", info.Login)
			require.Equal(t, "The Octocat", info.Name)
			require.Equal(t, tt.wantEmail, info.Email)
			require.Equal(t, "https://avatars.githubusercontent.com/u/42", info.AvatarURL)
		})
	}
}

func TestUserInfo_DisplayName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Octo", (&oauth.UserInfo{Login: "octocat", Name: "Octo"}).DisplayName())
	require.Equal(t, "octocat", (&oauth.UserInfo{Login: "octocat"}).DisplayName())
}

// githubRewriteTransport serves requests to github.com hosts from a local
// handler instead of the network.
type githubRewriteTransport struct {
	handler http.Handler
}

func (t *githubRewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.Contains(req.URL.Host, "github.com") {
		recorder := httptest.NewRecorder()
		t.handler.ServeHTTP(recorder, req)
		return recorder.Result(), nil
	}
	return http.DefaultTransport.RoundTrip(req)
}
