// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package oauth implements the authorization-code sign-in flow against
// external identity providers. GitHub is the only provider members use.
package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

// UserInfo is the provider-agnostic identity returned after sign-in.
type UserInfo struct {
	ID        string // Provider's stable user identifier
	Login     string // Handle on the provider, used to derive the username
	Name      string
	Email     string
	AvatarURL string
}

// DisplayName returns the user's name, falling back to the login.
func (u *UserInfo) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}

// Provider abstracts provider-specific OAuth operations.
type Provider interface {
	// Name returns the provider identifier (e.g. "github").
	Name() string

	// AuthCodeURL generates the authorization URL for the OAuth flow.
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchUserInfo retrieves the signed-in user. Implementations return
	// ErrEmailNotVerified when the account has no verified email.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)
}
