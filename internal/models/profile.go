// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a member's permission level on the platform.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Profile is a community member, created on first GitHub sign-in.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	GitHubID    string    `json:"github_id"`
	Username    string    `json:"username"` // Normalized slug, unique
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	Website     string    `json:"website"`
	AvatarURL   string    `json:"avatar_url"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsAdmin returns true if the member has the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Name returns the display name, falling back to the username.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}
