// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// GrantStatus is the lifecycle state of a grant competition.
type GrantStatus string

const (
	GrantStatusDraft  GrantStatus = "draft"
	GrantStatusOpen   GrantStatus = "open"
	GrantStatusClosed GrantStatus = "closed"
)

// ValidGrantStatus reports whether s names a known grant status.
func ValidGrantStatus(s GrantStatus) bool {
	switch s {
	case GrantStatusDraft, GrantStatusOpen, GrantStatusClosed:
		return true
	}
	return false
}

// Grant is a competition members can submit their projects to.
type Grant struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"` // Markdown source
	Prize       string      `json:"prize"`
	Status      GrantStatus `json:"status"`
	OpensAt     *time.Time  `json:"opens_at,omitempty"`
	ClosesAt    *time.Time  `json:"closes_at,omitempty"`
	CreatedBy   uuid.UUID   `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AcceptsSubmissions reports whether the grant is open at time now.
// A closing time in the past closes the grant even if its status is open.
func (g *Grant) AcceptsSubmissions(now time.Time) bool {
	if g.Status != GrantStatusOpen {
		return false
	}
	if g.OpensAt != nil && now.Before(*g.OpensAt) {
		return false
	}
	if g.ClosesAt != nil && !now.Before(*g.ClosesAt) {
		return false
	}
	return true
}

// Submission links a project to a grant it was entered into.
type Submission struct {
	ID          uuid.UUID `json:"id"`
	GrantID     uuid.UUID `json:"grant_id"`
	ProjectID   uuid.UUID `json:"project_id"`
	SubmittedBy uuid.UUID `json:"submitted_by"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated by ListByGrant.
	ProjectTitle  string `json:"project_title,omitempty"`
	ProjectSlug   string `json:"project_slug,omitempty"`
	OwnerUsername string `json:"owner_username,omitempty"`
}
