// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus represents the publishing state of a project.
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusPublished ProjectStatus = "published"
)

// Project is a piece of software a member showcases on the platform.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	OwnerID     uuid.UUID     `json:"owner_id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"` // Markdown source
	RepoURL     string        `json:"repo_url"`
	DemoURL     string        `json:"demo_url"`
	Status      ProjectStatus `json:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// OwnerUsername is populated by list queries that join profiles.
	OwnerUsername string `json:"owner_username,omitempty"`
}

// IsPublished returns true if the project is publicly visible.
func (p *Project) IsPublished() bool {
	return p.Status == ProjectStatusPublished
}
