// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vamp/internal/models"
)

// projectColumns are selected from projects aliased as p, joined to the
// owner's profile aliased as o.
const projectColumns = `p.id, p.owner_id, p.title, p.slug, p.summary, p.description,
	p.repo_url, p.demo_url, p.status, p.published_at, p.created_at, p.updated_at, o.username`

const projectFrom = ` FROM projects p JOIN profiles o ON o.id = p.owner_id `

// ProjectStore handles all project-related database operations.
type ProjectStore struct {
	db *sql.DB
}

// NewProjectStore creates a new ProjectStore with the given database connection.
func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func scanProject(row scanner) (*models.Project, error) {
	p := &models.Project{}
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Slug, &p.Summary, &p.Description,
		&p.RepoURL, &p.DemoURL, &p.Status, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.OwnerUsername,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectStore) list(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var items []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindByID retrieves a project in any status by its UUID. Returns nil if not found.
func (s *ProjectStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+projectFrom+`WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find project by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a published project by its slug. Used for public pages.
func (s *ProjectStore) FindBySlug(ctx context.Context, projectSlug string) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+projectFrom+`WHERE p.slug = $1 AND p.status = 'published'`, projectSlug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find project by slug: %w", err)
	}
	return p, nil
}

// ListPublished returns published projects, newest first. A limit of zero
// or less returns all of them.
func (s *ProjectStore) ListPublished(ctx context.Context, limit int) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + projectFrom + `
		WHERE p.status = 'published'
		ORDER BY p.published_at DESC NULLS LAST`
	if limit > 0 {
		return s.list(ctx, query+` LIMIT $1`, limit)
	}
	return s.list(ctx, query)
}

// ListByOwner returns every project of a member, drafts included.
func (s *ProjectStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	return s.list(ctx, `SELECT `+projectColumns+projectFrom+`
		WHERE p.owner_id = $1
		ORDER BY p.created_at DESC`, ownerID)
}

// ListPublishedByOwner returns a member's published projects for their profile page.
func (s *ProjectStore) ListPublishedByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	return s.list(ctx, `SELECT `+projectColumns+projectFrom+`
		WHERE p.owner_id = $1 AND p.status = 'published'
		ORDER BY p.published_at DESC NULLS LAST`, ownerID)
}

// SlugExists reports whether any project, in any status, uses the slug.
func (s *ProjectStore) SlugExists(ctx context.Context, projectSlug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE slug = $1)`, projectSlug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check project slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new project and returns it with the generated ID. It
// returns ErrSlugTaken when another project already holds p.Slug.
func (s *ProjectStore) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	if p.Status == models.ProjectStatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}

	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (owner_id, title, slug, summary, description, repo_url, demo_url, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.OwnerID, p.Title, p.Slug, p.Summary, p.Description, p.RepoURL, p.DemoURL, p.Status, p.PublishedAt,
	).Scan(&id)
	if violatesConstraint(err, "projects_slug_key") {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update modifies an existing project. The first transition to published
// stamps published_at; later edits keep it.
func (s *ProjectStore) Update(ctx context.Context, p *models.Project) error {
	if p.Status == models.ProjectStatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE projects SET
			title = $1, slug = $2, summary = $3, description = $4,
			repo_url = $5, demo_url = $6, status = $7, published_at = $8,
			updated_at = NOW()
		WHERE id = $9
	`, p.Title, p.Slug, p.Summary, p.Description, p.RepoURL, p.DemoURL, p.Status, p.PublishedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// Delete removes a project by ID.
func (s *ProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// CountPublished returns the number of published projects.
func (s *ProjectStore) CountPublished(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE status = 'published'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}
