// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"vamp/internal/models"
)

const grantColumns = `id, title, slug, description, prize, status, opens_at, closes_at, created_by, created_at, updated_at`

// GrantStore handles all grant-related database operations.
type GrantStore struct {
	db *sql.DB
}

// NewGrantStore creates a new GrantStore with the given database connection.
func NewGrantStore(db *sql.DB) *GrantStore {
	return &GrantStore{db: db}
}

func scanGrant(row scanner) (*models.Grant, error) {
	g := &models.Grant{}
	err := row.Scan(
		&g.ID, &g.Title, &g.Slug, &g.Description, &g.Prize, &g.Status,
		&g.OpensAt, &g.ClosesAt, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GrantStore) list(ctx context.Context, query string, args ...any) ([]models.Grant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var items []models.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}

// FindByID retrieves a grant in any status. Returns nil if not found.
func (s *GrantStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Grant, error) {
	g, err := scanGrant(s.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM grants WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find grant by id: %w", err)
	}
	return g, nil
}

// FindBySlug retrieves a publicly visible (open or closed) grant by slug.
func (s *GrantStore) FindBySlug(ctx context.Context, grantSlug string) (*models.Grant, error) {
	g, err := scanGrant(s.db.QueryRowContext(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE slug = $1 AND status <> 'draft'`, grantSlug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find grant by slug: %w", err)
	}
	return g, nil
}

// ListVisible returns open grants first, then closed ones, newest first.
func (s *GrantStore) ListVisible(ctx context.Context) ([]models.Grant, error) {
	return s.list(ctx, `SELECT `+grantColumns+` FROM grants
		WHERE status <> 'draft'
		ORDER BY (status = 'open') DESC, created_at DESC`)
}

// ListOpen returns grants currently in the open status.
func (s *GrantStore) ListOpen(ctx context.Context) ([]models.Grant, error) {
	return s.list(ctx, `SELECT `+grantColumns+` FROM grants
		WHERE status = 'open'
		ORDER BY closes_at ASC NULLS LAST`)
}

// ListAll returns every grant for the admin area.
func (s *GrantStore) ListAll(ctx context.Context) ([]models.Grant, error) {
	return s.list(ctx, `SELECT `+grantColumns+` FROM grants ORDER BY created_at DESC`)
}

// SlugExists reports whether any grant uses the slug.
func (s *GrantStore) SlugExists(ctx context.Context, grantSlug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM grants WHERE slug = $1)`, grantSlug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check grant slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new grant and returns it with the generated ID. It
// returns ErrSlugTaken when another grant already holds g.Slug.
func (s *GrantStore) Create(ctx context.Context, g *models.Grant) (*models.Grant, error) {
	created, err := scanGrant(s.db.QueryRowContext(ctx, `
		INSERT INTO grants (title, slug, description, prize, status, opens_at, closes_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+grantColumns,
		g.Title, g.Slug, g.Description, g.Prize, g.Status, g.OpensAt, g.ClosesAt, g.CreatedBy,
	))
	if violatesConstraint(err, "grants_slug_key") {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create grant: %w", err)
	}
	return created, nil
}

// Update modifies an existing grant.
func (s *GrantStore) Update(ctx context.Context, g *models.Grant) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE grants SET
			title = $1, slug = $2, description = $3, prize = $4, status = $5,
			opens_at = $6, closes_at = $7, updated_at = NOW()
		WHERE id = $8
	`, g.Title, g.Slug, g.Description, g.Prize, g.Status, g.OpensAt, g.ClosesAt, g.ID)
	if err != nil {
		return fmt.Errorf("update grant: %w", err)
	}
	return nil
}

// SetStatus moves a grant to another lifecycle state.
func (s *GrantStore) SetStatus(ctx context.Context, id uuid.UUID, status models.GrantStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE grants SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("set grant status: %w", err)
	}
	return nil
}
