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
	"vamp/internal/slug"
)

// fallbackUsername is used when a GitHub login normalizes to nothing.
const fallbackUsername = "member"

const profileColumns = `id, github_id, username, display_name, bio, website, avatar_url, role, created_at, updated_at`

// ProfileStore handles all profile-related database operations.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore with the given database connection.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func scanProfile(row scanner) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(
		&p.ID, &p.GitHubID, &p.Username, &p.DisplayName, &p.Bio,
		&p.Website, &p.AvatarURL, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileStore) findOne(ctx context.Context, what, where string, arg any) (*models.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE `+where+` = $1`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile by %s: %w", what, err)
	}
	return p, nil
}

// FindByID retrieves a profile by its UUID. Returns nil if not found.
func (s *ProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.findOne(ctx, "id", "id", id)
}

// FindByUsername retrieves a profile by its username slug. Returns nil if not found.
func (s *ProfileStore) FindByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.findOne(ctx, "username", "username", username)
}

// FindByGitHubID retrieves a profile by the GitHub account ID. Returns nil if not found.
func (s *ProfileStore) FindByGitHubID(ctx context.Context, githubID string) (*models.Profile, error) {
	return s.findOne(ctx, "github id", "github_id", githubID)
}

// List returns all profiles ordered by username.
func (s *ProfileStore) List(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// UsernameExists reports whether the username is taken.
func (s *ProfileStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

// UpsertFromGitHub returns the profile linked to the GitHub account,
// creating it on first sign-in. New profiles get a unique username derived
// from the GitHub login. Existing profiles keep their edits; they are only
// promoted when admin is true. The bool result reports whether the profile
// was created.
func (s *ProfileStore) UpsertFromGitHub(ctx context.Context, githubID, login, displayName string, admin bool) (*models.Profile, bool, error) {
	existing, err := s.FindByGitHubID(ctx, githubID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if admin && !existing.IsAdmin() {
			if err := s.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return nil, false, err
			}
			existing.Role = models.RoleAdmin
		}
		return existing, false, nil
	}

	base := slug.Normalize(login)
	if base == "" {
		base = fallbackUsername
	}

	role := models.RoleMember
	if admin {
		role = models.RoleAdmin
	}

	p, err := CreateWithUniqueSlug(ctx, base, s.UsernameExists, func(username string) (*models.Profile, error) {
		p, err := scanProfile(s.db.QueryRowContext(ctx, `
			INSERT INTO profiles (github_id, username, display_name, role)
			VALUES ($1, $2, $3, $4)
			RETURNING `+profileColumns,
			githubID, username, displayName, role,
		))
		if violatesConstraint(err, "profiles_username_key") {
			return nil, ErrSlugTaken
		}
		return p, err
	})
	if violatesConstraint(err, "profiles_github_id_key") {
		// A parallel callback for the same account created it first.
		existing, findErr := s.FindByGitHubID(ctx, githubID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, fmt.Errorf("create profile: %w", err)
	}
	return p, true, nil
}

// UpdateProfile saves the member-editable fields of a profile.
func (s *ProfileStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET display_name = $1, bio = $2, website = $3, updated_at = NOW()
		WHERE id = $4
	`, p.DisplayName, p.Bio, p.Website, p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetAvatarURL stores the avatar URL shown for the profile.
func (s *ProfileStore) SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET avatar_url = $1, updated_at = NOW() WHERE id = $2
	`, avatarURL, id)
	if err != nil {
		return fmt.Errorf("set avatar url: %w", err)
	}
	return nil
}

// SetRole changes a profile's role.
func (s *ProfileStore) SetRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET role = $1, updated_at = NOW() WHERE id = $2
	`, role, id)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

// Delete removes a profile and, through cascades, its projects.
func (s *ProfileStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
