// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"vamp/internal/slug"
)

// Seed populates the database with initial development data: an admin
// profile, one published project and one open grant. It is a no-op when
// any profile already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM profiles").Scan(&count); err != nil {
		return fmt.Errorf("seed check profiles: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var adminID string
	err = tx.QueryRow(`
		INSERT INTO profiles (github_id, username, display_name, bio, role)
		VALUES ($1, $2, $3, $4, 'admin')
		RETURNING id
	`, "seed-admin", "vamp-admin", "VAMP Admin", "Seeded development administrator.").Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	projectTitle := "Hello VAMP"
	_, err = tx.Exec(`
		INSERT INTO projects (owner_id, title, slug, summary, description, repo_url, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'published', NOW())
	`, adminID, projectTitle, slug.Normalize(projectTitle),
		"A first project to show the showcase works.",
		"# Hello\n\nThis project was created by the development seed.",
		"https://github.com/example/hello-vamp",
	)
	if err != nil {
		return fmt.Errorf("seed insert project: %w", err)
	}

	grantTitle := "Spring Builders Grant"
	_, err = tx.Exec(`
		INSERT INTO grants (title, slug, description, prize, status, created_by)
		VALUES ($1, $2, $3, $4, 'open', $5)
	`, grantTitle, slug.Normalize(grantTitle),
		"Submit any open-source project you shipped this season.",
		"$1,000", adminID,
	)
	if err != nil {
		return fmt.Errorf("seed insert grant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with development data", "admin", "vamp-admin")
	return nil
}
