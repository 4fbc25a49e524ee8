// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"vamp/internal/database"
	"vamp/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "vamp")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "vamp")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testProfile creates a throwaway member profile that is removed, with
// everything it owns, when the test finishes.
func testProfile(t *testing.T, db *sql.DB) *models.Profile {
	t.Helper()

	id := "test-" + uuid.NewString()[:8]
	p, _, err := NewProfileStore(db).UpsertFromGitHub(context.Background(), id, id, "Test "+id, false)
	if err != nil {
		t.Fatalf("create test profile: %v", err)
	}
	t.Cleanup(func() { cleanProfiles(t, db, p.GitHubID) })
	return p
}

// cleanProfiles removes test profiles by GitHub ID. Projects and
// submissions cascade. Call in t.Cleanup().
func cleanProfiles(t *testing.T, db *sql.DB, githubIDs ...string) {
	t.Helper()
	for _, id := range githubIDs {
		db.Exec("DELETE FROM grants WHERE created_by = (SELECT id FROM profiles WHERE github_id = $1)", id)
		db.Exec("DELETE FROM profiles WHERE github_id = $1", id)
	}
}
