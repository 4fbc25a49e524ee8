// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import "testing"

// TestSeedIdempotent verifies that seeding twice leaves exactly one admin
// profile and that seeded slugs are normalized.
func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := Seed(db); err != nil {
			t.Fatalf("Seed (run %d): %v", i+1, err)
		}
	}

	var admins int
	if err := db.QueryRow("SELECT COUNT(*) FROM profiles WHERE github_id = 'seed-admin'").Scan(&admins); err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if admins > 1 {
		t.Errorf("seed admin count = %d, want at most 1", admins)
	}

	var projectSlug string
	err = db.QueryRow("SELECT slug FROM projects WHERE title = 'Hello VAMP'").Scan(&projectSlug)
	if err == nil && projectSlug != "hello-vamp" {
		t.Errorf("seeded project slug = %q, want %q", projectSlug, "hello-vamp")
	}
}
