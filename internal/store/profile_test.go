// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"vamp/internal/models"
)

func TestProfileStoreUpsertFromGitHub(t *testing.T) {
	db := testDB(t)
	s := NewProfileStore(db)
	ctx := context.Background()

	githubID := "gh-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanProfiles(t, db, githubID) })

	login := "Octo Cat " + githubID
	created, isNew, err := s.UpsertFromGitHub(ctx, githubID, login, "Octo", false)
	if err != nil {
		t.Fatalf("UpsertFromGitHub: %v", err)
	}
	if !isNew {
		t.Error("expected first sign-in to create a profile")
	}
	if want := "octo-cat-" + strings.ToLower(githubID); created.Username != want {
		t.Errorf("username: got %q, want %q", created.Username, want)
	}
	if created.Role != models.RoleMember {
		t.Errorf("role: got %q, want %q", created.Role, models.RoleMember)
	}

	again, isNew, err := s.UpsertFromGitHub(ctx, githubID, login, "Renamed", true)
	if err != nil {
		t.Fatalf("UpsertFromGitHub (second): %v", err)
	}
	if isNew {
		t.Error("expected second sign-in to reuse the profile")
	}
	if again.ID != created.ID {
		t.Errorf("id changed: %s -> %s", created.ID, again.ID)
	}
	if again.DisplayName != "Octo" {
		t.Errorf("display name overwritten: got %q", again.DisplayName)
	}
	if !again.IsAdmin() {
		t.Error("expected promotion to admin")
	}
}

func TestProfileStoreUsernameCollision(t *testing.T) {
	db := testDB(t)
	s := NewProfileStore(db)
	ctx := context.Background()

	suffix := uuid.NewString()[:8]
	first, second := "gh-a-"+suffix, "gh-b-"+suffix
	t.Cleanup(func() { cleanProfiles(t, db, first, second) })

	login := "collide-" + suffix
	a, _, err := s.UpsertFromGitHub(ctx, first, login, "", false)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, _, err := s.UpsertFromGitHub(ctx, second, strings.ToUpper(login), "", false)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if a.Username != login {
		t.Errorf("first username: got %q, want %q", a.Username, login)
	}
	if b.Username != login+"-2" {
		t.Errorf("second username: got %q, want %q", b.Username, login+"-2")
	}
}

// Concurrent first sign-ins race for the same username. Each insert loses
// at most once per competing writer, so all of them land.
func TestProfileStoreConcurrentSignIns(t *testing.T) {
	db := testDB(t)
	s := NewProfileStore(db)
	ctx := context.Background()

	suffix := uuid.NewString()[:8]
	login := "rush-" + suffix
	ids := []string{"gh-1-" + suffix, "gh-2-" + suffix, "gh-3-" + suffix, "gh-4-" + suffix}
	t.Cleanup(func() { cleanProfiles(t, db, ids...) })

	profiles := make([]*models.Profile, len(ids))
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			profiles[i], _, errs[i] = s.UpsertFromGitHub(ctx, id, login, "", false)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("sign-in %d: %v", i, errs[i])
		}
		if seen[profiles[i].Username] {
			t.Errorf("username %q handed out twice", profiles[i].Username)
		}
		seen[profiles[i].Username] = true
	}
	if !seen[login] {
		t.Errorf("one sign-in should get the bare login %q, got %v", login, seen)
	}
}

// Two callbacks for the same new account resolve to one profile.
func TestProfileStoreConcurrentSameAccount(t *testing.T) {
	db := testDB(t)
	s := NewProfileStore(db)
	ctx := context.Background()

	id := "gh-same-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanProfiles(t, db, id) })

	var wg sync.WaitGroup
	profiles := make([]*models.Profile, 2)
	errs := make([]error, 2)
	for i := range profiles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			profiles[i], _, errs[i] = s.UpsertFromGitHub(ctx, id, id, "", false)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("callback %d: %v", i, err)
		}
	}
	if profiles[0].ID != profiles[1].ID {
		t.Errorf("got two profiles %s and %s for one account", profiles[0].ID, profiles[1].ID)
	}
}

func TestProfileStoreUpdateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewProfileStore(db)
	ctx := context.Background()
	p := testProfile(t, db)

	p.DisplayName = "Updated Name"
	p.Bio = "Builds things."
	p.Website = "https://example.com"
	if err := s.UpdateProfile(ctx, p); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if err := s.SetAvatarURL(ctx, p.ID, "https://cdn.example.com/a.png"); err != nil {
		t.Fatalf("SetAvatarURL: %v", err)
	}

	found, err := s.FindByUsername(ctx, p.Username)
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if found == nil {
		t.Fatal("expected profile, got nil")
	}
	if found.DisplayName != "Updated Name" || found.Bio != "Builds things." || found.Website != "https://example.com" {
		t.Errorf("fields not saved: %+v", found)
	}
	if found.AvatarURL != "https://cdn.example.com/a.png" {
		t.Errorf("avatar: got %q", found.AvatarURL)
	}
}

func TestProfileStoreFindMissing(t *testing.T) {
	db := testDB(t)
	s := NewProfileStore(db)
	ctx := context.Background()

	p, err := s.FindByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if p != nil {
		t.Error("expected nil for unknown id")
	}

	p, err = s.FindByUsername(ctx, "no-such-member-"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if p != nil {
		t.Error("expected nil for unknown username")
	}
}
