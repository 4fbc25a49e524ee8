// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"testing"
	"time"
)

func TestGrantAcceptsSubmissions(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		grant Grant
		want  bool
	}{
		{name: "open without window", grant: Grant{Status: GrantStatusOpen}, want: true},
		{name: "draft", grant: Grant{Status: GrantStatusDraft}, want: false},
		{name: "closed", grant: Grant{Status: GrantStatusClosed}, want: false},
		{name: "open inside window", grant: Grant{Status: GrantStatusOpen, OpensAt: &past, ClosesAt: &future}, want: true},
		{name: "open before window", grant: Grant{Status: GrantStatusOpen, OpensAt: &future}, want: false},
		{name: "open after deadline", grant: Grant{Status: GrantStatusOpen, ClosesAt: &past}, want: false},
		{name: "deadline is exclusive", grant: Grant{Status: GrantStatusOpen, ClosesAt: &now}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.grant.AcceptsSubmissions(now); got != tt.want {
				t.Errorf("AcceptsSubmissions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidGrantStatus(t *testing.T) {
	for _, s := range []GrantStatus{GrantStatusDraft, GrantStatusOpen, GrantStatusClosed} {
		if !ValidGrantStatus(s) {
			t.Errorf("ValidGrantStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []GrantStatus{"", "archived", "OPEN"} {
		if ValidGrantStatus(s) {
			t.Errorf("ValidGrantStatus(%q) = true, want false", s)
		}
	}
}

func TestProjectIsPublished(t *testing.T) {
	if !(&Project{Status: ProjectStatusPublished}).IsPublished() {
		t.Error("published project reported unpublished")
	}
	if (&Project{Status: ProjectStatusDraft}).IsPublished() {
		t.Error("draft project reported published")
	}
}
