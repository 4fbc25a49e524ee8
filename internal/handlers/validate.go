// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation limits for member and admin form fields, in runes.
const (
	maxTitleLen       = 200
	maxSummaryLen     = 300
	maxDescriptionLen = 50_000
	maxBioLen         = 1_000
	maxDisplayNameLen = 100
	maxPrizeLen       = 200
	maxNoteLen        = 300
	maxURLLen         = 2_000
)

// dateInputLayout is the value format of <input type="datetime-local">.
const dateInputLayout = "2006-01-02T15:04"

// validateProject checks project form inputs and returns the first error found.
func validateProject(title, summary, description, repoURL, demoURL string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(summary) > maxSummaryLen {
		return "Summary is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 50,000 characters)."
	}
	if !validURL(repoURL) {
		return "Repository URL must start with http:// or https://."
	}
	if !validURL(demoURL) {
		return "Demo URL must start with http:// or https://."
	}
	return ""
}

// validateProfile checks the member-editable profile fields.
func validateProfile(displayName, bio, website string) string {
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return "Display name is too long (max 100 characters)."
	}
	if utf8.RuneCountInString(bio) > maxBioLen {
		return "Bio is too long (max 1,000 characters)."
	}
	if !validURL(website) {
		return "Website must start with http:// or https://."
	}
	return ""
}

// validateGrant checks grant form inputs and returns the first error found.
func validateGrant(title, prize, description string, opensAt, closesAt *time.Time) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(prize) > maxPrizeLen {
		return "Prize is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 50,000 characters)."
	}
	if opensAt != nil && closesAt != nil && !closesAt.After(*opensAt) {
		return "Closing time must be after the opening time."
	}
	return ""
}

// validateNote checks the optional note attached to a grant submission.
func validateNote(note string) string {
	if utf8.RuneCountInString(note) > maxNoteLen {
		return "Note is too long (max 300 characters)."
	}
	return ""
}

// validURL accepts an empty string or an absolute http(s) URL with a host.
func validURL(raw string) bool {
	if raw == "" {
		return true
	}
	if len(raw) > maxURLLen {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseDateInput parses a datetime-local value as UTC. An empty value
// yields nil.
func parseDateInput(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateInputLayout, raw, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
