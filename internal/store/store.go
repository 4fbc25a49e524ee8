// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all VAMP entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
// Lookups that find nothing return (nil, nil).
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateSubmission is returned when a project is already entered
// into the grant.
var ErrDuplicateSubmission = errors.New("store: project already submitted to this grant")

// ErrSlugTaken is returned by inserts that lose a slug or username to a
// concurrent writer after UniqueSlug reported it free.
var ErrSlugTaken = errors.New("store: slug already taken")

// maxSlugAttempts bounds the suffix search in UniqueSlug.
const maxSlugAttempts = 1000

// slugRetries is how many times CreateWithUniqueSlug allocates a fresh slug
// after losing an insert race.
const slugRetries = 3

// SlugExistsFunc reports whether a slug is already taken.
type SlugExistsFunc func(ctx context.Context, slug string) (bool, error)

// UniqueSlug returns base if it is free, otherwise the first free slug of
// the form base-2, base-3, ... Base is expected to be normalized already.
func UniqueSlug(ctx context.Context, base string, exists SlugExistsFunc) (string, error) {
	candidate := base
	for n := 2; n <= maxSlugAttempts+1; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("unique slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", fmt.Errorf("unique slug: no free slug for %q after %d attempts", base, maxSlugAttempts)
}

// CreateWithUniqueSlug allocates a slug from base and hands it to create.
// When create reports ErrSlugTaken the slug is allocated again, up to
// slugRetries more times.
func CreateWithUniqueSlug[T any](ctx context.Context, base string, exists SlugExistsFunc, create func(slug string) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		candidate, err := UniqueSlug(ctx, base, exists)
		if err != nil {
			return zero, err
		}
		created, err := create(candidate)
		if errors.Is(err, ErrSlugTaken) && attempt < slugRetries {
			slog.Debug("slug taken concurrently, retrying", "slug", candidate, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return zero, err
		}
		return created, nil
	}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// violatesConstraint reports whether err is a unique_violation of the named
// constraint, e.g. "projects_slug_key".
func violatesConstraint(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
