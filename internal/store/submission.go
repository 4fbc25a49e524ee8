// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"vamp/internal/models"
)

// SubmissionStore handles grant submissions.
type SubmissionStore struct {
	db *sql.DB
}

// NewSubmissionStore creates a new SubmissionStore with the given database connection.
func NewSubmissionStore(db *sql.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

// Create enters a project into a grant. Returns ErrDuplicateSubmission if
// the project was already entered.
func (s *SubmissionStore) Create(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	created := *sub
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO grant_submissions (grant_id, project_id, submitted_by, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, sub.GrantID, sub.ProjectID, sub.SubmittedBy, sub.Note).Scan(&created.ID, &created.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateSubmission
	}
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return &created, nil
}

// ListByGrant returns a grant's published entries with project and owner
// details, oldest first.
func (s *SubmissionStore) ListByGrant(ctx context.Context, grantID uuid.UUID) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.grant_id, s.project_id, s.submitted_by, s.note, s.created_at,
		       p.title, p.slug, o.username
		FROM grant_submissions s
		JOIN projects p ON p.id = s.project_id
		JOIN profiles o ON o.id = p.owner_id
		WHERE s.grant_id = $1 AND p.status = 'published'
		ORDER BY s.created_at ASC
	`, grantID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var items []models.Submission
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(
			&sub.ID, &sub.GrantID, &sub.ProjectID, &sub.SubmittedBy, &sub.Note, &sub.CreatedAt,
			&sub.ProjectTitle, &sub.ProjectSlug, &sub.OwnerUsername,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		items = append(items, sub)
	}
	return items, rows.Err()
}

// Withdraw removes a member's project from a grant. It reports whether an
// entry was removed.
func (s *SubmissionStore) Withdraw(ctx context.Context, grantID, projectID, memberID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM grant_submissions
		WHERE grant_id = $1 AND project_id = $2 AND submitted_by = $3
	`, grantID, projectID, memberID)
	if err != nil {
		return false, fmt.Errorf("withdraw submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("withdraw submission: %w", err)
	}
	return n > 0, nil
}
