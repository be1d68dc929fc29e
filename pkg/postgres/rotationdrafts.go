package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mkowalski/staffrota/pkg/db"
)

// InsertRotationDrafts inserts a batch of draft assignments in one transaction
func (d *DB) InsertRotationDrafts(ctx context.Context, drafts []db.RotationDraftAssignment) error {
	if len(drafts) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, draft := range drafts {
		_, err := tx.Exec(ctx, `
			INSERT INTO rotation_draft_assignment (id, batch_id, team_id, user_id, duty_date, start_time, end_time, is_substitute, original_user_id, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
		`, draft.ID, draft.BatchID, draft.TeamID, draft.UserID, draft.Date, draft.StartTime,
			draft.EndTime, draft.IsSubstitute, draft.OriginalUserID, draft.Status)
		if err != nil {
			return fmt.Errorf("failed to insert rotation draft for %s on %s: %w", draft.UserID, draft.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rotation drafts: %w", err)
	}
	return nil
}

// GetRotationDraftBatch retrieves all draft assignments in a batch
func (d *DB) GetRotationDraftBatch(ctx context.Context, batchID string) ([]db.RotationDraftAssignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, batch_id, team_id, user_id, duty_date, start_time, end_time, is_substitute, original_user_id, status
		FROM rotation_draft_assignment
		WHERE batch_id = $1
		ORDER BY duty_date, user_id
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rotation drafts: %w", err)
	}
	defer rows.Close()

	var drafts []db.RotationDraftAssignment
	for rows.Next() {
		var r db.RotationDraftAssignment
		var dutyDate time.Time
		var originalUserID *string
		if err := rows.Scan(&r.ID, &r.BatchID, &r.TeamID, &r.UserID, &dutyDate, &r.StartTime,
			&r.EndTime, &r.IsSubstitute, &originalUserID, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan rotation draft: %w", err)
		}
		r.Date = dutyDate.Format("2006-01-02")
		if originalUserID != nil {
			r.OriginalUserID = *originalUserID
		}
		drafts = append(drafts, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rotation drafts: %w", err)
	}

	return drafts, nil
}

// DeleteRotationDraftBatch removes all draft rows in a batch (discard)
func (d *DB) DeleteRotationDraftBatch(ctx context.Context, batchID string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM rotation_draft_assignment WHERE batch_id = $1`, batchID)
	if err != nil {
		return fmt.Errorf("failed to delete rotation draft batch %s: %w", batchID, err)
	}
	return nil
}

// FinalizeRotationDrafts converts draft rows to committed schedule entries
// and marks them finalized, all in one transaction. Draft rows whose status
// guard fails (already finalized or deleted) are skipped and their IDs
// returned; the matching entries are not inserted.
func (d *DB) FinalizeRotationDrafts(ctx context.Context, batchID string, entries []db.ScheduleEntry, draftIDs []string) ([]string, error) {
	if len(entries) != len(draftIDs) {
		return nil, fmt.Errorf("entries and draft IDs must pair up: %d vs %d", len(entries), len(draftIDs))
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var skipped []string
	for i, entry := range entries {
		draftID := draftIDs[i]

		tag, err := tx.Exec(ctx, `
			UPDATE rotation_draft_assignment SET status = 'finalized'
			WHERE id = $1 AND batch_id = $2 AND status = 'draft'
		`, draftID, batchID)
		if err != nil {
			return nil, fmt.Errorf("failed to finalize rotation draft %s: %w", draftID, err)
		}
		if tag.RowsAffected() != 1 {
			skipped = append(skipped, draftID)
			continue
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO schedule_entry (id, user_id, team_id, entry_date, shift_type, activity_type, availability_status, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, entry.ID, entry.UserID, entry.TeamID, entry.Date, entry.ShiftType, entry.ActivityType,
			entry.AvailabilityStatus, entry.Notes, entry.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("failed to insert finalized entry for %s on %s: %w", entry.UserID, entry.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rotation finalize: %w", err)
	}
	return skipped, nil
}
