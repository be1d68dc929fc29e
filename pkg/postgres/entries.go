package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mkowalski/staffrota/pkg/db"
)

// GetScheduleEntries retrieves all entries for the given teams in the
// inclusive date range (dates formatted "2006-01-02")
func (d *DB) GetScheduleEntries(ctx context.Context, teamIDs []string, from, to string) ([]db.ScheduleEntry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, user_id, team_id, entry_date, shift_type, activity_type, availability_status, notes, created_by
		FROM schedule_entry
		WHERE team_id = ANY($1) AND entry_date BETWEEN $2 AND $3
		ORDER BY entry_date, team_id, user_id
	`, teamIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetScheduleEntry retrieves a single entry by ID, or nil when it does not exist
func (d *DB) GetScheduleEntry(ctx context.Context, id string) (*db.ScheduleEntry, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, user_id, team_id, entry_date, shift_type, activity_type, availability_status, notes, created_by
		FROM schedule_entry
		WHERE id = $1
	`, id)

	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule entry %s: %w", id, err)
	}
	return entry, nil
}

// GetUserEntryForDate retrieves the user's entry for a team and date, or nil.
// Uniqueness per (user, team, date) is soft; the oldest entry wins.
func (d *DB) GetUserEntryForDate(ctx context.Context, userID, teamID, date string) (*db.ScheduleEntry, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, user_id, team_id, entry_date, shift_type, activity_type, availability_status, notes, created_by
		FROM schedule_entry
		WHERE user_id = $1 AND team_id = $2 AND entry_date = $3
		ORDER BY id
		LIMIT 1
	`, userID, teamID, date)

	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry for user %s on %s: %w", userID, date, err)
	}
	return entry, nil
}

// ReplaceScheduleEntries deletes the given entry IDs and inserts the new
// entries in one transaction; either everything is applied or nothing is
func (d *DB) ReplaceScheduleEntries(ctx context.Context, deleteIDs []string, entries []db.ScheduleEntry) error {
	if len(deleteIDs) == 0 && len(entries) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(deleteIDs) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM schedule_entry WHERE id = ANY($1)`, deleteIDs); err != nil {
			return fmt.Errorf("failed to delete replaced entries: %w", err)
		}
	}

	for _, entry := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO schedule_entry (id, user_id, team_id, entry_date, shift_type, activity_type, availability_status, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, entry.ID, entry.UserID, entry.TeamID, entry.Date, entry.ShiftType, entry.ActivityType, entry.AvailabilityStatus, entry.Notes, entry.CreatedBy)
		if err != nil {
			return fmt.Errorf("failed to insert schedule entry for %s on %s: %w", entry.UserID, entry.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schedule entries: %w", err)
	}
	return nil
}

func scanEntries(rows pgx.Rows) ([]db.ScheduleEntry, error) {
	var entries []db.ScheduleEntry
	for rows.Next() {
		var e db.ScheduleEntry
		var entryDate time.Time
		if err := rows.Scan(&e.ID, &e.UserID, &e.TeamID, &entryDate, &e.ShiftType, &e.ActivityType, &e.AvailabilityStatus, &e.Notes, &e.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.Date = entryDate.Format("2006-01-02")
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule entries: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.Row) (*db.ScheduleEntry, error) {
	var e db.ScheduleEntry
	var entryDate time.Time
	if err := row.Scan(&e.ID, &e.UserID, &e.TeamID, &entryDate, &e.ShiftType, &e.ActivityType, &e.AvailabilityStatus, &e.Notes, &e.CreatedBy); err != nil {
		return nil, err
	}
	e.Date = entryDate.Format("2006-01-02")
	return &e, nil
}
