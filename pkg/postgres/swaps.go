package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mkowalski/staffrota/pkg/db"
)

// GetSwapRequest retrieves a swap request by ID, or nil when it does not exist
func (d *DB) GetSwapRequest(ctx context.Context, id string) (*db.SwapRequest, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, requesting_user_id, requesting_entry_id, target_user_id, target_entry_id, swap_date, team_id, status, is_open_offer
		FROM swap_request
		WHERE id = $1
	`, id)

	request, err := scanSwapRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get swap request %s: %w", id, err)
	}
	return request, nil
}

// GetSwapRequestsForDate retrieves all swap requests on a date
func (d *DB) GetSwapRequestsForDate(ctx context.Context, date string) ([]db.SwapRequest, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, requesting_user_id, requesting_entry_id, target_user_id, target_entry_id, swap_date, team_id, status, is_open_offer
		FROM swap_request
		WHERE swap_date = $1
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query swap requests: %w", err)
	}
	defer rows.Close()

	var requests []db.SwapRequest
	for rows.Next() {
		request, err := scanSwapRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan swap request: %w", err)
		}
		requests = append(requests, *request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating swap requests: %w", err)
	}

	return requests, nil
}

// InsertSwapRequest inserts a new swap request record
func (d *DB) InsertSwapRequest(ctx context.Context, request *db.SwapRequest) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO swap_request (id, requesting_user_id, requesting_entry_id, target_user_id, target_entry_id, swap_date, team_id, status, is_open_offer)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, '')::uuid, $6, $7, $8, $9)
	`, request.ID, request.RequestingUserID, request.RequestingEntryID, request.TargetUserID,
		request.TargetEntryID, request.SwapDate, request.TeamID, request.Status, request.IsOpenOffer)
	if err != nil {
		return fmt.Errorf("failed to insert swap request: %w", err)
	}
	return nil
}

// UpdateSwapRequestStatus transitions a request from one status to another.
// The WHERE clause on the current status is the optimistic-concurrency guard:
// a request that drifted since the caller read it matches zero rows and the
// update reports false instead of silently overwriting.
func (d *DB) UpdateSwapRequestStatus(ctx context.Context, id, fromStatus, toStatus string) (bool, error) {
	tag, err := d.pool.Exec(ctx, `
		UPDATE swap_request SET status = $3
		WHERE id = $1 AND status = $2
	`, id, fromStatus, toStatus)
	if err != nil {
		return false, fmt.Errorf("failed to update swap request status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClaimSwapRequest fills the counterparty on an unclaimed open offer and
// flips is_open_offer, guarded on it still being an unclaimed pending offer
func (d *DB) ClaimSwapRequest(ctx context.Context, id, targetUserID, targetEntryID string) (bool, error) {
	tag, err := d.pool.Exec(ctx, `
		UPDATE swap_request
		SET target_user_id = $2, target_entry_id = NULLIF($3, '')::uuid, is_open_offer = FALSE
		WHERE id = $1 AND status = 'pending' AND is_open_offer = TRUE
	`, id, targetUserID, targetEntryID)
	if err != nil {
		return false, fmt.Errorf("failed to claim swap request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ApproveSwapExchange approves the request and exchanges user IDs on the two
// entries in a single transaction. The status guard and both entry updates
// either all apply or none do.
func (d *DB) ApproveSwapExchange(ctx context.Context, requestID, entryAID, entryBID string) (bool, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE swap_request SET status = 'approved'
		WHERE id = $1 AND status = 'pending'
	`, requestID)
	if err != nil {
		return false, fmt.Errorf("failed to approve swap request: %w", err)
	}
	if tag.RowsAffected() != 1 {
		// Lost the race: someone else resolved the request first
		return false, nil
	}

	var userA, userB string
	if err := tx.QueryRow(ctx, `SELECT user_id FROM schedule_entry WHERE id = $1 FOR UPDATE`, entryAID).Scan(&userA); err != nil {
		return false, fmt.Errorf("failed to lock entry %s: %w", entryAID, err)
	}
	if err := tx.QueryRow(ctx, `SELECT user_id FROM schedule_entry WHERE id = $1 FOR UPDATE`, entryBID).Scan(&userB); err != nil {
		return false, fmt.Errorf("failed to lock entry %s: %w", entryBID, err)
	}

	if _, err := tx.Exec(ctx, `UPDATE schedule_entry SET user_id = $2 WHERE id = $1`, entryAID, userB); err != nil {
		return false, fmt.Errorf("failed to update entry %s: %w", entryAID, err)
	}
	if _, err := tx.Exec(ctx, `UPDATE schedule_entry SET user_id = $2 WHERE id = $1`, entryBID, userA); err != nil {
		return false, fmt.Errorf("failed to update entry %s: %w", entryBID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit swap exchange: %w", err)
	}
	return true, nil
}

// ApproveSwapTakeover approves the request and hands the single entry over to
// the new user in one transaction
func (d *DB) ApproveSwapTakeover(ctx context.Context, requestID, entryID, newUserID string) (bool, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE swap_request SET status = 'approved'
		WHERE id = $1 AND status = 'pending'
	`, requestID)
	if err != nil {
		return false, fmt.Errorf("failed to approve swap request: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `UPDATE schedule_entry SET user_id = $2 WHERE id = $1`, entryID, newUserID); err != nil {
		return false, fmt.Errorf("failed to reassign entry %s: %w", entryID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit swap takeover: %w", err)
	}
	return true, nil
}

func scanSwapRequest(row pgx.Row) (*db.SwapRequest, error) {
	var r db.SwapRequest
	var swapDate time.Time
	var targetUserID, targetEntryID *string
	if err := row.Scan(&r.ID, &r.RequestingUserID, &r.RequestingEntryID, &targetUserID, &targetEntryID,
		&swapDate, &r.TeamID, &r.Status, &r.IsOpenOffer); err != nil {
		return nil, err
	}
	r.SwapDate = swapDate.Format("2006-01-02")
	if targetUserID != nil {
		r.TargetUserID = *targetUserID
	}
	if targetEntryID != nil {
		r.TargetEntryID = *targetEntryID
	}
	return &r, nil
}
