package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkowalski/staffrota/internal/config"
	"github.com/mkowalski/staffrota/pkg/core/generator"
	"github.com/mkowalski/staffrota/pkg/core/model"
	"github.com/mkowalski/staffrota/pkg/db"
)

// GenerateAssignmentsStore defines the store operations bulk generation needs
type GenerateAssignmentsStore interface {
	GetTeamMembers(ctx context.Context, teamID string) ([]db.User, error)
	GetScheduleEntries(ctx context.Context, teamIDs []string, from, to string) ([]db.ScheduleEntry, error)
	ReplaceScheduleEntries(ctx context.Context, deleteIDs []string, entries []db.ScheduleEntry) error
}

// GenerateAssignmentsParams describes one bulk generation request
type GenerateAssignmentsParams struct {
	Mode         string
	TeamID       string
	From         string
	To           string
	ShiftType    string
	SkipWeekends bool
	UserIDs      []string
	CreatedBy    string
}

// GenerateAssignmentsResult reports what a bulk generation run did
type GenerateAssignmentsResult struct {
	Created     int
	Skipped     int
	Overwritten int
	EntryIDs    []string
}

// GenerateAssignments expands a bulk generation request into schedule entries
// and writes them to the ledger. Collisions with existing entries for the same
// user and date are handled per the configured policy: skip drops the draft,
// overwrite replaces the existing entry, fail aborts before any write.
func GenerateAssignments(ctx context.Context, store GenerateAssignmentsStore, cfg *config.Config, logger *zap.Logger, params GenerateAssignmentsParams) (*GenerateAssignmentsResult, error) {
	fromDate, toDate, err := parseDateRange(params.From, params.To)
	if err != nil {
		return nil, err
	}

	logger.Debug("Generating assignments",
		zap.String("mode", params.Mode),
		zap.String("team_id", params.TeamID),
		zap.String("from", params.From),
		zap.String("to", params.To))

	userIDs := params.UserIDs
	if generator.Mode(params.Mode) == generator.ModeWholeTeam {
		members, err := store.GetTeamMembers(ctx, params.TeamID)
		if err != nil {
			return nil, model.NewCollaboratorError("directory store", err)
		}
		userIDs = getUserIDs(filterActiveUsers(members))
		logger.Debug("Resolved whole team", zap.Int("active_members", len(userIDs)))
	}

	drafts, err := generator.Expand(generator.Config{
		Mode:         generator.Mode(params.Mode),
		TeamID:       params.TeamID,
		From:         fromDate,
		To:           toDate,
		ShiftType:    model.ShiftType(params.ShiftType),
		SkipWeekends: params.SkipWeekends,
		UserIDs:      userIDs,
		CreatedBy:    params.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	existingRecords, err := store.GetScheduleEntries(ctx, []string{params.TeamID}, params.From, params.To)
	if err != nil {
		return nil, model.NewCollaboratorError("schedule ledger", err)
	}

	// Existing entries keyed by (user, date) for collision lookup
	existing := make(map[string]db.ScheduleEntry, len(existingRecords))
	for _, record := range existingRecords {
		existing[record.UserID+"|"+record.Date] = record
	}

	result := &GenerateAssignmentsResult{}
	var toInsert []db.ScheduleEntry
	var toDelete []string

	for _, draft := range drafts {
		collision, collides := existing[draft.UserID+"|"+draft.Date.Format(dateLayout)]
		if collides {
			switch cfg.BulkConflictPolicy {
			case "skip":
				result.Skipped++
				continue
			case "fail":
				return nil, model.NewValidationError("entry_exists",
					fmt.Sprintf("user %s already has an entry on %s", draft.UserID, draft.Date.Format(dateLayout)))
			case "overwrite":
				toDelete = append(toDelete, collision.ID)
				result.Overwritten++
			}
		}

		record := db.ScheduleEntry{
			ID:                 uuid.New().String(),
			UserID:             draft.UserID,
			TeamID:             draft.TeamID,
			Date:               draft.Date.Format(dateLayout),
			ShiftType:          string(draft.ShiftType),
			ActivityType:       string(draft.ActivityType),
			AvailabilityStatus: string(draft.AvailabilityStatus),
			Notes:              draft.Notes,
			CreatedBy:          draft.CreatedBy,
		}
		toInsert = append(toInsert, record)
		result.EntryIDs = append(result.EntryIDs, record.ID)
	}

	// Overwrites and inserts land in one transaction, so a failed write
	// cannot leave overwritten entries deleted with nothing in their place
	if err := store.ReplaceScheduleEntries(ctx, toDelete, toInsert); err != nil {
		return nil, fmt.Errorf("failed to write generated entries: %w", err)
	}
	result.Created = len(toInsert)

	logger.Info("Bulk generation complete",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("overwritten", result.Overwritten))

	return result, nil
}
