package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkowalski/staffrota/internal/config"
	"github.com/mkowalski/staffrota/pkg/core/model"
	"github.com/mkowalski/staffrota/pkg/core/rotation"
	"github.com/mkowalski/staffrota/pkg/db"
)

// lastAssignedLookbackDays bounds how far back prior hotline duty is read
// when ranking members by least-recent assignment
const lastAssignedLookbackDays = 180

// RotationStore defines the store operations the rotation draft lifecycle needs
type RotationStore interface {
	GetTeamMembers(ctx context.Context, teamID string) ([]db.User, error)
	GetEligibleMembers(ctx context.Context, teamID string) ([]db.EligibleMember, error)
	GetScheduleEntries(ctx context.Context, teamIDs []string, from, to string) ([]db.ScheduleEntry, error)
	InsertRotationDrafts(ctx context.Context, drafts []db.RotationDraftAssignment) error
	GetRotationDraftBatch(ctx context.Context, batchID string) ([]db.RotationDraftAssignment, error)
	DeleteRotationDraftBatch(ctx context.Context, batchID string) error
	FinalizeRotationDrafts(ctx context.Context, batchID string, entries []db.ScheduleEntry, draftIDs []string) ([]string, error)
}

// GenerateRotationParams describes one rotation draft generation run
type GenerateRotationParams struct {
	TeamID         string
	From           string
	To             string
	MinStaffPerDay int
	SkipWeekends   bool

	// Seed drives the random tie-break; zero means time-based
	Seed int64
}

// RotationDraftResult reports what a generation run produced
type RotationDraftResult struct {
	BatchID     string
	Created     int
	Uncovered   []rotation.UncoveredSlot
	Assignments []db.RotationDraftAssignment
}

// RotationReview summarizes a draft batch for human review before finalizing
type RotationReview struct {
	BatchID   string
	TeamID    string
	Drafts    []db.RotationDraftAssignment
	Stats     rotation.FairnessStats
	DraftRows int
	Finalized int
}

// FinalizeResult reports what finalizing a batch did
type FinalizeResult struct {
	Finalized int
	Skipped   int
}

// GenerateRotationDraft drafts hotline duty assignments for the team over the
// date range, preferring members whose last duty is least recent. The batch is
// written in draft status for review; nothing reaches the schedule ledger
// until the batch is finalized.
func GenerateRotationDraft(ctx context.Context, store RotationStore, cfg *config.Config, logger *zap.Logger, params GenerateRotationParams) (*RotationDraftResult, error) {
	fromDate, toDate, err := parseDateRange(params.From, params.To)
	if err != nil {
		return nil, err
	}

	logger.Debug("Generating rotation draft",
		zap.String("team_id", params.TeamID),
		zap.String("from", params.From),
		zap.String("to", params.To),
		zap.Int("min_staff_per_day", params.MinStaffPerDay))

	memberRecords, err := store.GetEligibleMembers(ctx, params.TeamID)
	if err != nil {
		return nil, model.NewCollaboratorError("directory store", err)
	}
	if len(memberRecords) == 0 {
		return nil, model.NewValidationError("no_eligible_members",
			fmt.Sprintf("team %s has no eligible members configured", params.TeamID))
	}

	// Prior hotline duty within the lookback window ranks members by recency
	lookbackFrom := fromDate.AddDate(0, 0, -lastAssignedLookbackDays).Format(dateLayout)
	lookbackTo := fromDate.AddDate(0, 0, -1).Format(dateLayout)
	priorRecords, err := store.GetScheduleEntries(ctx, []string{params.TeamID}, lookbackFrom, lookbackTo)
	if err != nil {
		return nil, model.NewCollaboratorError("schedule ledger", err)
	}

	lastAssigned := make(map[string]time.Time)
	for _, record := range priorRecords {
		if model.ActivityType(record.ActivityType) != model.ActivityHotlineSupport {
			continue
		}
		date, err := parseDate(record.Date)
		if err != nil {
			continue
		}
		if previous, ok := lastAssigned[record.UserID]; !ok || date.After(previous) {
			lastAssigned[record.UserID] = date
		}
	}

	rangeRecords, err := store.GetScheduleEntries(ctx, []string{params.TeamID}, params.From, params.To)
	if err != nil {
		return nil, model.NewCollaboratorError("schedule ledger", err)
	}
	rangeEntries, err := entriesFromRecords(rangeRecords)
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand
	tieBreak := rotation.TieBreak(cfg.Rotation.TieBreak)
	if tieBreak == rotation.TieBreakRandom {
		seed := params.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	outcome, err := rotation.Generate(rotation.GenerateInput{
		TeamID:         params.TeamID,
		Dates:          dutyDates(fromDate, toDate, params.SkipWeekends),
		MinStaffPerDay: params.MinStaffPerDay,
		Members:        eligibleMembersFromRecords(memberRecords),
		LastAssigned:   lastAssigned,
		Entries:        rangeEntries,
		TieBreak:       tieBreak,
		Rand:           rng,
		StartTime:      cfg.Rotation.StartTime,
		EndTime:        cfg.Rotation.EndTime,
	})
	if err != nil {
		return nil, err
	}

	batchID := uuid.New().String()
	drafts := make([]db.RotationDraftAssignment, 0, len(outcome.Assignments))
	for _, slot := range outcome.Assignments {
		drafts = append(drafts, db.RotationDraftAssignment{
			ID:             uuid.New().String(),
			BatchID:        batchID,
			TeamID:         slot.TeamID,
			UserID:         slot.UserID,
			Date:           slot.Date.Format(dateLayout),
			StartTime:      slot.StartTime,
			EndTime:        slot.EndTime,
			IsSubstitute:   slot.IsSubstitute,
			OriginalUserID: slot.OriginalUserID,
			Status:         string(model.DraftOpen),
		})
	}

	if err := store.InsertRotationDrafts(ctx, drafts); err != nil {
		return nil, fmt.Errorf("failed to insert rotation drafts: %w", err)
	}

	for _, uncovered := range outcome.Uncovered {
		logger.Warn("Rotation slot could not be covered",
			zap.String("date", uncovered.Date.Format(dateLayout)),
			zap.Int("slot", uncovered.SlotIndex),
			zap.String("reason", uncovered.Reason))
	}

	logger.Info("Rotation draft generated",
		zap.String("batch_id", batchID),
		zap.Int("assignments", len(drafts)),
		zap.Int("uncovered", len(outcome.Uncovered)))

	return &RotationDraftResult{
		BatchID:     batchID,
		Created:     len(drafts),
		Uncovered:   outcome.Uncovered,
		Assignments: drafts,
	}, nil
}

// ReviewRotationDraft loads a draft batch with fairness statistics so a
// manager can inspect the spread before finalizing
func ReviewRotationDraft(ctx context.Context, store RotationStore, logger *zap.Logger, batchID string) (*RotationReview, error) {
	batch, err := store.GetRotationDraftBatch(ctx, batchID)
	if err != nil {
		return nil, model.NewCollaboratorError("rotation draft store", err)
	}
	if len(batch) == 0 {
		return nil, model.NewValidationError("batch_not_found",
			fmt.Sprintf("rotation draft batch %s does not exist", batchID))
	}

	teamID := batch[0].TeamID
	memberRecords, err := store.GetEligibleMembers(ctx, teamID)
	if err != nil {
		return nil, model.NewCollaboratorError("directory store", err)
	}

	slots := make([]rotation.Slot, 0, len(batch))
	review := &RotationReview{BatchID: batchID, TeamID: teamID, Drafts: batch}
	for _, draft := range batch {
		date, err := parseDate(draft.Date)
		if err != nil {
			return nil, err
		}
		slots = append(slots, rotation.Slot{TeamID: draft.TeamID, UserID: draft.UserID, Date: date})

		if draft.Status == string(model.DraftFinalized) {
			review.Finalized++
		} else {
			review.DraftRows++
		}
	}

	review.Stats = rotation.Stats(slots, eligibleMembersFromRecords(memberRecords))

	logger.Debug("Rotation draft reviewed",
		zap.String("batch_id", batchID),
		zap.Int("draft_rows", review.DraftRows),
		zap.Int("finalized", review.Finalized))

	return review, nil
}

// FinalizeRotationDraft converts a reviewed batch into committed schedule
// entries. The ledger is re-read first: a slot whose user gained a blocking
// entry since the draft was generated, and rows that lost their draft status
// since review, are handled per the configured conflict policy - skip logs
// and moves on, fail refuses the batch. Notification delivery is best effort.
func FinalizeRotationDraft(ctx context.Context, store RotationStore, notifier Notifier, cfg *config.Config, logger *zap.Logger, batchID, createdBy string) (*FinalizeResult, error) {
	batch, err := store.GetRotationDraftBatch(ctx, batchID)
	if err != nil {
		return nil, model.NewCollaboratorError("rotation draft store", err)
	}
	if len(batch) == 0 {
		return nil, model.NewValidationError("batch_not_found",
			fmt.Sprintf("rotation draft batch %s does not exist", batchID))
	}

	conflicted, err := ledgerConflicts(ctx, store, batch)
	if err != nil {
		return nil, err
	}

	var entries []db.ScheduleEntry
	var draftIDs []string
	alreadyFinalized := 0
	conflictSkipped := 0
	for _, draft := range batch {
		if draft.Status != string(model.DraftOpen) {
			alreadyFinalized++
			continue
		}
		if conflicted[draft.UserID+"|"+draft.Date] {
			if cfg.Rotation.ConflictPolicy == "fail" {
				return nil, model.NewValidationError("slot_conflict",
					fmt.Sprintf("user %s already has a conflicting entry on %s", draft.UserID, draft.Date))
			}
			conflictSkipped++
			continue
		}
		entries = append(entries, db.ScheduleEntry{
			ID:                 uuid.New().String(),
			UserID:             draft.UserID,
			TeamID:             draft.TeamID,
			Date:               draft.Date,
			ShiftType:          string(model.ShiftNormal),
			ActivityType:       string(model.ActivityHotlineSupport),
			AvailabilityStatus: string(model.StatusAvailable),
			Notes:              "hotline rotation",
			CreatedBy:          createdBy,
		})
		draftIDs = append(draftIDs, draft.ID)
	}

	if cfg.Rotation.ConflictPolicy == "fail" && alreadyFinalized > 0 {
		return nil, model.NewValidationError("batch_partially_finalized",
			fmt.Sprintf("%d rows in batch %s are already finalized", alreadyFinalized, batchID))
	}

	if conflictSkipped > 0 {
		logger.Warn("Some draft slots conflict with newer schedule entries",
			zap.String("batch_id", batchID),
			zap.Int("conflicted", conflictSkipped))
	}

	skipped, err := store.FinalizeRotationDrafts(ctx, batchID, entries, draftIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize rotation drafts: %w", err)
	}
	if len(skipped) > 0 {
		if cfg.Rotation.ConflictPolicy == "fail" {
			return nil, &model.ConflictError{Resource: "rotation draft batch", ID: batchID}
		}
		logger.Warn("Some draft rows were skipped during finalize",
			zap.String("batch_id", batchID),
			zap.Int("skipped", len(skipped)))
	}

	result := &FinalizeResult{
		Finalized: len(draftIDs) - len(skipped),
		Skipped:   len(skipped) + alreadyFinalized + conflictSkipped,
	}

	logger.Info("Rotation draft finalized",
		zap.String("batch_id", batchID),
		zap.Int("finalized", result.Finalized),
		zap.Int("skipped", result.Skipped))

	notifyRotationFinalized(ctx, store, notifier, logger, committedDrafts(batch, conflicted, skipped))
	return result, nil
}

// ledgerConflicts re-reads the schedule ledger over the batch's date range and
// returns the (user, date) pairs that already hold an entry blocking hotline
// duty. A vacation approved after the draft was generated lands here.
func ledgerConflicts(ctx context.Context, store RotationStore, batch []db.RotationDraftAssignment) (map[string]bool, error) {
	dates := make([]time.Time, 0, len(batch))
	for _, draft := range batch {
		date, err := parseDate(draft.Date)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	from, to := dateBounds(dates)

	records, err := store.GetScheduleEntries(ctx, []string{batch[0].TeamID}, from, to)
	if err != nil {
		return nil, model.NewCollaboratorError("schedule ledger", err)
	}

	conflicted := make(map[string]bool)
	for _, record := range records {
		if model.ActivityType(record.ActivityType).ConflictsWithRotation() {
			conflicted[record.UserID+"|"+record.Date] = true
		}
	}
	return conflicted, nil
}

// committedDrafts filters the batch down to the rows that actually became
// schedule entries, so notifications only go to members with committed duty
func committedDrafts(batch []db.RotationDraftAssignment, conflicted map[string]bool, skippedIDs []string) []db.RotationDraftAssignment {
	skipped := make(map[string]bool, len(skippedIDs))
	for _, id := range skippedIDs {
		skipped[id] = true
	}

	var committed []db.RotationDraftAssignment
	for _, draft := range batch {
		if draft.Status != string(model.DraftOpen) || skipped[draft.ID] || conflicted[draft.UserID+"|"+draft.Date] {
			continue
		}
		committed = append(committed, draft)
	}
	return committed
}

// DiscardRotationDraft deletes an unfinalized draft batch
func DiscardRotationDraft(ctx context.Context, store RotationStore, logger *zap.Logger, batchID string) error {
	batch, err := store.GetRotationDraftBatch(ctx, batchID)
	if err != nil {
		return model.NewCollaboratorError("rotation draft store", err)
	}
	if len(batch) == 0 {
		return model.NewValidationError("batch_not_found",
			fmt.Sprintf("rotation draft batch %s does not exist", batchID))
	}

	for _, draft := range batch {
		if draft.Status == string(model.DraftFinalized) {
			return model.NewValidationError("batch_finalized",
				fmt.Sprintf("batch %s has finalized rows and cannot be discarded", batchID))
		}
	}

	if err := store.DeleteRotationDraftBatch(ctx, batchID); err != nil {
		return fmt.Errorf("failed to discard rotation draft batch: %w", err)
	}

	logger.Info("Rotation draft discarded",
		zap.String("batch_id", batchID),
		zap.Int("rows", len(batch)))

	return nil
}

// notifyRotationFinalized emails every assigned member their duty dates.
// Failures are logged and swallowed: the schedule already committed.
func notifyRotationFinalized(ctx context.Context, store RotationStore, notifier Notifier, logger *zap.Logger, batch []db.RotationDraftAssignment) {
	if notifier == nil || len(batch) == 0 {
		return
	}

	members, err := store.GetTeamMembers(ctx, batch[0].TeamID)
	if err != nil {
		logger.Warn("Failed to resolve members for rotation notification", zap.Error(err))
		return
	}
	emails := make(map[string]string, len(members))
	for _, member := range members {
		emails[member.ID] = member.Email
	}

	dutyDates := make(map[string][]string)
	for _, draft := range batch {
		dutyDates[draft.UserID] = append(dutyDates[draft.UserID], draft.Date)
	}

	for userID, dates := range dutyDates {
		email := emails[userID]
		if email == "" {
			continue
		}
		body := fmt.Sprintf("You have been assigned hotline duty on: %s", strings.Join(dates, ", "))
		if err := notifier.Send(ctx, []string{email}, "Hotline rotation schedule", body); err != nil {
			logger.Warn("Failed to send rotation notification",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
}

func dutyDates(from, to time.Time, skipWeekends bool) []time.Time {
	var dates []time.Time
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if skipWeekends {
			weekday := day.Weekday()
			if weekday == time.Saturday || weekday == time.Sunday {
				continue
			}
		}
		dates = append(dates, day)
	}
	return dates
}
