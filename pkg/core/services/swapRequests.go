package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkowalski/staffrota/pkg/core/model"
	"github.com/mkowalski/staffrota/pkg/core/swap"
	"github.com/mkowalski/staffrota/pkg/db"
)

// SwapStore defines the store operations the swap request lifecycle needs
type SwapStore interface {
	GetPartnerships(ctx context.Context) ([]db.PlanningPartnership, error)
	GetTeamMembers(ctx context.Context, teamID string) ([]db.User, error)
	GetScheduleEntry(ctx context.Context, id string) (*db.ScheduleEntry, error)
	GetUserEntryForDate(ctx context.Context, userID, teamID, date string) (*db.ScheduleEntry, error)
	GetSwapRequest(ctx context.Context, id string) (*db.SwapRequest, error)
	GetSwapRequestsForDate(ctx context.Context, date string) ([]db.SwapRequest, error)
	InsertSwapRequest(ctx context.Context, request *db.SwapRequest) error
	UpdateSwapRequestStatus(ctx context.Context, id, fromStatus, toStatus string) (bool, error)
	ClaimSwapRequest(ctx context.Context, id, targetUserID, targetEntryID string) (bool, error)
	ApproveSwapExchange(ctx context.Context, requestID, entryAID, entryBID string) (bool, error)
	ApproveSwapTakeover(ctx context.Context, requestID, entryID, newUserID string) (bool, error)
}

// CreateSwapParams describes a new swap request. An empty TargetUserID makes
// it an open offer. TargetTeamID defaults to TeamID when empty.
type CreateSwapParams struct {
	RequestingUserID string
	TargetUserID     string
	TeamID           string
	TargetTeamID     string
	Date             string
}

// CreateSwap validates and records a new swap request
func CreateSwap(ctx context.Context, store SwapStore, logger *zap.Logger, params CreateSwapParams) (*db.SwapRequest, error) {
	swapDate, err := parseDate(params.Date)
	if err != nil {
		return nil, err
	}

	isOpenOffer := params.TargetUserID == ""
	targetTeamID := params.TargetTeamID
	if targetTeamID == "" {
		targetTeamID = params.TeamID
	}

	logger.Debug("Creating swap request",
		zap.String("requesting_user", params.RequestingUserID),
		zap.String("target_user", params.TargetUserID),
		zap.String("date", params.Date),
		zap.Bool("open_offer", isOpenOffer))

	requestingRecord, err := store.GetUserEntryForDate(ctx, params.RequestingUserID, params.TeamID, params.Date)
	if err != nil {
		return nil, model.NewCollaboratorError("schedule ledger", err)
	}

	var targetRecord *db.ScheduleEntry
	if !isOpenOffer {
		targetRecord, err = store.GetUserEntryForDate(ctx, params.TargetUserID, targetTeamID, params.Date)
		if err != nil {
			return nil, model.NewCollaboratorError("schedule ledger", err)
		}
	}

	partnershipRecords, err := store.GetPartnerships(ctx)
	if err != nil {
		return nil, model.NewCollaboratorError("directory store", err)
	}

	pendingRecords, err := store.GetSwapRequestsForDate(ctx, params.Date)
	if err != nil {
		return nil, model.NewCollaboratorError("swap store", err)
	}
	pending := make([]model.SwapRequest, 0, len(pendingRecords))
	for i := range pendingRecords {
		request, err := swapFromRecord(&pendingRecords[i])
		if err != nil {
			return nil, err
		}
		pending = append(pending, request)
	}

	requestingEntry, targetEntry, err := entryPair(requestingRecord, targetRecord)
	if err != nil {
		return nil, err
	}

	if verr := swap.CheckCreate(swap.CreateInput{
		RequestingUserID: params.RequestingUserID,
		TargetUserID:     params.TargetUserID,
		RequestingEntry:  requestingEntry,
		TargetEntry:      targetEntry,
		SubmittedTeamID:  params.TeamID,
		SwapDate:         swapDate,
		Today:            time.Now(),
		IsOpenOffer:      isOpenOffer,
		Partnerships:     partnershipsFromRecords(partnershipRecords),
		PendingRequests:  pending,
	}); verr != nil {
		return nil, verr
	}

	record := &db.SwapRequest{
		ID:                uuid.New().String(),
		RequestingUserID:  params.RequestingUserID,
		RequestingEntryID: requestingRecord.ID,
		TargetUserID:      params.TargetUserID,
		SwapDate:          params.Date,
		TeamID:            params.TeamID,
		Status:            string(model.SwapPending),
		IsOpenOffer:       isOpenOffer,
	}
	if targetRecord != nil {
		record.TargetEntryID = targetRecord.ID
	}

	if err := store.InsertSwapRequest(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to insert swap request: %w", err)
	}

	logger.Info("Swap request created",
		zap.String("request_id", record.ID),
		zap.Bool("open_offer", isOpenOffer))

	return record, nil
}

// ClaimSwap fills the counterparty on an open offer. The claimer may put
// forward their own entry for the date by team, or none.
func ClaimSwap(ctx context.Context, store SwapStore, logger *zap.Logger, requestID, claimerID, claimerTeamID string) (*db.SwapRequest, error) {
	record, err := store.GetSwapRequest(ctx, requestID)
	if err != nil {
		return nil, model.NewCollaboratorError("swap store", err)
	}
	if record == nil {
		return nil, model.NewValidationError("request_not_found",
			fmt.Sprintf("swap request %s does not exist", requestID))
	}

	request, err := swapFromRecord(record)
	if err != nil {
		return nil, err
	}

	var claimerEntry *model.ScheduleEntry
	var claimerEntryID string
	if claimerTeamID != "" {
		claimerRecord, err := store.GetUserEntryForDate(ctx, claimerID, claimerTeamID, record.SwapDate)
		if err != nil {
			return nil, model.NewCollaboratorError("schedule ledger", err)
		}
		if claimerRecord != nil {
			entry, err := entryFromRecord(*claimerRecord)
			if err != nil {
				return nil, err
			}
			claimerEntry = &entry
			claimerEntryID = claimerRecord.ID
		}
	}

	partnershipRecords, err := store.GetPartnerships(ctx)
	if err != nil {
		return nil, model.NewCollaboratorError("directory store", err)
	}

	if verr := swap.CheckClaim(request, claimerID, claimerEntry, partnershipsFromRecords(partnershipRecords)); verr != nil {
		return nil, verr
	}

	claimed, err := store.ClaimSwapRequest(ctx, requestID, claimerID, claimerEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim swap request: %w", err)
	}
	if !claimed {
		// Someone else claimed or resolved it between our read and write
		return nil, &model.ConflictError{Resource: "swap request", ID: requestID}
	}

	logger.Info("Open offer claimed",
		zap.String("request_id", requestID),
		zap.String("claimer", claimerID))

	record.TargetUserID = claimerID
	record.TargetEntryID = claimerEntryID
	record.IsOpenOffer = false
	return record, nil
}

// ApproveSwap re-validates a pending request against current state and, when
// it still holds, applies the exchange atomically. A concurrent resolution of
// the same request surfaces as a ConflictError, never a double apply.
// Notification delivery is best effort.
func ApproveSwap(ctx context.Context, store SwapStore, notifier Notifier, logger *zap.Logger, requestID string) error {
	record, err := store.GetSwapRequest(ctx, requestID)
	if err != nil {
		return model.NewCollaboratorError("swap store", err)
	}
	if record == nil {
		return model.NewValidationError("request_not_found",
			fmt.Sprintf("swap request %s does not exist", requestID))
	}

	request, err := swapFromRecord(record)
	if err != nil {
		return err
	}

	requestingRecord, err := store.GetScheduleEntry(ctx, record.RequestingEntryID)
	if err != nil {
		return model.NewCollaboratorError("schedule ledger", err)
	}

	var targetRecord *db.ScheduleEntry
	if record.TargetEntryID != "" {
		targetRecord, err = store.GetScheduleEntry(ctx, record.TargetEntryID)
		if err != nil {
			return model.NewCollaboratorError("schedule ledger", err)
		}
	}

	partnershipRecords, err := store.GetPartnerships(ctx)
	if err != nil {
		return model.NewCollaboratorError("directory store", err)
	}

	requestingEntry, targetEntry, err := entryPair(requestingRecord, targetRecord)
	if err != nil {
		return err
	}

	if verr := swap.CheckApproval(request, requestingEntry, targetEntry, partnershipsFromRecords(partnershipRecords)); verr != nil {
		return verr
	}

	var applied bool
	if record.TargetEntryID == "" {
		applied, err = store.ApproveSwapTakeover(ctx, requestID, record.RequestingEntryID, record.TargetUserID)
	} else {
		applied, err = store.ApproveSwapExchange(ctx, requestID, record.RequestingEntryID, record.TargetEntryID)
	}
	if err != nil {
		return fmt.Errorf("failed to apply swap: %w", err)
	}
	if !applied {
		return &model.ConflictError{Resource: "swap request", ID: requestID}
	}

	logger.Info("Swap request approved", zap.String("request_id", requestID))

	notifySwapResolved(ctx, store, notifier, logger, record, "approved")
	return nil
}

// RejectSwap marks a pending request rejected. Rejection is terminal.
func RejectSwap(ctx context.Context, store SwapStore, notifier Notifier, logger *zap.Logger, requestID string) error {
	record, err := store.GetSwapRequest(ctx, requestID)
	if err != nil {
		return model.NewCollaboratorError("swap store", err)
	}
	if record == nil {
		return model.NewValidationError("request_not_found",
			fmt.Sprintf("swap request %s does not exist", requestID))
	}
	if record.Status != string(model.SwapPending) {
		return model.NewValidationError(swap.CondNotPending,
			fmt.Sprintf("request is %s, not pending", record.Status))
	}

	updated, err := store.UpdateSwapRequestStatus(ctx, requestID, string(model.SwapPending), string(model.SwapRejected))
	if err != nil {
		return fmt.Errorf("failed to reject swap request: %w", err)
	}
	if !updated {
		return &model.ConflictError{Resource: "swap request", ID: requestID}
	}

	logger.Info("Swap request rejected", zap.String("request_id", requestID))

	notifySwapResolved(ctx, store, notifier, logger, record, "rejected")
	return nil
}

// notifySwapResolved emails both parties about the outcome. Failures are
// logged and swallowed: the state change already committed.
func notifySwapResolved(ctx context.Context, store SwapStore, notifier Notifier, logger *zap.Logger, record *db.SwapRequest, outcome string) {
	if notifier == nil {
		return
	}

	recipients := lookupEmails(ctx, store, record.TeamID, record.RequestingUserID, record.TargetUserID)
	if len(recipients) == 0 {
		return
	}

	subject := fmt.Sprintf("Shift swap on %s %s", record.SwapDate, outcome)
	body := fmt.Sprintf("The shift swap request for %s has been %s.", record.SwapDate, outcome)
	if err := notifier.Send(ctx, recipients, subject, body); err != nil {
		logger.Warn("Failed to send swap notification",
			zap.String("request_id", record.ID),
			zap.Error(err))
	}
}

func lookupEmails(ctx context.Context, store SwapStore, teamID string, userIDs ...string) []string {
	members, err := store.GetTeamMembers(ctx, teamID)
	if err != nil {
		return nil
	}

	var emails []string
	for _, member := range members {
		for _, userID := range userIDs {
			if member.ID == userID && member.Email != "" {
				emails = append(emails, member.Email)
			}
		}
	}
	return emails
}

func entryPair(requesting, target *db.ScheduleEntry) (*model.ScheduleEntry, *model.ScheduleEntry, error) {
	var requestingEntry, targetEntry *model.ScheduleEntry
	if requesting != nil {
		entry, err := entryFromRecord(*requesting)
		if err != nil {
			return nil, nil, err
		}
		requestingEntry = &entry
	}
	if target != nil {
		entry, err := entryFromRecord(*target)
		if err != nil {
			return nil, nil, err
		}
		targetEntry = &entry
	}
	return requestingEntry, targetEntry, nil
}
