package db

import "context"

// DirectoryStore defines team/user directory operations
type DirectoryStore interface {
	GetTeams(ctx context.Context) ([]Team, error)
	GetTeamMembers(ctx context.Context, teamID string) ([]User, error)
	GetCapacityRequirements(ctx context.Context, teamIDs []string) ([]CapacityRequirement, error)
	GetPartnerships(ctx context.Context) ([]PlanningPartnership, error)
	GetPartnershipShiftRequirements(ctx context.Context, partnershipID string) ([]PartnershipShiftRequirement, error)
	GetEligibleMembers(ctx context.Context, teamID string) ([]EligibleMember, error)
}

// LedgerStore defines schedule ledger operations
type LedgerStore interface {
	GetScheduleEntries(ctx context.Context, teamIDs []string, from, to string) ([]ScheduleEntry, error)
	GetScheduleEntry(ctx context.Context, id string) (*ScheduleEntry, error)
	GetUserEntryForDate(ctx context.Context, userID, teamID, date string) (*ScheduleEntry, error)

	// ReplaceScheduleEntries deletes the given entry IDs and inserts the new
	// entries in one transaction; on any error nothing is applied. Either
	// list may be empty.
	ReplaceScheduleEntries(ctx context.Context, deleteIDs []string, entries []ScheduleEntry) error
}

// SwapRequestStore defines swap request operations. Status transitions are
// conditional on the currently-stored status so concurrent approvals cannot
// both succeed.
type SwapRequestStore interface {
	GetSwapRequest(ctx context.Context, id string) (*SwapRequest, error)
	GetSwapRequestsForDate(ctx context.Context, date string) ([]SwapRequest, error)
	InsertSwapRequest(ctx context.Context, request *SwapRequest) error

	// UpdateSwapRequestStatus transitions id from fromStatus to toStatus.
	// Returns false without error when the request was not in fromStatus.
	UpdateSwapRequestStatus(ctx context.Context, id, fromStatus, toStatus string) (bool, error)

	// ClaimSwapRequest fills the counterparty on an unclaimed open offer.
	// Returns false when the request is no longer an unclaimed pending offer.
	ClaimSwapRequest(ctx context.Context, id, targetUserID, targetEntryID string) (bool, error)

	// ApproveSwapExchange transitions the request to approved and exchanges
	// the user IDs on both entries in one transaction. Returns false when the
	// request was no longer pending; on any error nothing is applied.
	ApproveSwapExchange(ctx context.Context, requestID, entryAID, entryBID string) (bool, error)

	// ApproveSwapTakeover transitions the request to approved and reassigns
	// the single entry to the new user in one transaction. Used for claimed
	// open offers where the claimer put forward no entry of their own.
	ApproveSwapTakeover(ctx context.Context, requestID, entryID, newUserID string) (bool, error)
}

// RotationDraftStore defines rotation draft operations
type RotationDraftStore interface {
	InsertRotationDrafts(ctx context.Context, drafts []RotationDraftAssignment) error
	GetRotationDraftBatch(ctx context.Context, batchID string) ([]RotationDraftAssignment, error)
	DeleteRotationDraftBatch(ctx context.Context, batchID string) error

	// FinalizeRotationDrafts converts the given draft rows to committed
	// schedule entries and marks them finalized in one transaction. Only rows
	// still in draft status are converted; the IDs of rows that were not are
	// returned so the caller can report them.
	FinalizeRotationDrafts(ctx context.Context, batchID string, entries []ScheduleEntry, draftIDs []string) (skipped []string, err error)
}
