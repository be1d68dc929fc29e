package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkowalski/staffrota/pkg/core/model"
	"github.com/mkowalski/staffrota/pkg/core/swap"
	"github.com/mkowalski/staffrota/pkg/db"
)

func futureDate() string {
	return time.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

func swapStoreWithEntries(date string) *mockStore {
	store := newMockStore()
	store.partnerships = []db.PlanningPartnership{
		{ID: "p1", Name: "ops", TeamIDs: []string{"team-a", "team-b"}},
	}
	store.userEntries["alice|team-a|"+date] = db.ScheduleEntry{
		ID: "e1", UserID: "alice", TeamID: "team-a", Date: date,
		ShiftType: "normal", ActivityType: "work", AvailabilityStatus: "available",
	}
	store.userEntries["bob|team-b|"+date] = db.ScheduleEntry{
		ID: "e2", UserID: "bob", TeamID: "team-b", Date: date,
		ShiftType: "normal", ActivityType: "work", AvailabilityStatus: "available",
	}
	store.entriesByID["e1"] = store.userEntries["alice|team-a|"+date]
	store.entriesByID["e2"] = store.userEntries["bob|team-b|"+date]
	return store
}

func TestCreateSwap_Valid(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)

	record, err := CreateSwap(context.Background(), store, zap.NewNop(), CreateSwapParams{
		RequestingUserID: "alice",
		TargetUserID:     "bob",
		TeamID:           "team-a",
		TargetTeamID:     "team-b",
		Date:             date,
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", record.Status)
	assert.Equal(t, "e1", record.RequestingEntryID)
	assert.Equal(t, "e2", record.TargetEntryID)
	assert.False(t, record.IsOpenOffer)
	require.Len(t, store.insertedSwaps, 1)
}

func TestCreateSwap_EmptyTargetIsOpenOffer(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)

	record, err := CreateSwap(context.Background(), store, zap.NewNop(), CreateSwapParams{
		RequestingUserID: "alice",
		TeamID:           "team-a",
		Date:             date,
	})
	require.NoError(t, err)

	assert.True(t, record.IsOpenOffer)
	assert.Empty(t, record.TargetUserID)
	assert.Empty(t, record.TargetEntryID)
}

func TestCreateSwap_NoEntryForDate(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)

	_, err := CreateSwap(context.Background(), store, zap.NewNop(), CreateSwapParams{
		RequestingUserID: "carol", // no entry
		TargetUserID:     "bob",
		TeamID:           "team-a",
		TargetTeamID:     "team-b",
		Date:             date,
	})

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, swap.CondEntryMissing, verr.Condition)
	assert.Empty(t, store.insertedSwaps)
}

func TestCreateSwap_PendingRequestBlocks(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)
	store.swapsByDate[date] = []db.SwapRequest{
		{ID: "swap-0", RequestingUserID: "alice", SwapDate: date, Status: "pending"},
	}

	_, err := CreateSwap(context.Background(), store, zap.NewNop(), CreateSwapParams{
		RequestingUserID: "alice",
		TargetUserID:     "bob",
		TeamID:           "team-a",
		TargetTeamID:     "team-b",
		Date:             date,
	})

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, swap.CondPendingExists, verr.Condition)
}

func TestClaimSwap_FillsCounterparty(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)
	store.swapRequests["swap-1"] = db.SwapRequest{
		ID: "swap-1", RequestingUserID: "alice", RequestingEntryID: "e1",
		SwapDate: date, TeamID: "team-a", Status: "pending", IsOpenOffer: true,
	}

	record, err := ClaimSwap(context.Background(), store, zap.NewNop(), "swap-1", "bob", "team-b")
	require.NoError(t, err)

	assert.Equal(t, "bob", record.TargetUserID)
	assert.Equal(t, "e2", record.TargetEntryID)
	assert.False(t, record.IsOpenOffer)
}

func TestClaimSwap_LostRaceIsConflict(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)
	store.swapRequests["swap-1"] = db.SwapRequest{
		ID: "swap-1", RequestingUserID: "alice", RequestingEntryID: "e1",
		SwapDate: date, TeamID: "team-a", Status: "pending", IsOpenOffer: true,
	}
	store.claimOK = false

	_, err := ClaimSwap(context.Background(), store, zap.NewNop(), "swap-1", "bob", "team-b")

	assert.True(t, model.IsConflict(err))
}

func TestApproveSwap_ExchangesEntries(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)
	store.teamMembers["team-a"] = []db.User{
		{ID: "alice", Email: "alice@example.com"},
	}
	store.swapRequests["swap-1"] = db.SwapRequest{
		ID: "swap-1", RequestingUserID: "alice", RequestingEntryID: "e1",
		TargetUserID: "bob", TargetEntryID: "e2",
		SwapDate: date, TeamID: "team-a", Status: "pending",
	}
	notifier := &mockNotifier{}

	err := ApproveSwap(context.Background(), store, notifier, zap.NewNop(), "swap-1")
	require.NoError(t, err)

	// Entries exchanged users, request approved
	assert.Equal(t, "bob", store.entriesByID["e1"].UserID)
	assert.Equal(t, "alice", store.entriesByID["e2"].UserID)
	assert.Equal(t, "approved", store.swapRequests["swap-1"].Status)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, []string{"alice@example.com"}, notifier.sent[0].To)
}

func TestApproveSwap_SecondApprovalIsConflict(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)
	store.swapRequests["swap-1"] = db.SwapRequest{
		ID: "swap-1", RequestingUserID: "alice", RequestingEntryID: "e1",
		TargetUserID: "bob", TargetEntryID: "e2",
		SwapDate: date, TeamID: "team-a", Status: "pending",
	}
	store.exchangeOK = false // the guard fails: someone approved it first

	err := ApproveSwap(context.Background(), store, nil, zap.NewNop(), "swap-1")

	assert.True(t, model.IsConflict(err))
}

func TestApproveSwap_DriftedEntryFailsValidation(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)
	entry := store.entriesByID["e2"]
	entry.ActivityType = "sick" // target went on sick leave after creation
	store.entriesByID["e2"] = entry
	store.swapRequests["swap-1"] = db.SwapRequest{
		ID: "swap-1", RequestingUserID: "alice", RequestingEntryID: "e1",
		TargetUserID: "bob", TargetEntryID: "e2",
		SwapDate: date, TeamID: "team-a", Status: "pending",
	}

	err := ApproveSwap(context.Background(), store, nil, zap.NewNop(), "swap-1")

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, swap.CondEntryNotSwappable, verr.Condition)
	// Request stays pending: a failed approval is not a rejection
	assert.Equal(t, "pending", store.swapRequests["swap-1"].Status)
}

func TestApproveSwap_ClaimedWithoutEntryIsTakeover(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)
	store.swapRequests["swap-1"] = db.SwapRequest{
		ID: "swap-1", RequestingUserID: "alice", RequestingEntryID: "e1",
		TargetUserID: "carol",
		SwapDate:     date, TeamID: "team-a", Status: "pending",
	}

	err := ApproveSwap(context.Background(), store, nil, zap.NewNop(), "swap-1")
	require.NoError(t, err)

	assert.Equal(t, "carol", store.entriesByID["e1"].UserID)
	assert.Equal(t, "approved", store.swapRequests["swap-1"].Status)
}

func TestApproveSwap_NotificationFailureIsSwallowed(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)
	store.teamMembers["team-a"] = []db.User{{ID: "alice", Email: "alice@example.com"}}
	store.swapRequests["swap-1"] = db.SwapRequest{
		ID: "swap-1", RequestingUserID: "alice", RequestingEntryID: "e1",
		TargetUserID: "bob", TargetEntryID: "e2",
		SwapDate: date, TeamID: "team-a", Status: "pending",
	}
	notifier := &mockNotifier{sendErr: assert.AnError}

	err := ApproveSwap(context.Background(), store, notifier, zap.NewNop(), "swap-1")

	// The swap committed; notification failure must not undo or surface it
	require.NoError(t, err)
	assert.Equal(t, "approved", store.swapRequests["swap-1"].Status)
}

func TestRejectSwap(t *testing.T) {
	date := futureDate()
	store := swapStoreWithEntries(date)
	store.swapRequests["swap-1"] = db.SwapRequest{
		ID: "swap-1", RequestingUserID: "alice", RequestingEntryID: "e1",
		TargetUserID: "bob", TargetEntryID: "e2",
		SwapDate: date, TeamID: "team-a", Status: "pending",
	}

	err := RejectSwap(context.Background(), store, nil, zap.NewNop(), "swap-1")
	require.NoError(t, err)

	assert.Equal(t, "rejected", store.swapRequests["swap-1"].Status)
	// Entries untouched
	assert.Equal(t, "alice", store.entriesByID["e1"].UserID)
}

func TestRejectSwap_AlreadyResolved(t *testing.T) {
	store := newMockStore()
	store.swapRequests["swap-1"] = db.SwapRequest{
		ID: "swap-1", Status: "approved", SwapDate: futureDate(),
	}

	err := RejectSwap(context.Background(), store, nil, zap.NewNop(), "swap-1")

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, swap.CondNotPending, verr.Condition)
}

func TestRejectSwap_RequestNotFound(t *testing.T) {
	store := newMockStore()

	err := RejectSwap(context.Background(), store, nil, zap.NewNop(), "missing")

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "request_not_found", verr.Condition)
}
