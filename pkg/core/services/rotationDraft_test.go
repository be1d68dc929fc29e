package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkowalski/staffrota/internal/config"
	"github.com/mkowalski/staffrota/pkg/core/model"
	"github.com/mkowalski/staffrota/pkg/db"
)

func rotationConfig() *config.Config {
	cfg := testConfig()
	cfg.Rotation = config.RotationConfig{
		TieBreak:       "sequential",
		ConflictPolicy: "skip",
		StartTime:      "09:00",
		EndTime:        "17:00",
	}
	return cfg
}

func rotationStore() *mockStore {
	store := newMockStore()
	store.eligibleMembers = []db.EligibleMember{
		{TeamID: "team-a", UserID: "alice", IsActive: true},
		{TeamID: "team-a", UserID: "bob", IsActive: true},
		{TeamID: "team-a", UserID: "carol", IsActive: true},
	}
	return store
}

func TestGenerateRotationDraft_CreatesBatch(t *testing.T) {
	store := rotationStore()

	result, err := GenerateRotationDraft(context.Background(), store, rotationConfig(), zap.NewNop(),
		GenerateRotationParams{
			TeamID:         "team-a",
			From:           "2025-03-03", // Monday
			To:             "2025-03-05",
			MinStaffPerDay: 1,
		})
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 3, result.Created)
	require.Len(t, store.insertedDrafts, 3)

	// Everyone gets one day before anyone gets a second
	seen := map[string]int{}
	for _, draft := range store.insertedDrafts {
		assert.Equal(t, result.BatchID, draft.BatchID)
		assert.Equal(t, "draft", draft.Status)
		assert.Equal(t, "09:00", draft.StartTime)
		assert.Equal(t, "17:00", draft.EndTime)
		seen[draft.UserID]++
	}
	assert.Len(t, seen, 3)
}

func TestGenerateRotationDraft_PriorDutyRanksLast(t *testing.T) {
	store := rotationStore()
	// Alice had hotline duty recently; bob and carol have not
	store.entries = []db.ScheduleEntry{
		{ID: "e1", UserID: "alice", TeamID: "team-a", Date: "2025-02-24", ActivityType: "hotline_support"},
	}

	result, err := GenerateRotationDraft(context.Background(), store, rotationConfig(), zap.NewNop(),
		GenerateRotationParams{
			TeamID:         "team-a",
			From:           "2025-03-03",
			To:             "2025-03-03",
			MinStaffPerDay: 1,
		})
	require.NoError(t, err)

	require.Equal(t, 1, result.Created)
	assert.NotEqual(t, "alice", store.insertedDrafts[0].UserID)
}

func TestGenerateRotationDraft_ConflictProducesSubstitute(t *testing.T) {
	store := rotationStore()
	// Alice is due first but on vacation that day
	store.entries = []db.ScheduleEntry{
		{ID: "e1", UserID: "alice", TeamID: "team-a", Date: "2025-03-03", ActivityType: "vacation"},
	}

	_, err := GenerateRotationDraft(context.Background(), store, rotationConfig(), zap.NewNop(),
		GenerateRotationParams{
			TeamID:         "team-a",
			From:           "2025-03-03",
			To:             "2025-03-03",
			MinStaffPerDay: 1,
		})
	require.NoError(t, err)

	require.Len(t, store.insertedDrafts, 1)
	draft := store.insertedDrafts[0]
	assert.Equal(t, "bob", draft.UserID)
	assert.True(t, draft.IsSubstitute)
	assert.Equal(t, "alice", draft.OriginalUserID)
}

func TestGenerateRotationDraft_NoEligibleMembers(t *testing.T) {
	store := newMockStore()

	_, err := GenerateRotationDraft(context.Background(), store, rotationConfig(), zap.NewNop(),
		GenerateRotationParams{
			TeamID:         "team-a",
			From:           "2025-03-03",
			To:             "2025-03-05",
			MinStaffPerDay: 1,
		})

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "no_eligible_members", verr.Condition)
}

func TestReviewRotationDraft(t *testing.T) {
	store := rotationStore()
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "draft"},
		{ID: "d2", BatchID: "batch-1", TeamID: "team-a", UserID: "bob", Date: "2025-03-04", Status: "draft"},
		{ID: "d3", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-05", Status: "finalized"},
	}

	review, err := ReviewRotationDraft(context.Background(), store, zap.NewNop(), "batch-1")
	require.NoError(t, err)

	assert.Equal(t, "team-a", review.TeamID)
	assert.Equal(t, 2, review.DraftRows)
	assert.Equal(t, 1, review.Finalized)
	assert.Equal(t, 2, review.Stats.Counts["alice"])
	assert.Equal(t, 1, review.Stats.Counts["bob"])
	assert.Equal(t, 0, review.Stats.Counts["carol"])
	assert.InDelta(t, 1.0, review.Stats.Average, 0.001)
}

func TestReviewRotationDraft_BatchNotFound(t *testing.T) {
	store := rotationStore()

	_, err := ReviewRotationDraft(context.Background(), store, zap.NewNop(), "missing")

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "batch_not_found", verr.Condition)
}

func TestFinalizeRotationDraft_CommitsEntries(t *testing.T) {
	store := rotationStore()
	store.teamMembers["team-a"] = []db.User{
		{ID: "alice", Email: "alice@example.com"},
		{ID: "bob", Email: "bob@example.com"},
	}
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "draft"},
		{ID: "d2", BatchID: "batch-1", TeamID: "team-a", UserID: "bob", Date: "2025-03-04", Status: "draft"},
	}
	notifier := &mockNotifier{}

	result, err := FinalizeRotationDraft(context.Background(), store, notifier, rotationConfig(), zap.NewNop(),
		"batch-1", "manager-1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Finalized)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, store.insertedEntries, 2)
	assert.Equal(t, "hotline_support", store.insertedEntries[0].ActivityType)
	assert.Equal(t, "manager-1", store.insertedEntries[0].CreatedBy)

	// One email per assigned member
	assert.Len(t, notifier.sent, 2)
}

func TestFinalizeRotationDraft_LedgerConflictSkipsSlot(t *testing.T) {
	store := rotationStore()
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "draft"},
		{ID: "d2", BatchID: "batch-1", TeamID: "team-a", UserID: "bob", Date: "2025-03-04", Status: "draft"},
	}
	// Alice's vacation was approved after the draft was generated
	store.entries = []db.ScheduleEntry{
		{ID: "vac", UserID: "alice", TeamID: "team-a", Date: "2025-03-03", ActivityType: "vacation"},
	}
	store.teamMembers["team-a"] = []db.User{
		{ID: "alice", Email: "alice@example.com"},
		{ID: "bob", Email: "bob@example.com"},
	}
	notifier := &mockNotifier{}

	result, err := FinalizeRotationDraft(context.Background(), store, notifier, rotationConfig(), zap.NewNop(),
		"batch-1", "manager-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Finalized)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, store.insertedEntries, 1)
	assert.Equal(t, "bob", store.insertedEntries[0].UserID)

	// Only the committed member is notified
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, []string{"bob@example.com"}, notifier.sent[0].To)
}

func TestFinalizeRotationDraft_LedgerConflictFailPolicy(t *testing.T) {
	store := rotationStore()
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "draft"},
	}
	store.entries = []db.ScheduleEntry{
		{ID: "vac", UserID: "alice", TeamID: "team-a", Date: "2025-03-03", ActivityType: "vacation"},
	}
	cfg := rotationConfig()
	cfg.Rotation.ConflictPolicy = "fail"

	_, err := FinalizeRotationDraft(context.Background(), store, nil, cfg, zap.NewNop(), "batch-1", "manager-1")

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "slot_conflict", verr.Condition)
	assert.Empty(t, store.insertedEntries)
	assert.Empty(t, store.finalizedBatches)
}

func TestFinalizeRotationDraft_ExistingHotlineDutyIsAConflict(t *testing.T) {
	store := rotationStore()
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "draft"},
	}
	// Already committed hotline duty that day, e.g. the batch was finalized
	// once before via another path
	store.entries = []db.ScheduleEntry{
		{ID: "dup", UserID: "alice", TeamID: "team-a", Date: "2025-03-03", ActivityType: "hotline_support"},
	}

	result, err := FinalizeRotationDraft(context.Background(), store, nil, rotationConfig(), zap.NewNop(),
		"batch-1", "manager-1")
	require.NoError(t, err)

	// Never double-book the same user and date
	assert.Equal(t, 0, result.Finalized)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, store.insertedEntries)
}

func TestFinalizeRotationDraft_SkipPolicyToleratesFinalizedRows(t *testing.T) {
	store := rotationStore()
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "finalized"},
		{ID: "d2", BatchID: "batch-1", TeamID: "team-a", UserID: "bob", Date: "2025-03-04", Status: "draft"},
	}

	result, err := FinalizeRotationDraft(context.Background(), store, nil, rotationConfig(), zap.NewNop(),
		"batch-1", "manager-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Finalized)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, store.insertedEntries, 1)
	assert.Equal(t, "bob", store.insertedEntries[0].UserID)
}

func TestFinalizeRotationDraft_FailPolicyRefusesPartialBatch(t *testing.T) {
	store := rotationStore()
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "finalized"},
		{ID: "d2", BatchID: "batch-1", TeamID: "team-a", UserID: "bob", Date: "2025-03-04", Status: "draft"},
	}
	cfg := rotationConfig()
	cfg.Rotation.ConflictPolicy = "fail"

	_, err := FinalizeRotationDraft(context.Background(), store, nil, cfg, zap.NewNop(), "batch-1", "manager-1")

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "batch_partially_finalized", verr.Condition)
	assert.Empty(t, store.insertedEntries)
}

func TestFinalizeRotationDraft_FailPolicyRaceIsConflict(t *testing.T) {
	store := rotationStore()
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "draft"},
	}
	store.finalizeSkips = []string{"d1"} // drifted between read and write
	cfg := rotationConfig()
	cfg.Rotation.ConflictPolicy = "fail"

	_, err := FinalizeRotationDraft(context.Background(), store, nil, cfg, zap.NewNop(), "batch-1", "manager-1")

	assert.True(t, model.IsConflict(err))
}

func TestDiscardRotationDraft(t *testing.T) {
	store := rotationStore()
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "draft"},
	}

	err := DiscardRotationDraft(context.Background(), store, zap.NewNop(), "batch-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"batch-1"}, store.deletedBatchIDs)
}

func TestDiscardRotationDraft_RefusesFinalizedBatch(t *testing.T) {
	store := rotationStore()
	store.draftBatches["batch-1"] = []db.RotationDraftAssignment{
		{ID: "d1", BatchID: "batch-1", TeamID: "team-a", UserID: "alice", Date: "2025-03-03", Status: "finalized"},
	}

	err := DiscardRotationDraft(context.Background(), store, zap.NewNop(), "batch-1")

	verr, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "batch_finalized", verr.Condition)
	assert.Empty(t, store.deletedBatchIDs)
}
