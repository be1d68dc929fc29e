package rotation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkowalski/staffrota/pkg/core/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func members(ids ...string) []model.EligibleMember {
	out := make([]model.EligibleMember, len(ids))
	for i, id := range ids {
		out[i] = model.EligibleMember{TeamID: "team-a", UserID: id, IsActive: true}
	}
	return out
}

func baseInput() GenerateInput {
	return GenerateInput{
		TeamID:         "team-a",
		Dates:          []time.Time{date(2024, 7, 1), date(2024, 7, 2), date(2024, 7, 3)},
		MinStaffPerDay: 1,
		Members:        members("alice", "bob", "carol"),
		TieBreak:       TieBreakSequential,
		StartTime:      "09:00",
		EndTime:        "17:00",
	}
}

func TestGenerate_PrefersLeastRecentAssignment(t *testing.T) {
	in := baseInput()
	in.LastAssigned = map[string]time.Time{
		"alice": date(2024, 6, 28), // most recent
		"bob":   date(2024, 6, 10),
		// carol never assigned
	}

	outcome, err := Generate(in)
	require.NoError(t, err)
	require.Len(t, outcome.Assignments, 3)

	// carol (never) first, then bob (oldest), then alice
	assert.Equal(t, "carol", outcome.Assignments[0].UserID)
	assert.Equal(t, "bob", outcome.Assignments[1].UserID)
	assert.Equal(t, "alice", outcome.Assignments[2].UserID)
	assert.Empty(t, outcome.Uncovered)
}

func TestGenerate_FairnessTracksWithinRun(t *testing.T) {
	in := baseInput()
	in.Dates = []time.Time{
		date(2024, 7, 1), date(2024, 7, 2), date(2024, 7, 3),
		date(2024, 7, 4), date(2024, 7, 5), date(2024, 7, 8),
	}

	outcome, err := Generate(in)
	require.NoError(t, err)
	require.Len(t, outcome.Assignments, 6)

	stats := Stats(outcome.Assignments, in.Members)
	assert.Equal(t, 2, stats.Counts["alice"])
	assert.Equal(t, 2, stats.Counts["bob"])
	assert.Equal(t, 2, stats.Counts["carol"])
	assert.InDelta(t, 2.0, stats.Average, 0.001)
}

func TestGenerate_SubstitutesConflictedPrimary(t *testing.T) {
	in := baseInput()
	in.Dates = []time.Time{date(2024, 7, 1)}
	// alice would be primary but is on vacation that day
	in.Entries = []model.ScheduleEntry{
		{
			UserID:       "alice",
			TeamID:       "team-a",
			Date:         date(2024, 7, 1),
			ActivityType: model.ActivityVacation,
		},
	}

	outcome, err := Generate(in)
	require.NoError(t, err)
	require.Len(t, outcome.Assignments, 1)

	slot := outcome.Assignments[0]
	assert.Equal(t, "bob", slot.UserID)
	assert.True(t, slot.IsSubstitute)
	assert.Equal(t, "alice", slot.OriginalUserID)
}

func TestGenerate_OtherHotlineDutyIsAConflict(t *testing.T) {
	in := baseInput()
	in.Dates = []time.Time{date(2024, 7, 1)}
	in.Entries = []model.ScheduleEntry{
		{
			UserID:       "alice",
			TeamID:       "team-b",
			Date:         date(2024, 7, 1),
			ActivityType: model.ActivityHotlineSupport,
		},
	}

	outcome, err := Generate(in)
	require.NoError(t, err)
	require.Len(t, outcome.Assignments, 1)
	assert.Equal(t, "bob", outcome.Assignments[0].UserID)
	assert.True(t, outcome.Assignments[0].IsSubstitute)
}

func TestGenerate_UncoveredSlotWhenNobodyEligible(t *testing.T) {
	in := baseInput()
	in.Dates = []time.Time{date(2024, 7, 1)}
	in.Members = members("alice")
	in.Entries = []model.ScheduleEntry{
		{
			UserID:       "alice",
			TeamID:       "team-a",
			Date:         date(2024, 7, 1),
			ActivityType: model.ActivityOutOfOffice,
		},
	}

	outcome, err := Generate(in)
	require.NoError(t, err)

	assert.Empty(t, outcome.Assignments)
	require.Len(t, outcome.Uncovered, 1)
	assert.Equal(t, date(2024, 7, 1), outcome.Uncovered[0].Date)
	assert.Equal(t, 0, outcome.Uncovered[0].SlotIndex)
}

func TestGenerate_InactiveMembersNeverAssigned(t *testing.T) {
	in := baseInput()
	in.Members = []model.EligibleMember{
		{TeamID: "team-a", UserID: "alice", IsActive: false},
		{TeamID: "team-a", UserID: "bob", IsActive: true},
	}

	outcome, err := Generate(in)
	require.NoError(t, err)

	for _, slot := range outcome.Assignments {
		assert.Equal(t, "bob", slot.UserID)
	}
}

func TestGenerate_NoDoubleBookingPerDay(t *testing.T) {
	in := baseInput()
	in.Dates = []time.Time{date(2024, 7, 1)}
	in.MinStaffPerDay = 3

	outcome, err := Generate(in)
	require.NoError(t, err)
	require.Len(t, outcome.Assignments, 3)

	seen := make(map[string]bool)
	for _, slot := range outcome.Assignments {
		assert.False(t, seen[slot.UserID], "user %s booked twice on one day", slot.UserID)
		seen[slot.UserID] = true
	}
}

func TestGenerate_MoreSlotsThanMembers(t *testing.T) {
	in := baseInput()
	in.Dates = []time.Time{date(2024, 7, 1)}
	in.MinStaffPerDay = 4

	outcome, err := Generate(in)
	require.NoError(t, err)

	assert.Len(t, outcome.Assignments, 3)
	require.Len(t, outcome.Uncovered, 1)
	assert.Equal(t, 3, outcome.Uncovered[0].SlotIndex)
}

func TestGenerate_SequentialIsDeterministic(t *testing.T) {
	first, err := Generate(baseInput())
	require.NoError(t, err)
	second, err := Generate(baseInput())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_RandomTieBreakSeeded(t *testing.T) {
	in := baseInput()
	in.TieBreak = TieBreakRandom
	in.Rand = rand.New(rand.NewSource(42))

	outcome, err := Generate(in)
	require.NoError(t, err)
	require.Len(t, outcome.Assignments, 3)

	// Same seed reproduces the same draft
	in2 := baseInput()
	in2.TieBreak = TieBreakRandom
	in2.Rand = rand.New(rand.NewSource(42))
	outcome2, err := Generate(in2)
	require.NoError(t, err)
	assert.Equal(t, outcome, outcome2)
}

func TestGenerate_RandomTieBreakRequiresRand(t *testing.T) {
	in := baseInput()
	in.TieBreak = TieBreakRandom

	_, err := Generate(in)
	assert.Error(t, err)
}

func TestGenerate_RejectsNonPositiveMinStaff(t *testing.T) {
	in := baseInput()
	in.MinStaffPerDay = 0

	_, err := Generate(in)
	assert.Error(t, err)
}

func TestStats_IncludesZeroCountMembers(t *testing.T) {
	stats := Stats([]Slot{{UserID: "alice"}}, members("alice", "bob"))

	assert.Equal(t, 1, stats.Counts["alice"])
	assert.Equal(t, 0, stats.Counts["bob"])
	assert.InDelta(t, 0.5, stats.Average, 0.001)
}
