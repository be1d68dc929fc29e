package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkowalski/staffrota/pkg/core/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpand_RotationCyclesThroughUsers(t *testing.T) {
	// Mon Mar 4 - Fri Mar 8 2024 plus the weekend, weekends skipped:
	// five emitted dates cycling A,B,C,A,B
	drafts, err := Expand(Config{
		Mode:         ModeRotation,
		TeamID:       "team-a",
		From:         date(2024, 3, 4),
		To:           date(2024, 3, 10),
		ShiftType:    model.ShiftNormal,
		SkipWeekends: true,
		UserIDs:      []string{"A", "B", "C"},
		CreatedBy:    "tester",
	})
	require.NoError(t, err)

	require.Len(t, drafts, 5)
	order := make([]string, len(drafts))
	for i, d := range drafts {
		order[i] = d.UserID
	}
	assert.Equal(t, []string{"A", "B", "C", "A", "B"}, order)
}

func TestExpand_ExplicitUsersFullProduct(t *testing.T) {
	drafts, err := Expand(Config{
		Mode:      ModeExplicitUsers,
		TeamID:    "team-a",
		From:      date(2024, 3, 4),
		To:        date(2024, 3, 6),
		ShiftType: model.ShiftEarly,
		UserIDs:   []string{"u1", "u2"},
		CreatedBy: "tester",
	})
	require.NoError(t, err)

	// 3 dates x 2 users
	require.Len(t, drafts, 6)
	for _, d := range drafts {
		assert.Equal(t, "team-a", d.TeamID)
		assert.Equal(t, model.ShiftEarly, d.ShiftType)
		assert.Equal(t, model.ActivityWork, d.ActivityType)
		assert.Equal(t, model.StatusAvailable, d.AvailabilityStatus)
		assert.Equal(t, GeneratorTag, d.Notes)
		assert.Equal(t, "tester", d.CreatedBy)
	}
}

func TestExpand_SkipWeekends(t *testing.T) {
	// Fri Mar 8 - Mon Mar 11 2024
	drafts, err := Expand(Config{
		Mode:         ModeWholeTeam,
		TeamID:       "team-a",
		From:         date(2024, 3, 8),
		To:           date(2024, 3, 11),
		ShiftType:    model.ShiftNormal,
		SkipWeekends: true,
		UserIDs:      []string{"u1"},
	})
	require.NoError(t, err)

	require.Len(t, drafts, 2)
	assert.Equal(t, date(2024, 3, 8), drafts[0].Date)
	assert.Equal(t, date(2024, 3, 11), drafts[1].Date)
}

func TestExpand_EmptyUserListYieldsNoDrafts(t *testing.T) {
	drafts, err := Expand(Config{
		Mode:      ModeRotation,
		TeamID:    "team-a",
		From:      date(2024, 3, 4),
		To:        date(2024, 3, 8),
		ShiftType: model.ShiftNormal,
	})
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestExpand_RejectsUnknownMode(t *testing.T) {
	_, err := Expand(Config{
		Mode:      "guesswork",
		From:      date(2024, 3, 4),
		To:        date(2024, 3, 8),
		ShiftType: model.ShiftNormal,
		UserIDs:   []string{"u1"},
	})
	assert.Error(t, err)
}

func TestExpand_RejectsInvertedRange(t *testing.T) {
	_, err := Expand(Config{
		Mode:      ModeWholeTeam,
		From:      date(2024, 3, 8),
		To:        date(2024, 3, 4),
		ShiftType: model.ShiftNormal,
		UserIDs:   []string{"u1"},
	})
	assert.Error(t, err)
}
