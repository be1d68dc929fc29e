package generator

import (
	"fmt"
	"time"

	"github.com/mkowalski/staffrota/pkg/core/model"
)

// GeneratorTag marks entries produced by bulk generation so they can be told
// apart from manual edits
const GeneratorTag = "bulk-generated"

// Mode selects how users are assigned to the enumerated dates
type Mode string

const (
	// ModeExplicitUsers assigns every listed user to every date
	ModeExplicitUsers Mode = "explicit-users"

	// ModeWholeTeam assigns every team member to every date
	ModeWholeTeam Mode = "whole-team"

	// ModeRotation assigns one user per date by cycling through the list in
	// order. This is plain modular assignment; fairness-weighted rotation
	// lives in the rotation draft engine.
	ModeRotation Mode = "rotation"
)

func (m Mode) IsValid() bool {
	return m == ModeExplicitUsers || m == ModeWholeTeam || m == ModeRotation
}

// Config describes one bulk generation run. UserIDs is the already-resolved
// member list: for ModeWholeTeam the caller resolves the full team first.
type Config struct {
	Mode         Mode
	TeamID       string
	From         time.Time
	To           time.Time
	ShiftType    model.ShiftType
	SkipWeekends bool
	UserIDs      []string
	CreatedBy    string
}

// Draft is a candidate schedule entry that has not been written to the ledger.
// Collision handling against existing entries is the caller's job.
type Draft struct {
	UserID             string
	TeamID             string
	Date               time.Time
	ShiftType          model.ShiftType
	ActivityType       model.ActivityType
	AvailabilityStatus model.AvailabilityStatus
	Notes              string
	CreatedBy          string
}

// Expand enumerates the configured date range and produces one draft per
// (date, user) pair for the explicit/whole-team modes, or one draft per date
// for rotation mode. An empty user list yields zero drafts and no error.
func Expand(cfg Config) ([]Draft, error) {
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("unknown generation mode %q", cfg.Mode)
	}
	if !cfg.ShiftType.IsValid() {
		return nil, fmt.Errorf("unknown shift type %q", cfg.ShiftType)
	}
	if cfg.To.Before(cfg.From) {
		return nil, fmt.Errorf("invalid date range: %s is before %s",
			cfg.To.Format("2006-01-02"), cfg.From.Format("2006-01-02"))
	}

	if len(cfg.UserIDs) == 0 {
		return []Draft{}, nil
	}

	dates := enumerateDates(cfg.From, cfg.To, cfg.SkipWeekends)

	var drafts []Draft
	switch cfg.Mode {
	case ModeExplicitUsers, ModeWholeTeam:
		drafts = make([]Draft, 0, len(dates)*len(cfg.UserIDs))
		for _, day := range dates {
			for _, userID := range cfg.UserIDs {
				drafts = append(drafts, newDraft(cfg, userID, day))
			}
		}
	case ModeRotation:
		drafts = make([]Draft, 0, len(dates))
		for i, day := range dates {
			userID := cfg.UserIDs[i%len(cfg.UserIDs)]
			drafts = append(drafts, newDraft(cfg, userID, day))
		}
	}

	return drafts, nil
}

func newDraft(cfg Config, userID string, day time.Time) Draft {
	return Draft{
		UserID:             userID,
		TeamID:             cfg.TeamID,
		Date:               day,
		ShiftType:          cfg.ShiftType,
		ActivityType:       model.ActivityWork,
		AvailabilityStatus: model.StatusAvailable,
		Notes:              GeneratorTag,
		CreatedBy:          cfg.CreatedBy,
	}
}

func enumerateDates(from, to time.Time, skipWeekends bool) []time.Time {
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
