package impact

import (
	"math"
	"time"

	"github.com/mkowalski/staffrota/pkg/core/model"
)

// Severity grades a date impact. Only critical entries are emitted under the
// current policy; SeverityWarning exists in the result shape for a possible
// near-threshold band but is never produced.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Input carries the already-resolved state for one what-if projection:
// what happens to partnership shift coverage if the subject is removed from
// their shift on each candidate date.
type Input struct {
	UserID string
	TeamID string
	Dates  []time.Time

	// ShiftTypeOverride, when set, replaces the shift type read from the
	// subject's own entry
	ShiftTypeOverride *model.ShiftType

	// Partnerships are all configured planning partnerships
	Partnerships []model.PlanningPartnership

	// Requirements are the partnership shift requirements for the subject's
	// partnership
	Requirements []model.PartnershipShiftRequirement

	// Entries are the current schedule entries across the partner teams for
	// the candidate dates
	Entries []model.ScheduleEntry
}

// DateImpact is the projected staffing for one candidate date
type DateImpact struct {
	Date           time.Time
	ShiftType      model.ShiftType
	RemainingStaff int
	StaffRequired  int
	Percentage     int
	IsCritical     bool
	Severity       Severity
}

// Result aggregates the projection across all candidate dates
type Result struct {
	HasImpact         bool
	HasCriticalImpact bool
	Warnings          []DateImpact
}

// Estimate projects the coverage impact of removing the subject from their
// shift on each candidate date. Read-only: the caller decides whether
// warnings require human acknowledgement before proceeding.
//
// A team outside any partnership has no cross-team requirements to violate,
// so the result is simply no impact, not an error. Dates without a matching
// partnership shift requirement are skipped silently.
func Estimate(in Input) Result {
	result := Result{Warnings: []DateImpact{}}

	partnership := findPartnership(in.TeamID, in.Partnerships)
	if partnership == nil {
		return result
	}

	partnerTeams := make(map[string]bool, len(partnership.TeamIDs))
	for _, teamID := range partnership.TeamIDs {
		partnerTeams[teamID] = true
	}

	requirements := make(map[model.ShiftType]int, len(in.Requirements))
	for _, req := range in.Requirements {
		if req.PartnershipID == partnership.ID {
			requirements[req.ShiftType] = req.StaffRequired
		}
	}

	for _, day := range in.Dates {
		shiftType := effectiveShiftType(in, day)

		required, ok := requirements[shiftType]
		if !ok || required <= 0 {
			// No requirement configured for this shift type
			continue
		}

		staffed := 0
		for _, entry := range in.Entries {
			if !sameDate(entry.Date, day) {
				continue
			}
			if !partnerTeams[entry.TeamID] {
				continue
			}
			if !entry.ActivityType.CountsTowardPartnershipCoverage() {
				continue
			}
			if entry.ShiftType != shiftType {
				continue
			}
			staffed++
		}

		remaining := staffed - 1
		if remaining < 0 {
			remaining = 0
		}

		if remaining >= required {
			continue
		}

		result.HasImpact = true
		result.HasCriticalImpact = true
		result.Warnings = append(result.Warnings, DateImpact{
			Date:           day,
			ShiftType:      shiftType,
			RemainingStaff: remaining,
			StaffRequired:  required,
			Percentage:     int(math.Round(float64(remaining) / float64(required) * 100)),
			IsCritical:     true,
			Severity:       SeverityCritical,
		})
	}

	return result
}

// effectiveShiftType resolves the shift type for a date: the override wins,
// then the subject's own entry, then normal.
func effectiveShiftType(in Input, day time.Time) model.ShiftType {
	if in.ShiftTypeOverride != nil {
		return *in.ShiftTypeOverride
	}
	for _, entry := range in.Entries {
		if entry.UserID == in.UserID && entry.TeamID == in.TeamID && sameDate(entry.Date, day) {
			return entry.ShiftType
		}
	}
	return model.ShiftNormal
}

func findPartnership(teamID string, partnerships []model.PlanningPartnership) *model.PlanningPartnership {
	for i := range partnerships {
		if partnerships[i].Includes(teamID) {
			return &partnerships[i]
		}
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
