package coverage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mkowalski/staffrota/pkg/core/model"
)

// DefaultThreshold is the coverage percentage below which a plan is flagged
const DefaultThreshold = 90

// Input carries everything the analyzer needs, already resolved by the caller.
// The analyzer itself performs no I/O.
type Input struct {
	// TeamIDs is the set of teams to analyze
	TeamIDs []string

	// From and To define the inclusive date range
	From time.Time
	To   time.Time

	// Requirements are the capacity requirements keyed by team ID.
	// A team without a requirement defaults to DefaultMinStaff and is
	// reported as a configuration warning, not an error.
	Requirements map[string]model.CapacityRequirement

	// Entries are the schedule entries for the teams over the range
	Entries []model.ScheduleEntry

	// Holidays is the set of holiday dates in the range, keyed "2006-01-02"
	Holidays map[string]bool

	// Threshold is the coverage percentage below which BelowThreshold is set.
	// Zero means DefaultThreshold.
	Threshold int

	// DefaultMinStaff is used for teams with no requirement. Zero means 1.
	DefaultMinStaff int
}

// Report is the outcome of one coverage analysis
type Report struct {
	CoveragePercentage int
	Gaps               []model.CoverageGap
	BelowThreshold     bool
	TotalDays          int
	CoveredDays        int
	Threshold          int

	// Warnings lists configuration gaps encountered (missing requirements)
	Warnings []string
}

// Analyze computes daily coverage gaps for the given teams over the date
// range. Every (day, team) pair counts as one day; a day is covered when the
// number of work entries meets the team's minimum. The minimum applies
// unchanged on weekends regardless of the AppliesToWeekends flag, which
// carries no distinct weekend number.
//
// An empty range (zero day/team pairs) is vacuously 100% covered.
// The day loop honours ctx cancellation so long ranges can be aborted;
// an aborted run returns an error and never a partial report.
func Analyze(ctx context.Context, input Input) (*Report, error) {
	if input.To.Before(input.From) {
		return nil, fmt.Errorf("invalid date range: %s is before %s",
			input.To.Format("2006-01-02"), input.From.Format("2006-01-02"))
	}

	threshold := input.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	defaultMin := input.DefaultMinStaff
	if defaultMin == 0 {
		defaultMin = 1
	}

	// Count work entries per (team, date)
	workCounts := make(map[string]int)
	for _, entry := range input.Entries {
		if !entry.ActivityType.CountsTowardCoverage() {
			continue
		}
		workCounts[countKey(entry.TeamID, entry.Date)]++
	}

	report := &Report{
		Gaps:      []model.CoverageGap{},
		Threshold: threshold,
	}

	// Warn once per team missing a requirement
	warned := make(map[string]bool)

	for day := input.From; !day.After(input.To); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis aborted: %w", err)
		}

		weekday := day.Weekday()
		isWeekend := weekday == time.Saturday || weekday == time.Sunday
		isHoliday := input.Holidays[day.Format("2006-01-02")]

		for _, teamID := range input.TeamIDs {
			required := defaultMin
			if req, ok := input.Requirements[teamID]; ok {
				required = req.MinStaffRequired
			} else if !warned[teamID] {
				warned[teamID] = true
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("no capacity requirement configured for team %s, defaulting to %d", teamID, defaultMin))
			}

			actual := workCounts[countKey(teamID, day)]
			report.TotalDays++

			if actual >= required {
				report.CoveredDays++
				continue
			}

			report.Gaps = append(report.Gaps, model.CoverageGap{
				Date:      day,
				TeamID:    teamID,
				Required:  required,
				Actual:    actual,
				Deficit:   required - actual,
				IsWeekend: isWeekend,
				IsHoliday: isHoliday,
			})
		}
	}

	// Worst deficits first; equal deficits stay in date order
	sort.SliceStable(report.Gaps, func(i, j int) bool {
		return report.Gaps[i].Deficit > report.Gaps[j].Deficit
	})

	if report.TotalDays == 0 {
		report.CoveragePercentage = 100
	} else {
		report.CoveragePercentage = int(math.Round(float64(report.CoveredDays) / float64(report.TotalDays) * 100))
	}
	report.BelowThreshold = report.CoveragePercentage < threshold

	return report, nil
}

func countKey(teamID string, date time.Time) string {
	return teamID + "|" + date.Format("2006-01-02")
}
