package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mkowalski/staffrota/internal/config"
	"github.com/mkowalski/staffrota/pkg/core/coverage"
	"github.com/mkowalski/staffrota/pkg/core/model"
	"github.com/mkowalski/staffrota/pkg/db"
)

// AnalyzeCoverageStore defines the store operations coverage analysis needs
type AnalyzeCoverageStore interface {
	GetTeams(ctx context.Context) ([]db.Team, error)
	GetCapacityRequirements(ctx context.Context, teamIDs []string) ([]db.CapacityRequirement, error)
	GetScheduleEntries(ctx context.Context, teamIDs []string, from, to string) ([]db.ScheduleEntry, error)
}

// HolidayProvider resolves which dates in a range are holidays
type HolidayProvider interface {
	GetHolidays(ctx context.Context, from, to time.Time) (map[string]bool, error)
}

// AnalyzeCoverage runs a coverage analysis for the given teams over the date
// range. An empty teamIDs slice means every team in the directory. Holiday
// lookups are optional: a nil provider just leaves holiday flags unset.
func AnalyzeCoverage(ctx context.Context, store AnalyzeCoverageStore, holidays HolidayProvider, cfg *config.Config, logger *zap.Logger, teamIDs []string, from, to string) (*coverage.Report, error) {
	fromDate, toDate, err := parseDateRange(from, to)
	if err != nil {
		return nil, err
	}

	logger.Debug("Analyzing coverage",
		zap.Strings("team_ids", teamIDs),
		zap.String("from", from),
		zap.String("to", to))

	if len(teamIDs) == 0 {
		logger.Debug("No teams specified, analyzing all teams")
		teams, err := store.GetTeams(ctx)
		if err != nil {
			return nil, model.NewCollaboratorError("directory store", err)
		}
		for _, team := range teams {
			teamIDs = append(teamIDs, team.ID)
		}
	}

	requirementRecords, err := store.GetCapacityRequirements(ctx, teamIDs)
	if err != nil {
		return nil, model.NewCollaboratorError("directory store", err)
	}

	entryRecords, err := store.GetScheduleEntries(ctx, teamIDs, from, to)
	if err != nil {
		return nil, model.NewCollaboratorError("schedule ledger", err)
	}
	logger.Debug("Fetched schedule entries", zap.Int("count", len(entryRecords)))

	entries, err := entriesFromRecords(entryRecords)
	if err != nil {
		return nil, err
	}

	holidayDates := map[string]bool{}
	if holidays != nil {
		holidayDates, err = holidays.GetHolidays(ctx, fromDate, toDate)
		if err != nil {
			return nil, model.NewCollaboratorError("holiday client", err)
		}
	}

	report, err := coverage.Analyze(ctx, coverage.Input{
		TeamIDs:         teamIDs,
		From:            fromDate,
		To:              toDate,
		Requirements:    requirementsByTeam(requirementRecords),
		Entries:         entries,
		Holidays:        holidayDates,
		Threshold:       cfg.CoverageThreshold,
		DefaultMinStaff: cfg.DefaultMinStaff,
	})
	if err != nil {
		return nil, err
	}

	for _, warning := range report.Warnings {
		logger.Warn(warning)
	}

	logger.Info("Coverage analysis complete",
		zap.Int("coverage_percentage", report.CoveragePercentage),
		zap.Int("gaps", len(report.Gaps)),
		zap.Bool("below_threshold", report.BelowThreshold))

	return report, nil
}
