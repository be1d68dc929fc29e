package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mkowalski/staffrota/pkg/core/impact"
	"github.com/mkowalski/staffrota/pkg/core/model"
	"github.com/mkowalski/staffrota/pkg/db"
)

// EstimateImpactStore defines the store operations impact estimation needs
type EstimateImpactStore interface {
	GetPartnerships(ctx context.Context) ([]db.PlanningPartnership, error)
	GetPartnershipShiftRequirements(ctx context.Context, partnershipID string) ([]db.PartnershipShiftRequirement, error)
	GetScheduleEntries(ctx context.Context, teamIDs []string, from, to string) ([]db.ScheduleEntry, error)
}

// EstimateImpactParams describes one what-if projection: what happens to
// partnership coverage if the user is absent on the given dates
type EstimateImpactParams struct {
	UserID string
	TeamID string
	Dates  []string

	// ShiftType, when non-empty, overrides the shift type read from the
	// user's own entries
	ShiftType string
}

// EstimateImpact projects partnership shift coverage with the user removed on
// each candidate date. Read-only: nothing is written regardless of outcome.
// A team outside any partnership reports no impact.
func EstimateImpact(ctx context.Context, store EstimateImpactStore, logger *zap.Logger, params EstimateImpactParams) (*impact.Result, error) {
	dates := make([]time.Time, 0, len(params.Dates))
	for _, value := range params.Dates {
		date, err := parseDate(value)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}

	logger.Debug("Estimating coverage impact",
		zap.String("user_id", params.UserID),
		zap.String("team_id", params.TeamID),
		zap.Int("dates", len(dates)))

	partnershipRecords, err := store.GetPartnerships(ctx)
	if err != nil {
		return nil, model.NewCollaboratorError("directory store", err)
	}
	partnerships := partnershipsFromRecords(partnershipRecords)

	var partnership *model.PlanningPartnership
	for i := range partnerships {
		if partnerships[i].Includes(params.TeamID) {
			partnership = &partnerships[i]
			break
		}
	}
	if partnership == nil {
		logger.Debug("Team is not in any partnership, no impact to estimate",
			zap.String("team_id", params.TeamID))
		return &impact.Result{Warnings: []impact.DateImpact{}}, nil
	}

	requirementRecords, err := store.GetPartnershipShiftRequirements(ctx, partnership.ID)
	if err != nil {
		return nil, model.NewCollaboratorError("directory store", err)
	}

	from, to := dateBounds(dates)
	entryRecords, err := store.GetScheduleEntries(ctx, partnership.TeamIDs, from, to)
	if err != nil {
		return nil, model.NewCollaboratorError("schedule ledger", err)
	}
	entries, err := entriesFromRecords(entryRecords)
	if err != nil {
		return nil, err
	}

	var override *model.ShiftType
	if params.ShiftType != "" {
		shiftType := model.ShiftType(params.ShiftType)
		override = &shiftType
	}

	result := impact.Estimate(impact.Input{
		UserID:            params.UserID,
		TeamID:            params.TeamID,
		Dates:             dates,
		ShiftTypeOverride: override,
		Partnerships:      partnerships,
		Requirements:      shiftRequirementsFromRecords(requirementRecords),
		Entries:           entries,
	})

	logger.Info("Impact estimation complete",
		zap.Bool("has_critical_impact", result.HasCriticalImpact),
		zap.Int("affected_dates", len(result.Warnings)))

	return &result, nil
}

// dateBounds returns the min and max of the given dates, formatted
func dateBounds(dates []time.Time) (string, string) {
	if len(dates) == 0 {
		return "", ""
	}
	min, max := dates[0], dates[0]
	for _, date := range dates[1:] {
		if date.Before(min) {
			min = date
		}
		if date.After(max) {
			max = date
		}
	}
	return min.Format(dateLayout), max.Format(dateLayout)
}
