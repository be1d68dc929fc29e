package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mkowalski/staffrota/pkg/core/model"
	"github.com/mkowalski/staffrota/pkg/db"
)

const dateLayout = "2006-01-02"

// Notifier sends best-effort notification emails. Failures are logged by the
// caller, never propagated.
type Notifier interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return parsed, nil
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	fromDate, err := parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	toDate, err := parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if toDate.Before(fromDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date range: %s is before %s", to, from)
	}
	return fromDate, toDate, nil
}

func entryFromRecord(record db.ScheduleEntry) (model.ScheduleEntry, error) {
	date, err := parseDate(record.Date)
	if err != nil {
		return model.ScheduleEntry{}, fmt.Errorf("entry %s has an invalid date: %w", record.ID, err)
	}
	return model.ScheduleEntry{
		ID:                 record.ID,
		UserID:             record.UserID,
		TeamID:             record.TeamID,
		Date:               date,
		ShiftType:          model.ShiftType(record.ShiftType),
		ActivityType:       model.ActivityType(record.ActivityType),
		AvailabilityStatus: model.AvailabilityStatus(record.AvailabilityStatus),
		Notes:              record.Notes,
		CreatedBy:          record.CreatedBy,
	}, nil
}

func entriesFromRecords(records []db.ScheduleEntry) ([]model.ScheduleEntry, error) {
	entries := make([]model.ScheduleEntry, 0, len(records))
	for _, record := range records {
		entry, err := entryFromRecord(record)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func entryToRecord(entry model.ScheduleEntry) db.ScheduleEntry {
	return db.ScheduleEntry{
		ID:                 entry.ID,
		UserID:             entry.UserID,
		TeamID:             entry.TeamID,
		Date:               entry.Date.Format(dateLayout),
		ShiftType:          string(entry.ShiftType),
		ActivityType:       string(entry.ActivityType),
		AvailabilityStatus: string(entry.AvailabilityStatus),
		Notes:              entry.Notes,
		CreatedBy:          entry.CreatedBy,
	}
}

func requirementsByTeam(records []db.CapacityRequirement) map[string]model.CapacityRequirement {
	requirements := make(map[string]model.CapacityRequirement, len(records))
	for _, record := range records {
		requirements[record.TeamID] = model.CapacityRequirement{
			TeamID:            record.TeamID,
			MinStaffRequired:  record.MinStaffRequired,
			AppliesToWeekends: record.AppliesToWeekends,
		}
	}
	return requirements
}

func partnershipsFromRecords(records []db.PlanningPartnership) []model.PlanningPartnership {
	partnerships := make([]model.PlanningPartnership, 0, len(records))
	for _, record := range records {
		partnerships = append(partnerships, model.PlanningPartnership{
			ID:      record.ID,
			Name:    record.Name,
			TeamIDs: record.TeamIDs,
		})
	}
	return partnerships
}

func shiftRequirementsFromRecords(records []db.PartnershipShiftRequirement) []model.PartnershipShiftRequirement {
	requirements := make([]model.PartnershipShiftRequirement, 0, len(records))
	for _, record := range records {
		requirements = append(requirements, model.PartnershipShiftRequirement{
			PartnershipID: record.PartnershipID,
			ShiftType:     model.ShiftType(record.ShiftType),
			StaffRequired: record.StaffRequired,
		})
	}
	return requirements
}

func swapFromRecord(record *db.SwapRequest) (model.SwapRequest, error) {
	swapDate, err := parseDate(record.SwapDate)
	if err != nil {
		return model.SwapRequest{}, fmt.Errorf("swap request %s has an invalid date: %w", record.ID, err)
	}
	return model.SwapRequest{
		ID:                record.ID,
		RequestingUserID:  record.RequestingUserID,
		RequestingEntryID: record.RequestingEntryID,
		TargetUserID:      record.TargetUserID,
		TargetEntryID:     record.TargetEntryID,
		SwapDate:          swapDate,
		TeamID:            record.TeamID,
		Status:            model.SwapStatus(record.Status),
		IsOpenOffer:       record.IsOpenOffer,
	}, nil
}

func eligibleMembersFromRecords(records []db.EligibleMember) []model.EligibleMember {
	members := make([]model.EligibleMember, 0, len(records))
	for _, record := range records {
		members = append(members, model.EligibleMember{
			TeamID:   record.TeamID,
			UserID:   record.UserID,
			IsActive: record.IsActive,
		})
	}
	return members
}

// getUserIDs extracts the IDs of the given users in order
func getUserIDs(users []db.User) []string {
	ids := make([]string, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids
}

// filterActiveUsers keeps only users marked active in the directory
func filterActiveUsers(users []db.User) []db.User {
	active := make([]db.User, 0, len(users))
	for _, user := range users {
		if user.Active {
			active = append(active, user)
		}
	}
	return active
}
