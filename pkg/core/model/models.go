package model

import "time"

// ShiftType classifies when during the day a shift runs
type ShiftType string

const (
	ShiftNormal  ShiftType = "normal"
	ShiftEarly   ShiftType = "early"
	ShiftLate    ShiftType = "late"
	ShiftWeekend ShiftType = "weekend"
)

func (s ShiftType) IsValid() bool {
	switch s {
	case ShiftNormal, ShiftEarly, ShiftLate, ShiftWeekend:
		return true
	}
	return false
}

// ActivityType classifies what a schedule entry records for the day
type ActivityType string

const (
	ActivityWork            ActivityType = "work"
	ActivityVacation        ActivityType = "vacation"
	ActivitySick            ActivityType = "sick"
	ActivityTraining        ActivityType = "training"
	ActivityHotlineSupport  ActivityType = "hotline_support"
	ActivityOutOfOffice     ActivityType = "out_of_office"
	ActivityWorkingFromHome ActivityType = "working_from_home"
)

func (a ActivityType) IsValid() bool {
	switch a {
	case ActivityWork, ActivityVacation, ActivitySick, ActivityTraining,
		ActivityHotlineSupport, ActivityOutOfOffice, ActivityWorkingFromHome:
		return true
	}
	return false
}

// CountsTowardCoverage reports whether an entry with this activity counts
// when measuring a team's staffing against its capacity requirement.
// Only on-site work counts; remote and hotline entries are counted separately
// by the partnership impact estimator.
func (a ActivityType) CountsTowardCoverage() bool {
	return a == ActivityWork
}

// CountsTowardPartnershipCoverage reports whether an entry with this activity
// counts when measuring cross-team partnership shift staffing.
func (a ActivityType) CountsTowardPartnershipCoverage() bool {
	switch a {
	case ActivityWork, ActivityWorkingFromHome, ActivityHotlineSupport:
		return true
	}
	return false
}

// BlocksSwap reports whether an entry with this activity can no longer be
// offered in or accepted for a shift swap.
func (a ActivityType) BlocksSwap() bool {
	switch a {
	case ActivityVacation, ActivitySick, ActivityOutOfOffice:
		return true
	}
	return false
}

// ConflictsWithRotation reports whether an existing entry with this activity
// rules the user out as a primary candidate for hotline rotation duty that day.
func (a ActivityType) ConflictsWithRotation() bool {
	switch a {
	case ActivityVacation, ActivitySick, ActivityOutOfOffice, ActivityHotlineSupport:
		return true
	}
	return false
}

// AvailabilityStatus records whether the user is actually available on the day
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "available"
	StatusUnavailable AvailabilityStatus = "unavailable"
)

func (s AvailabilityStatus) IsValid() bool {
	return s == StatusAvailable || s == StatusUnavailable
}

// SwapStatus is the lifecycle state of a swap request.
// Approved and rejected are terminal.
type SwapStatus string

const (
	SwapPending  SwapStatus = "pending"
	SwapApproved SwapStatus = "approved"
	SwapRejected SwapStatus = "rejected"
)

func (s SwapStatus) IsValid() bool {
	return s == SwapPending || s == SwapApproved || s == SwapRejected
}

// DraftStatus is the lifecycle state of a rotation draft assignment
type DraftStatus string

const (
	DraftOpen      DraftStatus = "draft"
	DraftFinalized DraftStatus = "finalized"
)

// Team represents a team from the directory
type Team struct {
	ID   string
	Name string
}

// User represents a user from the directory
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Active    bool
	IsManager bool
}

// ScheduleEntry is one user's recorded schedule for a single team and date
type ScheduleEntry struct {
	ID                 string
	UserID             string
	TeamID             string
	Date               time.Time
	ShiftType          ShiftType
	ActivityType       ActivityType
	AvailabilityStatus AvailabilityStatus
	Notes              string
	CreatedBy          string
}

// Swappable reports whether the entry may still take part in a shift swap
func (e ScheduleEntry) Swappable() bool {
	return !e.ActivityType.BlocksSwap() && e.AvailabilityStatus == StatusAvailable
}

// CapacityRequirement is a team's minimum staffing level.
// AppliesToWeekends only records that the same minimum is expected to hold on
// weekends; the model carries no separate weekend number.
type CapacityRequirement struct {
	TeamID            string
	MinStaffRequired  int
	AppliesToWeekends bool
}

// CoverageGap is a derived record of one understaffed team/date.
// Deficit is always >= 0.
type CoverageGap struct {
	Date      time.Time
	TeamID    string
	Required  int
	Actual    int
	Deficit   int
	IsWeekend bool
	IsHoliday bool
}

// PlanningPartnership is a configured grouping of teams that share cross-team
// coverage requirements and swap eligibility
type PlanningPartnership struct {
	ID      string
	Name    string
	TeamIDs []string
}

// Includes reports whether the partnership lists the given team
func (p PlanningPartnership) Includes(teamID string) bool {
	for _, id := range p.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// Partnered reports whether two teams may exchange shifts: either they are the
// same team, or some partnership lists both.
func Partnered(teamA, teamB string, partnerships []PlanningPartnership) bool {
	if teamA == teamB {
		return true
	}
	for _, p := range partnerships {
		if p.Includes(teamA) && p.Includes(teamB) {
			return true
		}
	}
	return false
}

// PartnershipShiftRequirement is the staffing level a partnership expects for
// one shift type across its member teams
type PartnershipShiftRequirement struct {
	PartnershipID string
	ShiftType     ShiftType
	StaffRequired int
}

// SwapRequest is a two-party shift exchange proposal.
// An open offer has no target user/entry until someone claims it.
type SwapRequest struct {
	ID                string
	RequestingUserID  string
	RequestingEntryID string
	TargetUserID      string
	TargetEntryID     string
	SwapDate          time.Time
	TeamID            string
	Status            SwapStatus
	IsOpenOffer       bool
}

// RotationDraftAssignment is one provisional hotline duty slot.
// IsSubstitute implies OriginalUserID is set.
type RotationDraftAssignment struct {
	ID             string
	BatchID        string
	TeamID         string
	UserID         string
	Date           time.Time
	StartTime      string
	EndTime        string
	IsSubstitute   bool
	OriginalUserID string
	Status         DraftStatus
}

// EligibleMember marks a user as drawable from a team's hotline rotation pool
type EligibleMember struct {
	TeamID   string
	UserID   string
	IsActive bool
}
