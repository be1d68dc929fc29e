package db

// Team represents a database team record
type Team struct {
	ID   string
	Name string
}

// User represents a database user record
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Active    bool
	IsManager bool
}

// ScheduleEntry represents a database schedule entry record.
// Dates use the "2006-01-02" format.
type ScheduleEntry struct {
	ID                 string
	UserID             string
	TeamID             string
	Date               string
	ShiftType          string
	ActivityType       string
	AvailabilityStatus string
	Notes              string
	CreatedBy          string
}

// CapacityRequirement represents a database capacity requirement record
type CapacityRequirement struct {
	TeamID            string
	MinStaffRequired  int
	AppliesToWeekends bool
}

// PlanningPartnership represents a database planning partnership record
type PlanningPartnership struct {
	ID      string
	Name    string
	TeamIDs []string
}

// PartnershipShiftRequirement represents a database partnership shift
// requirement record
type PartnershipShiftRequirement struct {
	PartnershipID string
	ShiftType     string
	StaffRequired int
}

// SwapRequest represents a database swap request record
type SwapRequest struct {
	ID                string
	RequestingUserID  string
	RequestingEntryID string
	TargetUserID      string // empty for unclaimed open offers
	TargetEntryID     string // empty when the counterparty has no entry
	SwapDate          string
	TeamID            string
	Status            string
	IsOpenOffer       bool
}

// RotationDraftAssignment represents a database rotation draft record
type RotationDraftAssignment struct {
	ID             string
	BatchID        string
	TeamID         string
	UserID         string
	Date           string
	StartTime      string
	EndTime        string
	IsSubstitute   bool
	OriginalUserID string
	Status         string
}

// EligibleMember represents a database hotline eligibility record
type EligibleMember struct {
	TeamID   string
	UserID   string
	IsActive bool
}
