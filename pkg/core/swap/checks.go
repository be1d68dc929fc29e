package swap

import (
	"fmt"
	"time"

	"github.com/mkowalski/staffrota/pkg/core/model"
)

// Condition identifiers reported by swap validation. Stable so callers and
// tests can match on them without parsing messages.
const (
	CondSameUser          = "same_user"
	CondDateInPast        = "date_in_past"
	CondEntryMissing      = "entry_missing"
	CondDateMismatch      = "date_mismatch"
	CondTeamsNotPartnered = "teams_not_partnered"
	CondTeamMismatch      = "team_mismatch"
	CondEntryNotSwappable = "entry_not_swappable"
	CondPendingExists     = "pending_request_exists"
	CondNotPending        = "request_not_pending"
	CondNotOpenOffer      = "request_not_open_offer"
)

// CreateInput carries the already-resolved state needed to validate a new
// swap request. Entries are nil when they do not exist.
type CreateInput struct {
	RequestingUserID string
	TargetUserID     string
	RequestingEntry  *model.ScheduleEntry
	TargetEntry      *model.ScheduleEntry
	SubmittedTeamID  string
	SwapDate         time.Time
	Today            time.Time
	IsOpenOffer      bool
	Partnerships     []model.PlanningPartnership

	// PendingRequests are the pending swap requests already on the swap date
	PendingRequests []model.SwapRequest
}

// CheckCreate validates a swap request at creation time. Returns nil when
// every precondition holds, otherwise the first violated condition.
//
// An open offer has no counterparty yet, so the target-side checks are
// deferred until someone claims it.
func CheckCreate(in CreateInput) *model.ValidationError {
	if !in.IsOpenOffer && in.RequestingUserID == in.TargetUserID {
		return model.NewValidationError(CondSameUser,
			"requesting and target user must differ")
	}

	if dateOnly(in.SwapDate).Before(dateOnly(in.Today)) {
		return model.NewValidationError(CondDateInPast,
			fmt.Sprintf("swap date %s is in the past", in.SwapDate.Format("2006-01-02")))
	}

	if in.RequestingEntry == nil {
		return model.NewValidationError(CondEntryMissing,
			"requesting user has no schedule entry for the swap date")
	}

	if in.SubmittedTeamID != in.RequestingEntry.TeamID {
		return model.NewValidationError(CondTeamMismatch,
			fmt.Sprintf("submitted team %s does not match the requesting entry's team %s",
				in.SubmittedTeamID, in.RequestingEntry.TeamID))
	}

	if verr := checkEntrySwappable("requesting", in.RequestingEntry); verr != nil {
		return verr
	}

	if !in.IsOpenOffer {
		if in.TargetEntry == nil {
			return model.NewValidationError(CondEntryMissing,
				"target user has no schedule entry for the swap date")
		}

		if !sameDate(in.RequestingEntry.Date, in.TargetEntry.Date) {
			return model.NewValidationError(CondDateMismatch,
				"both entries must be on the same date")
		}

		if !model.Partnered(in.RequestingEntry.TeamID, in.TargetEntry.TeamID, in.Partnerships) {
			return model.NewValidationError(CondTeamsNotPartnered,
				"teams must be partnered")
		}

		if verr := checkEntrySwappable("target", in.TargetEntry); verr != nil {
			return verr
		}
	}

	for _, pending := range in.PendingRequests {
		if pending.Status != model.SwapPending {
			continue
		}
		if involvesUser(pending, in.RequestingUserID) {
			return model.NewValidationError(CondPendingExists,
				fmt.Sprintf("user %s already has a pending swap request on %s",
					in.RequestingUserID, in.SwapDate.Format("2006-01-02")))
		}
		if !in.IsOpenOffer && involvesUser(pending, in.TargetUserID) {
			return model.NewValidationError(CondPendingExists,
				fmt.Sprintf("user %s already has a pending swap request on %s",
					in.TargetUserID, in.SwapDate.Format("2006-01-02")))
		}
	}

	return nil
}

// CheckApproval re-runs the swappability checks against current state.
// State may have drifted since creation: entries can disappear or flip to an
// absence, so every check is repeated. A failed approval leaves the request
// pending; rejection is a separate, explicit decision.
func CheckApproval(req model.SwapRequest, requestingEntry, targetEntry *model.ScheduleEntry, partnerships []model.PlanningPartnership) *model.ValidationError {
	if req.Status != model.SwapPending {
		return model.NewValidationError(CondNotPending,
			fmt.Sprintf("request is %s, not pending", req.Status))
	}

	if req.IsOpenOffer {
		return model.NewValidationError(CondNotPending,
			"open offer has not been claimed yet")
	}

	if requestingEntry == nil {
		return model.NewValidationError(CondEntryMissing,
			"requesting user's schedule entry no longer exists")
	}

	if verr := checkEntrySwappable("requesting", requestingEntry); verr != nil {
		return verr
	}

	// A claimed open offer may carry no target entry; approval then hands the
	// requesting entry over to the target user instead of exchanging two.
	if req.TargetEntryID == "" {
		return nil
	}

	if targetEntry == nil {
		return model.NewValidationError(CondEntryMissing,
			"target user's schedule entry no longer exists")
	}

	if !sameDate(requestingEntry.Date, targetEntry.Date) {
		return model.NewValidationError(CondDateMismatch,
			"both entries must be on the same date")
	}

	if !model.Partnered(requestingEntry.TeamID, targetEntry.TeamID, partnerships) {
		return model.NewValidationError(CondTeamsNotPartnered,
			"teams must be partnered")
	}

	if verr := checkEntrySwappable("target", targetEntry); verr != nil {
		return verr
	}

	return nil
}

// CheckClaim validates that a user may claim an open offer. The claimer may
// put forward one of their own swappable entries for the date, or none.
func CheckClaim(req model.SwapRequest, claimerID string, claimerEntry *model.ScheduleEntry, partnerships []model.PlanningPartnership) *model.ValidationError {
	if req.Status != model.SwapPending {
		return model.NewValidationError(CondNotPending,
			fmt.Sprintf("request is %s, not pending", req.Status))
	}

	if !req.IsOpenOffer {
		return model.NewValidationError(CondNotOpenOffer,
			"request is not an open offer")
	}

	if claimerID == req.RequestingUserID {
		return model.NewValidationError(CondSameUser,
			"the requester cannot claim their own open offer")
	}

	if claimerEntry != nil {
		if !sameDate(claimerEntry.Date, req.SwapDate) {
			return model.NewValidationError(CondDateMismatch,
				"claimed entry must be on the swap date")
		}
		if !model.Partnered(req.TeamID, claimerEntry.TeamID, partnerships) {
			return model.NewValidationError(CondTeamsNotPartnered,
				"teams must be partnered")
		}
		if verr := checkEntrySwappable("claimed", claimerEntry); verr != nil {
			return verr
		}
	}

	return nil
}

func checkEntrySwappable(side string, entry *model.ScheduleEntry) *model.ValidationError {
	if entry.ActivityType.BlocksSwap() {
		return model.NewValidationError(CondEntryNotSwappable,
			fmt.Sprintf("%s entry is no longer swappable: activity is %s", side, entry.ActivityType))
	}
	if entry.AvailabilityStatus != model.StatusAvailable {
		return model.NewValidationError(CondEntryNotSwappable,
			fmt.Sprintf("%s entry is no longer swappable: user is %s", side, entry.AvailabilityStatus))
	}
	return nil
}

func involvesUser(req model.SwapRequest, userID string) bool {
	if userID == "" {
		return false
	}
	return req.RequestingUserID == userID || req.TargetUserID == userID
}

func sameDate(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
