package rotation

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/mkowalski/staffrota/pkg/core/model"
)

// TieBreak decides between candidates with equally old prior assignments
type TieBreak string

const (
	// TieBreakSequential keeps the member list order, so generation is
	// reproducible
	TieBreakSequential TieBreak = "sequential"

	// TieBreakRandom shuffles equally-ranked candidates
	TieBreakRandom TieBreak = "random"
)

func (t TieBreak) IsValid() bool {
	return t == TieBreakSequential || t == TieBreakRandom
}

// GenerateInput carries the resolved state for one team's draft generation
type GenerateInput struct {
	TeamID string

	// Dates are the duty days to fill, in order
	Dates []time.Time

	// MinStaffPerDay is the number of slots to fill per date
	MinStaffPerDay int

	// Members is the team's eligible-member pool; inactive members are never
	// assigned
	Members []model.EligibleMember

	// LastAssigned maps user ID to their most recent prior hotline duty.
	// Users without an entry have never been assigned and rank first.
	LastAssigned map[string]time.Time

	// Entries are the members' existing schedule entries over the dates,
	// used to detect conflicts (vacation, out-of-office, other hotline duty)
	Entries []model.ScheduleEntry

	TieBreak TieBreak

	// Rand drives TieBreakRandom; ignored for sequential
	Rand *rand.Rand

	StartTime string
	EndTime   string
}

// Slot is one drafted duty assignment
type Slot struct {
	TeamID         string
	UserID         string
	Date           time.Time
	StartTime      string
	EndTime        string
	IsSubstitute   bool
	OriginalUserID string
}

// UncoveredSlot flags a slot no eligible member could fill. It is reported,
// never silently filled with an ineligible person.
type UncoveredSlot struct {
	TeamID    string
	Date      time.Time
	SlotIndex int
	Reason    string
}

// Outcome is the result of one team's draft generation
type Outcome struct {
	Assignments []Slot
	Uncovered   []UncoveredSlot
}

// FairnessStats summarizes how evenly duty is spread for review
type FairnessStats struct {
	// Counts is assignments per user ID (zero entries included for active
	// members who received nothing)
	Counts map[string]int

	// Average is assignments per active member
	Average float64
}

// Generate fills MinStaffPerDay slots per date from the eligible-member pool,
// preferring the member whose prior assignment is least recent. When the
// primary candidate has a conflicting entry on the date, the next-ranked
// conflict-free member takes the slot as a substitute with the original
// recorded. A slot nobody can fill is flagged as uncovered.
//
// Fairness tracking includes assignments made within this run, so a member
// picked for day one ranks behind the others for day two.
func Generate(in GenerateInput) (*Outcome, error) {
	if in.MinStaffPerDay <= 0 {
		return nil, fmt.Errorf("min staff per day must be positive, got %d", in.MinStaffPerDay)
	}
	if !in.TieBreak.IsValid() {
		return nil, fmt.Errorf("unknown tie-break %q", in.TieBreak)
	}
	if in.TieBreak == TieBreakRandom && in.Rand == nil {
		return nil, fmt.Errorf("random tie-break requires a rand source")
	}

	active := make([]model.EligibleMember, 0, len(in.Members))
	for _, member := range in.Members {
		if member.IsActive {
			active = append(active, member)
		}
	}

	// Working copy of last-assignment times, updated as slots are filled
	lastAssigned := make(map[string]time.Time, len(in.LastAssigned))
	for userID, t := range in.LastAssigned {
		lastAssigned[userID] = t
	}

	conflicts := buildConflictSet(in.Entries)

	outcome := &Outcome{
		Assignments: []Slot{},
		Uncovered:   []UncoveredSlot{},
	}

	for _, day := range in.Dates {
		assignedToday := make(map[string]bool)

		for slotIdx := 0; slotIdx < in.MinStaffPerDay; slotIdx++ {
			ranked := rankCandidates(active, lastAssigned, in.TieBreak, in.Rand)

			slot, ok := fillSlot(ranked, day, assignedToday, conflicts)
			if !ok {
				outcome.Uncovered = append(outcome.Uncovered, UncoveredSlot{
					TeamID:    in.TeamID,
					Date:      day,
					SlotIndex: slotIdx,
					Reason:    "no eligible member without a conflicting entry",
				})
				continue
			}

			slot.TeamID = in.TeamID
			slot.StartTime = in.StartTime
			slot.EndTime = in.EndTime

			outcome.Assignments = append(outcome.Assignments, slot)
			assignedToday[slot.UserID] = true
			lastAssigned[slot.UserID] = day
		}
	}

	return outcome, nil
}

// fillSlot picks the best-ranked candidate for the day. A conflicted primary
// is substituted by the next conflict-free candidate.
func fillSlot(ranked []model.EligibleMember, day time.Time, assignedToday map[string]bool, conflicts map[string]bool) (Slot, bool) {
	var primary string

	for _, candidate := range ranked {
		if assignedToday[candidate.UserID] {
			continue
		}

		if conflicts[conflictKey(candidate.UserID, day)] {
			// First conflicted candidate is the one a substitute stands in for
			if primary == "" {
				primary = candidate.UserID
			}
			continue
		}

		slot := Slot{UserID: candidate.UserID, Date: day}
		if primary != "" {
			slot.IsSubstitute = true
			slot.OriginalUserID = primary
		}
		return slot, true
	}

	return Slot{}, false
}

// rankCandidates orders active members by least-recent prior assignment.
// Never-assigned members come first. Ties fall back to list order or, for
// random tie-break, a shuffle applied before the stable sort.
func rankCandidates(active []model.EligibleMember, lastAssigned map[string]time.Time, tieBreak TieBreak, rng *rand.Rand) []model.EligibleMember {
	ranked := make([]model.EligibleMember, len(active))
	copy(ranked, active)

	if tieBreak == TieBreakRandom {
		rng.Shuffle(len(ranked), func(i, j int) {
			ranked[i], ranked[j] = ranked[j], ranked[i]
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		ti, iAssigned := lastAssigned[ranked[i].UserID]
		tj, jAssigned := lastAssigned[ranked[j].UserID]
		if !iAssigned || !jAssigned {
			return !iAssigned && jAssigned
		}
		return ti.Before(tj)
	})

	return ranked
}

// Stats computes per-user assignment counts and the average per active member
func Stats(assignments []Slot, members []model.EligibleMember) FairnessStats {
	stats := FairnessStats{Counts: make(map[string]int)}

	activeCount := 0
	for _, member := range members {
		if member.IsActive {
			activeCount++
			stats.Counts[member.UserID] = 0
		}
	}

	for _, slot := range assignments {
		stats.Counts[slot.UserID]++
	}

	if activeCount > 0 {
		stats.Average = float64(len(assignments)) / float64(activeCount)
	}

	return stats
}

func buildConflictSet(entries []model.ScheduleEntry) map[string]bool {
	conflicts := make(map[string]bool)
	for _, entry := range entries {
		if entry.ActivityType.ConflictsWithRotation() {
			conflicts[conflictKey(entry.UserID, entry.Date)] = true
		}
	}
	return conflicts
}

func conflictKey(userID string, day time.Time) string {
	return userID + "|" + day.Format("2006-01-02")
}
