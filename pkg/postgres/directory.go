package postgres

import (
	"context"
	"fmt"

	"github.com/mkowalski/staffrota/pkg/db"
)

// GetTeams retrieves all team records
func (d *DB) GetTeams(ctx context.Context) ([]db.Team, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name
		FROM team
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []db.Team
	for rows.Next() {
		var t db.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}

// GetTeamMembers retrieves all users belonging to a team
func (d *DB) GetTeamMembers(ctx context.Context, teamID string) ([]db.User, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email, u.active, u.is_manager
		FROM app_user u
		JOIN team_member tm ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY u.id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	var users []db.User
	for rows.Next() {
		var u db.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Active, &u.IsManager); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}

	return users, nil
}

// GetCapacityRequirements retrieves the capacity requirements for the given teams
func (d *DB) GetCapacityRequirements(ctx context.Context, teamIDs []string) ([]db.CapacityRequirement, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT team_id, min_staff_required, applies_to_weekends
		FROM capacity_requirement
		WHERE team_id = ANY($1)
	`, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query capacity requirements: %w", err)
	}
	defer rows.Close()

	var requirements []db.CapacityRequirement
	for rows.Next() {
		var r db.CapacityRequirement
		if err := rows.Scan(&r.TeamID, &r.MinStaffRequired, &r.AppliesToWeekends); err != nil {
			return nil, fmt.Errorf("failed to scan capacity requirement: %w", err)
		}
		requirements = append(requirements, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating capacity requirements: %w", err)
	}

	return requirements, nil
}

// GetPartnerships retrieves all planning partnerships with their team lists
func (d *DB) GetPartnerships(ctx context.Context) ([]db.PlanningPartnership, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT p.id, p.name, ppt.team_id
		FROM planning_partnership p
		JOIN planning_partnership_team ppt ON ppt.partnership_id = p.id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query partnerships: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*db.PlanningPartnership)
	var order []string
	for rows.Next() {
		var id, name, teamID string
		if err := rows.Scan(&id, &name, &teamID); err != nil {
			return nil, fmt.Errorf("failed to scan partnership: %w", err)
		}
		p, ok := byID[id]
		if !ok {
			p = &db.PlanningPartnership{ID: id, Name: name}
			byID[id] = p
			order = append(order, id)
		}
		p.TeamIDs = append(p.TeamIDs, teamID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partnerships: %w", err)
	}

	partnerships := make([]db.PlanningPartnership, 0, len(order))
	for _, id := range order {
		partnerships = append(partnerships, *byID[id])
	}

	return partnerships, nil
}

// GetPartnershipShiftRequirements retrieves the shift requirements for a partnership
func (d *DB) GetPartnershipShiftRequirements(ctx context.Context, partnershipID string) ([]db.PartnershipShiftRequirement, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT partnership_id, shift_type, staff_required
		FROM partnership_shift_requirement
		WHERE partnership_id = $1
	`, partnershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query partnership shift requirements: %w", err)
	}
	defer rows.Close()

	var requirements []db.PartnershipShiftRequirement
	for rows.Next() {
		var r db.PartnershipShiftRequirement
		if err := rows.Scan(&r.PartnershipID, &r.ShiftType, &r.StaffRequired); err != nil {
			return nil, fmt.Errorf("failed to scan partnership shift requirement: %w", err)
		}
		requirements = append(requirements, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partnership shift requirements: %w", err)
	}

	return requirements, nil
}

// GetEligibleMembers retrieves the hotline rotation pool for a team
func (d *DB) GetEligibleMembers(ctx context.Context, teamID string) ([]db.EligibleMember, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT team_id, user_id, is_active
		FROM eligible_member
		WHERE team_id = $1
		ORDER BY user_id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible members: %w", err)
	}
	defer rows.Close()

	var members []db.EligibleMember
	for rows.Next() {
		var m db.EligibleMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan eligible member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating eligible members: %w", err)
	}

	return members, nil
}
