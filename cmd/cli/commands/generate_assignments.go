package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkowalski/staffrota/pkg/core/services"
)

// GenerateAssignmentsCmd creates the generateAssignments command
func GenerateAssignmentsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateAssignments <team_id>",
		Short: "Bulk-generate schedule entries for a team over a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			shiftType, _ := cmd.Flags().GetString("shift")
			skipWeekends, _ := cmd.Flags().GetBool("skip-weekends")
			users, _ := cmd.Flags().GetStringSlice("users")
			createdBy, _ := cmd.Flags().GetString("created-by")

			result, err := services.GenerateAssignments(app.Ctx, app.Database, app.Cfg, app.Logger,
				services.GenerateAssignmentsParams{
					Mode:         mode,
					TeamID:       args[0],
					From:         from,
					To:           to,
					ShiftType:    shiftType,
					SkipWeekends: skipWeekends,
					UserIDs:      users,
					CreatedBy:    createdBy,
				})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Bulk generation complete!\n\n")
			fmt.Printf("Created:     %d\n", result.Created)
			fmt.Printf("Skipped:     %d\n", result.Skipped)
			fmt.Printf("Overwritten: %d\n\n", result.Overwritten)

			return nil
		},
	}

	cmd.Flags().String("mode", "explicit-users", "Generation mode: explicit-users, whole-team, rotation")
	cmd.Flags().String("from", "", "Range start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Range end date (YYYY-MM-DD)")
	cmd.Flags().String("shift", "normal", "Shift type: normal, early, late, weekend")
	cmd.Flags().Bool("skip-weekends", false, "Skip Saturdays and Sundays")
	cmd.Flags().StringSlice("users", nil, "User IDs (for explicit-users and rotation modes)")
	cmd.Flags().String("created-by", "", "User ID recorded as the creator")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("created-by")

	return cmd
}
