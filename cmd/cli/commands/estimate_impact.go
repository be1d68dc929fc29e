package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkowalski/staffrota/pkg/core/services"
)

// EstimateImpactCmd creates the estimateImpact command
func EstimateImpactCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimateImpact <user_id> <team_id> <date...>",
		Short: "Project partnership coverage with the user absent on the given dates",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			shiftType, _ := cmd.Flags().GetString("shift")

			result, err := services.EstimateImpact(app.Ctx, app.Database, app.Logger,
				services.EstimateImpactParams{
					UserID:    args[0],
					TeamID:    args[1],
					Dates:     args[2:],
					ShiftType: shiftType,
				})
			if err != nil {
				return err
			}

			if !result.HasImpact {
				fmt.Println("\nNo coverage impact: all dates stay at or above the required staffing.")
				return nil
			}

			fmt.Printf("\n⚠️  Coverage impact on %d date(s):\n\n", len(result.Warnings))
			for _, warning := range result.Warnings {
				fmt.Printf("  %s  %-8s %d of %d staff remain (%d%%)\n",
					warning.Date.Format("2006-01-02"), warning.ShiftType,
					warning.RemainingStaff, warning.StaffRequired, warning.Percentage)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("shift", "", "Override the shift type instead of reading the user's entries")

	return cmd
}
