package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkowalski/staffrota/pkg/core/services"
)

// AnalyzeCoverageCmd creates the analyzeCoverage command
func AnalyzeCoverageCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyzeCoverage [team_id...]",
		Short: "Analyze shift coverage for teams over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			report, err := services.AnalyzeCoverage(app.Ctx, app.Database, app.Holidays, app.Cfg, app.Logger, args, from, to)
			if err != nil {
				return err
			}

			fmt.Printf("\nCoverage: %d%% (%d of %d team-days covered, threshold %d%%)\n",
				report.CoveragePercentage, report.CoveredDays, report.TotalDays, report.Threshold)
			if report.BelowThreshold {
				fmt.Println("⚠️  Coverage is below the configured threshold")
			}

			if len(report.Warnings) > 0 {
				fmt.Println()
				for _, warning := range report.Warnings {
					fmt.Printf("⚠️  %s\n", warning)
				}
			}

			if len(report.Gaps) == 0 {
				fmt.Println("\nNo coverage gaps found.")
				return nil
			}

			fmt.Printf("\nGaps (%d, worst first):\n", len(report.Gaps))
			for _, gap := range report.Gaps {
				marker := ""
				if gap.IsHoliday {
					marker = " [holiday]"
				} else if gap.IsWeekend {
					marker = " [weekend]"
				}
				fmt.Printf("  %s  %-12s staffed %d of %d (short %d)%s\n",
					gap.Date.Format("2006-01-02"), gap.TeamID, gap.Actual, gap.Required, gap.Deficit, marker)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("from", "", "Range start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Range end date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}
