package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mkowalski/staffrota/pkg/core/services"
)

// GenerateRotationCmd creates the generateRotation command
func GenerateRotationCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateRotation <team_id>",
		Short: "Draft a hotline duty rotation for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			minStaff, _ := cmd.Flags().GetInt("min-staff")
			skipWeekends, _ := cmd.Flags().GetBool("skip-weekends")
			seed, _ := cmd.Flags().GetInt64("seed")

			result, err := services.GenerateRotationDraft(app.Ctx, app.Database, app.Cfg, app.Logger,
				services.GenerateRotationParams{
					TeamID:         args[0],
					From:           from,
					To:             to,
					MinStaffPerDay: minStaff,
					SkipWeekends:   skipWeekends,
					Seed:           seed,
				})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Rotation draft generated!\n\n")
			fmt.Printf("Batch ID:    %s\n", result.BatchID)
			fmt.Printf("Assignments: %d\n\n", result.Created)

			for _, draft := range result.Assignments {
				substitute := ""
				if draft.IsSubstitute {
					substitute = fmt.Sprintf(" (substituting for %s)", draft.OriginalUserID)
				}
				fmt.Printf("  %s  %s %s-%s%s\n", draft.Date, draft.UserID, draft.StartTime, draft.EndTime, substitute)
			}

			if len(result.Uncovered) > 0 {
				fmt.Printf("\n⚠️  %d slot(s) could not be covered:\n", len(result.Uncovered))
				for _, uncovered := range result.Uncovered {
					fmt.Printf("  %s  slot %d: %s\n",
						uncovered.Date.Format("2006-01-02"), uncovered.SlotIndex+1, uncovered.Reason)
				}
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("from", "", "Range start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Range end date (YYYY-MM-DD)")
	cmd.Flags().Int("min-staff", 1, "Duty slots to fill per day")
	cmd.Flags().Bool("skip-weekends", true, "Skip Saturdays and Sundays")
	cmd.Flags().Int64("seed", 0, "Seed for the random tie-break (0 uses the clock)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

// ReviewRotationCmd creates the reviewRotation command
func ReviewRotationCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reviewRotation <batch_id>",
		Short: "Review a rotation draft batch with fairness statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			review, err := services.ReviewRotationDraft(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nBatch %s (team %s): %d draft, %d finalized\n\n",
				review.BatchID, review.TeamID, review.DraftRows, review.Finalized)

			for _, draft := range review.Drafts {
				substitute := ""
				if draft.IsSubstitute {
					substitute = fmt.Sprintf(" (substituting for %s)", draft.OriginalUserID)
				}
				fmt.Printf("  %s  %-12s %s-%s  [%s]%s\n",
					draft.Date, draft.UserID, draft.StartTime, draft.EndTime, draft.Status, substitute)
			}

			fmt.Printf("\nFairness (average %.1f per member):\n", review.Stats.Average)
			userIDs := make([]string, 0, len(review.Stats.Counts))
			for userID := range review.Stats.Counts {
				userIDs = append(userIDs, userID)
			}
			sort.Strings(userIDs)
			for _, userID := range userIDs {
				fmt.Printf("  %-12s %d\n", userID, review.Stats.Counts[userID])
			}
			fmt.Println()

			return nil
		},
	}
}

// FinalizeRotationCmd creates the finalizeRotation command
func FinalizeRotationCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finalizeRotation <batch_id>",
		Short: "Commit a reviewed rotation draft to the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			createdBy, _ := cmd.Flags().GetString("created-by")

			result, err := services.FinalizeRotationDraft(app.Ctx, app.Database, app.Notifier, app.Cfg, app.Logger,
				args[0], createdBy)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Rotation finalized!\n\n")
			fmt.Printf("Committed: %d\n", result.Finalized)
			fmt.Printf("Skipped:   %d\n\n", result.Skipped)

			return nil
		},
	}

	cmd.Flags().String("created-by", "", "User ID recorded as the creator")
	cmd.MarkFlagRequired("created-by")

	return cmd
}

// DiscardRotationCmd creates the discardRotation command
func DiscardRotationCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discardRotation <batch_id>",
		Short: "Discard an unfinalized rotation draft batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.DiscardRotationDraft(app.Ctx, app.Database, app.Logger, args[0]); err != nil {
				return err
			}

			fmt.Printf("\n✓ Rotation draft batch %s discarded.\n\n", args[0])
			return nil
		},
	}
}
