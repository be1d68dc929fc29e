package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkowalski/staffrota/pkg/core/services"
)

// CreateSwapCmd creates the createSwap command
func CreateSwapCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createSwap <requesting_user_id> <team_id> <date>",
		Short: "Request a shift swap (omit --target-user for an open offer)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetUser, _ := cmd.Flags().GetString("target-user")
			targetTeam, _ := cmd.Flags().GetString("target-team")

			record, err := services.CreateSwap(app.Ctx, app.Database, app.Logger, services.CreateSwapParams{
				RequestingUserID: args[0],
				TargetUserID:     targetUser,
				TeamID:           args[1],
				TargetTeamID:     targetTeam,
				Date:             args[2],
			})
			if err != nil {
				return err
			}

			if record.IsOpenOffer {
				fmt.Printf("\n✓ Open swap offer created!\n\n")
			} else {
				fmt.Printf("\n✓ Swap request created!\n\n")
			}
			fmt.Printf("Request ID: %s\n", record.ID)
			fmt.Printf("Date:       %s\n", record.SwapDate)
			fmt.Printf("Status:     %s\n\n", record.Status)

			return nil
		},
	}

	cmd.Flags().String("target-user", "", "Counterparty user ID (empty makes an open offer)")
	cmd.Flags().String("target-team", "", "Counterparty team ID (defaults to the requesting team)")

	return cmd
}

// ClaimSwapCmd creates the claimSwap command
func ClaimSwapCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claimSwap <request_id> <claimer_user_id>",
		Short: "Claim an open swap offer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			claimerTeam, _ := cmd.Flags().GetString("team")

			record, err := services.ClaimSwap(app.Ctx, app.Database, app.Logger, args[0], args[1], claimerTeam)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Open offer claimed!\n\n")
			fmt.Printf("Request ID: %s\n", record.ID)
			fmt.Printf("Claimed by: %s\n\n", record.TargetUserID)

			return nil
		},
	}

	cmd.Flags().String("team", "", "Claimer's team ID, to put forward their own entry for the date")

	return cmd
}

// ApproveSwapCmd creates the approveSwap command
func ApproveSwapCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approveSwap <request_id>",
		Short: "Approve a pending swap request and exchange the shifts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.ApproveSwap(app.Ctx, app.Database, app.Notifier, app.Logger, args[0]); err != nil {
				return err
			}

			fmt.Printf("\n✓ Swap request %s approved and applied.\n\n", args[0])
			return nil
		},
	}
}

// RejectSwapCmd creates the rejectSwap command
func RejectSwapCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rejectSwap <request_id>",
		Short: "Reject a pending swap request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.RejectSwap(app.Ctx, app.Database, app.Notifier, app.Logger, args[0]); err != nil {
				return err
			}

			fmt.Printf("\n✓ Swap request %s rejected.\n\n", args[0])
			return nil
		},
	}
}
