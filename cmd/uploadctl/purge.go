package main

import (
	"fmt"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <owner-kind> <owner-id> [upload-id]",
	Short: "Delete one upload, or every upload of an owner",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := resolveOwner(cmd, args[0], args[1])
		if err != nil {
			return err
		}
		var target *models.Asset
		if len(args) == 3 {
			asset, err := application.Uploads.Get(cmd.Context(), args[2])
			if err != nil {
				return err
			}
			target = &asset
		}

		report, err := application.Uploads.Delete(cmd.Context(), owner, target)
		for _, id := range report.Deleted() {
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		}
		if err != nil {
			if report.Pending > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d uploads were not attempted\n", report.Pending)
			}
			return err
		}
		return nil
	},
}
