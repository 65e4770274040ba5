package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/configuration"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list <owner-kind> <owner-id>",
	Short:   "List the uploads of an owner",
	Aliases: []string{"ls"},
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := resolveOwner(cmd, args[0], args[1])
		if err != nil {
			return err
		}
		assets, err := application.Uploads.Uploads(cmd.Context(), owner)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDISK\tPATH\tMIME\tSIZE (KB)\tCOLLECTION\tCREATED")
		for _, a := range assets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\t%s\n",
				a.ID, a.Disk, a.UploadPath, a.MimeType, a.Size, a.Collection, a.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var sizesCmd = &cobra.Command{
	Use:   "sizes",
	Short: "Show the configured thumbnail sizes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sizes := application.Config.Uploads.ThumbnailSizes
		for _, label := range configuration.SizeLabels(sizes) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\n", label, sizes[label].Width, sizes[label].Height)
		}
		return nil
	},
}
