package main

import (
	"fmt"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/spf13/cobra"
)

var (
	urlSize         string
	urlNoRegenerate bool
	urlTTL          time.Duration
)

var urlCmd = &cobra.Command{
	Use:   "url <upload-id>",
	Short: "Resolve the URL of an upload or one of its derivatives",
	Example: `  uploadctl url 3f1c... --size thumb
  uploadctl url 3f1c... --size medium --no-regenerate`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := application.Uploads.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var opts []services.ResolveOption
		if urlNoRegenerate {
			opts = append(opts, services.WithoutRegeneration())
		}
		if urlTTL > 0 {
			opts = append(opts, services.WithSignedTTL(urlTTL))
		}
		url, err := application.Uploads.ResolveURL(cmd.Context(), asset, urlSize, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	urlCmd.Flags().StringVar(&urlSize, "size", services.FullSize, "Size label")
	urlCmd.Flags().BoolVar(&urlNoRegenerate, "no-regenerate", false, "Fail instead of generating a missing derivative")
	urlCmd.Flags().DurationVar(&urlTTL, "ttl", 0, "Signed URL lifetime (default: configured TTL)")
}
