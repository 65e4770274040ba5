package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/app"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/spf13/cobra"
)

var (
	application *app.App
	withEvents  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uploadctl",
	Short: "Manage uploads and their derivatives",
	Long: `uploadctl works on the same disks and metadata store as the upload service,
configured through the same environment variables (UPLOADS_*, DB_*, MINIO_*).`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: closeApp,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&withEvents, "events", false, "Publish lifecycle events to NATS")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(sizesCmd)
}

func initializeApp(cmd *cobra.Command, _ []string) error {
	cfg, err := configuration.Load()
	if err != nil {
		return err
	}
	application, err = app.Build(cmd.Context(), cfg, withEvents)
	return err
}

func closeApp(*cobra.Command, []string) error {
	if application != nil {
		application.Close()
	}
	return nil
}

func resolveOwner(cmd *cobra.Command, kind, id string) (models.HasAssets, error) {
	owner, err := application.Owners.Resolve(cmd.Context(), models.OwnerRef{Kind: models.OwnerKind(kind), ID: id})
	if err != nil {
		return nil, fmt.Errorf("owner %s:%s: %w", kind, id, err)
	}
	return owner, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
