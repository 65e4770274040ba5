package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/spf13/cobra"
)

var (
	ingestCollection  string
	ingestDisk        string
	ingestTags        string
	ingestContentType string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <owner-kind> <owner-id> <file>",
	Short: "Attach a local file to an owner",
	Example: `  uploadctl ingest user 42 ./avatar.png --collection avatars
  uploadctl ingest post 7 ./report.pdf --disk minio --tags quarterly`,
	Args: cobra.ExactArgs(3),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCollection, "collection", "", "Collection label (default \"default\")")
	ingestCmd.Flags().StringVar(&ingestDisk, "disk", "", "Target disk (default: configured default disk)")
	ingestCmd.Flags().StringVar(&ingestTags, "tags", "", "Tags to store with the upload")
	ingestCmd.Flags().StringVar(&ingestContentType, "content-type", "", "MIME type (default: derived from the file extension)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	owner, err := resolveOwner(cmd, args[0], args[1])
	if err != nil {
		return err
	}

	f, err := os.Open(args[2])
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	contentType := ingestContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(args[2]))
	}

	asset, err := application.Uploads.Ingest(cmd.Context(), owner, services.RawFile{
		Filename:    filepath.Base(args[2]),
		ContentType: contentType,
		Size:        info.Size(),
		Body:        f,
	}, services.WithCollection(ingestCollection), services.WithDisk(ingestDisk), services.WithTags(ingestTags))
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), asset)
}
