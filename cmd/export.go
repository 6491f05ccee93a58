package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/export"
)

// newExportCmd creates the 'export' subcommand, which writes the persisted
// store set as CSV, either to a local file or to the configured storage
// provider.
func newExportCmd() *cobra.Command {
	var (
		output     string
		unresolved bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exports the persisted store set as CSV",
		Long: `Exports every persisted store as CSV. With --output the file is
written locally; otherwise the artifact is uploaded through the configured
storage provider. --unresolved restricts the export to stores that still
lack coordinates, which is the input for manual geocoding.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			logger := appInstance.GetLogger()

			entities, err := appInstance.GetRepo().Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("snapshot stores: %w", err)
			}
			if unresolved {
				entities = export.Unresolved(entities)
			}

			data, err := export.Stores(entities)
			if err != nil {
				return fmt.Errorf("encode csv: %w", err)
			}

			if output != "" {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				logger.Info("Export written", zap.String("path", output), zap.Int("stores", len(entities)))
				return nil
			}

			objectName := export.ObjectName(uuid.NewString(), time.Now())
			if err := appInstance.GetStorage().Save(cmd.Context(), objectName, data); err != nil {
				return fmt.Errorf("upload export: %w", err)
			}
			logger.Info("Export uploaded", zap.String("object", objectName), zap.Int("stores", len(entities)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the CSV to a local file instead of uploading")
	cmd.Flags().BoolVar(&unresolved, "unresolved", false, "export only stores without coordinates")

	return cmd
}
