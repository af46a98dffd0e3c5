package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blomstudio/blom/internal/config"
	"github.com/blomstudio/blom/internal/logger"
	"github.com/blomstudio/blom/internal/storage"
)

func storageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Storage bucket operations",
	}
	cmd.AddCommand(storageMigrateCmd())
	return cmd
}

func storageMigrateCmd() *cobra.Command {
	var destBucket, prefix string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy objects from the configured bucket to another bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(cfg.IsDevelopment(), "")

			store, err := storage.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}

			s3store, ok := store.(*storage.S3Storage)
			if !ok {
				return fmt.Errorf("storage migration requires S3 storage")
			}

			copied, err := s3store.CopyTo(cmd.Context(), destBucket, prefix)
			if err != nil {
				return fmt.Errorf("migration failed after %d objects: %w", copied, err)
			}

			fmt.Printf("copied %d objects from %s to %s\n", copied, cfg.S3Bucket, destBucket)
			return nil
		},
	}

	cmd.Flags().StringVar(&destBucket, "dest-bucket", "", "destination bucket (required)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only copy objects under this prefix")
	cmd.MarkFlagRequired("dest-bucket")
	return cmd
}
