package main

import (
	"fmt"
	"os"
	"path/filepath"

	"avfall_backend/internal/addresses/mapping"
	"avfall_backend/internal/addresses/service"
	"avfall_backend/platform/config"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var (
		flags     storeFlags
		batchSize int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import a workbook into the address store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if batchSize == 0 {
				batchSize = cfg.GetImportBatchSize()
			}
			if batchSize < 1 || batchSize > config.MaxImportBatchSize {
				return fmt.Errorf("--batch-size must be between 1 and %d", config.MaxImportBatchSize)
			}

			aliases, err := mapping.LoadAliases(cfg.GetHeaderAliasesFile())
			if err != nil {
				return fmt.Errorf("load header aliases: %w", err)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, cfg, flags)
			if err != nil {
				return err
			}
			defer closeStore()

			log := cliLogger(cmd, cfg)
			importer := service.NewImporter(mapping.New(aliases), service.NewUpserter(store, batchSize, log), nil, nil, log)

			resp, err := importer.ImportWorkbook(ctx, service.WorkbookRequest{
				FileName: filepath.Base(args[0]),
				Data:     data,
				DryRun:   dryRun,
				Source:   service.SourceCLI,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	addStoreFlags(cmd, &flags)
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per upsert statement (defaults to IMPORT_BATCH_SIZE)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and print a sample without writing")
	return cmd
}
