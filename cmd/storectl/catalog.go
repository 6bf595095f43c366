package main

import (
	"encoding/json"
	"fmt"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/repository"

	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the product catalogue",
	}

	cmd.AddCommand(catalogImportCmd())
	cmd.AddCommand(catalogValidateCmd())

	return cmd
}

func catalogImportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Insert products from YAML seed files",
		Long: `Insert products from YAML seed files, plain or gzip-compressed.

Files are read from S3 first when S3_ENABLED=true, falling back to the local
file system. Products that already exist are left untouched. With no
arguments the files listed in CATALOG_SEED_FILES are imported.

Examples:
  storectl catalog import data/catalog/clubs.yaml
  S3_ENABLED=true S3_BUCKET=shop-seeds storectl catalog import clubs.yaml.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := config.NewLogger(cfg.Logger)

			files := args
			if len(files) == 0 {
				files = cfg.Catalog.SeedFiles
			}
			if len(files) == 0 {
				return fmt.Errorf("no seed files given and CATALOG_SEED_FILES is empty")
			}

			ctx := cmd.Context()
			pool, err := database.NewPool(ctx, cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			loader := catalog.NewConfiguredLoader(ctx, cfg.Catalog, logger)
			importer := catalog.NewImporter(loader, repository.NewProductRepository(pool, logger), logger)

			result, err := importer.Import(ctx, files)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d files, %d products: %d inserted, %d already present\n",
				result.Files, result.Loaded, result.Inserted, result.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func catalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate files...",
		Short: "Check local seed files without touching the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := catalog.NewFileLoader(config.NewLogger(config.LoggerConfig{Level: "warn", Format: "console"}))

			failed := 0
			for _, path := range args {
				products, err := loader.Load(cmd.Context(), path)
				if err == nil {
					for _, p := range products {
						if err = catalog.Validate(p); err != nil {
							break
						}
					}
				}
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d products)\n", path, len(products))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files invalid", failed, len(args))
			}
			return nil
		},
	}
}
