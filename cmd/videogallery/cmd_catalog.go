/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/config"
	"github.com/friendsincode/videogallery/internal/db"
	"github.com/friendsincode/videogallery/internal/media"
	"github.com/friendsincode/videogallery/internal/server"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and manage the media catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries in display order",
	RunE:  runCatalogList,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every catalog entry has its media",
	Long:  "Load the configured catalog and report entries whose source is missing from media storage",
	RunE:  runCatalogValidate,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the database catalog with a YAML file",
	RunE:  runCatalogImport,
}

var (
	catalogListJSON  bool
	catalogImportSrc string
)

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogImportCmd)

	catalogListCmd.Flags().BoolVar(&catalogListJSON, "json", false, "Print entries as JSON")
	catalogImportCmd.Flags().StringVar(&catalogImportSrc, "file", "", "Path to the YAML catalog (required)")
	_ = catalogImportCmd.MarkFlagRequired("file")
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	c, database, err := server.LoadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if database != nil {
		defer db.Close(database)
	}
	return printCatalog(cmd.OutOrStdout(), c, catalogListJSON)
}

func printCatalog(w io.Writer, c *catalog.Catalog, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c.Entries())
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tSOURCE\tTITLE")
	for i, d := range c.Entries() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, d.ID, d.Source, d.Title)
	}
	return tw.Flush()
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	c, database, err := server.LoadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if database != nil {
		defer db.Close(database)
	}

	svc, err := media.NewService(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize media service: %w", err)
	}
	if err := svc.CheckStorageAccess(ctx); err != nil {
		return fmt.Errorf("media storage (%s): %w", svc.Storage().Kind(), err)
	}

	missing, err := svc.Missing(ctx, c)
	if err != nil {
		return err
	}
	for _, src := range missing {
		fmt.Fprintf(cmd.OutOrStdout(), "missing: %s\n", src)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%d of %d entries have no media", len(missing), c.Len())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d entries\n", c.Len())
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if cfg.DBDSN == "" {
		return fmt.Errorf("GALLERY_DB_DSN must be set to import a catalog")
	}

	c, err := catalog.LoadFile(catalogImportSrc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	n, err := importCatalog(ctx, cfg, c)
	if err != nil {
		return err
	}

	logger.Info().Str("file", catalogImportSrc).Str("backend", string(cfg.DBBackend)).Int("entries", n).Msg("catalog imported")
	if cfg.CatalogSource != config.CatalogDB {
		logger.Warn().Msg("GALLERY_CATALOG_SOURCE is not db; the server will not read the imported catalog")
	}
	return nil
}

func importCatalog(ctx context.Context, cfg *config.Config, c *catalog.Catalog) (int, error) {
	database, err := db.Connect(cfg)
	if err != nil {
		return 0, err
	}
	defer db.Close(database)

	if err := db.Migrate(ctx, database, logger); err != nil {
		return 0, err
	}
	if err := catalog.NewStore(database).Replace(ctx, c); err != nil {
		return 0, err
	}
	return c.Len(), nil
}
