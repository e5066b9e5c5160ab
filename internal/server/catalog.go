/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/config"
	"github.com/friendsincode/videogallery/internal/db"
)

// LoadCatalog reads the catalog from the configured source. For the db
// source it also returns the open connection, which the caller closes.
func LoadCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*catalog.Catalog, *gorm.DB, error) {
	switch cfg.CatalogSource {
	case config.CatalogFile:
		c, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", cfg.CatalogFile).Int("entries", c.Len()).Msg("catalog loaded from file")
		return c, nil, nil

	case config.CatalogDB:
		database, err := db.Connect(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, database, logger); err != nil {
			_ = db.Close(database)
			return nil, nil, err
		}
		c, err := catalog.NewStore(database).Load(ctx)
		if err != nil {
			_ = db.Close(database)
			return nil, nil, fmt.Errorf("load catalog from %s: %w", cfg.DBBackend, err)
		}
		logger.Info().Str("backend", string(cfg.DBBackend)).Int("entries", c.Len()).Msg("catalog loaded from database")
		return c, database, nil

	default:
		return catalog.Builtin(), nil, nil
	}
}
