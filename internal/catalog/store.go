/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package catalog

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Entry is the persisted form of a MediaDescriptor.
type Entry struct {
	ID        string `gorm:"type:varchar(64);primaryKey"`
	Position  int    `gorm:"index"`
	Source    string `gorm:"type:text;not null"`
	Title     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name independent of gorm naming strategy.
func (Entry) TableName() string { return "catalog_entries" }

// Store reads and replaces the catalog held in a database.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the catalog table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("migrate catalog entries: %w", err)
	}
	return nil
}

// Load reads all entries ordered by position.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	var rows []Entry
	if err := s.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query catalog entries: %w", err)
	}

	descriptors := make([]MediaDescriptor, 0, len(rows))
	for _, row := range rows {
		descriptors = append(descriptors, MediaDescriptor{ID: row.ID, Source: row.Source, Title: row.Title})
	}
	return New(descriptors)
}

// Replace swaps the stored catalog for c in a single transaction.
func (s *Store) Replace(ctx context.Context, c *Catalog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{}).Error; err != nil {
			return fmt.Errorf("clear catalog entries: %w", err)
		}
		for i, d := range c.Entries() {
			row := Entry{ID: d.ID, Position: i, Source: d.Source, Title: d.Title}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert catalog entry %s: %w", d.ID, err)
			}
		}
		return nil
	})
}
