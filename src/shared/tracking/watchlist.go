package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidScope is returned for an empty scope id.
var ErrInvalidScope = errors.New("tracking: scope id is required")

// WatchlistManager persists the ordered watch-list of every scope. It exposes whole-list
// reads and replaces only; callers compute the new list and enforce capacity.
type WatchlistManager struct {
	db *gorm.DB
}

// NewWatchlistManager creates a new watch-list store
func NewWatchlistManager(db *gorm.DB) *WatchlistManager {
	return &WatchlistManager{db: db}
}

// Get returns the scope's list in user-visible order, empty when the scope tracks nothing.
func (m *WatchlistManager) Get(ctx context.Context, scopeID string) ([]TrackedEntry, error) {
	if strings.TrimSpace(scopeID) == "" {
		return nil, ErrInvalidScope
	}
	entries, err := loadEntries(m.db.WithContext(ctx), scopeID)
	if err != nil {
		return nil, fmt.Errorf("load watch-list %s: %w", scopeID, err)
	}
	return entries, nil
}

// Replace overwrites the scope's list. The write is committed before Replace returns; on
// failure the previous list stays untouched.
func (m *WatchlistManager) Replace(ctx context.Context, scopeID string, entries []TrackedEntry) error {
	if strings.TrimSpace(scopeID) == "" {
		return ErrInvalidScope
	}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceEntries(tx, scopeID, entries)
	})
	if err != nil {
		return fmt.Errorf("replace watch-list %s: %w", scopeID, err)
	}
	return nil
}

// Scopes lists every scope that currently tracks at least one entry.
func (m *WatchlistManager) Scopes(ctx context.Context) ([]string, error) {
	var scopes []string
	if err := m.db.WithContext(ctx).
		Model(&TrackedEntryRecord{}).
		Distinct("scope_id").
		Order("scope_id").
		Pluck("scope_id", &scopes).Error; err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	return scopes, nil
}

func loadEntries(tx *gorm.DB, scopeID string) ([]TrackedEntry, error) {
	var rows []TrackedEntryRecord
	if err := tx.Where("scope_id = ?", scopeID).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]TrackedEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, TrackedEntry{Name: row.Name, Author: row.Author, Badge: row.Badge})
	}
	return entries, nil
}

func replaceEntries(tx *gorm.DB, scopeID string, entries []TrackedEntry) error {
	if err := tx.Where("scope_id = ?", scopeID).Delete(&TrackedEntryRecord{}).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]TrackedEntryRecord, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, TrackedEntryRecord{
			ScopeID:   scopeID,
			Position:  i,
			Name:      entry.Name,
			Author:    entry.Author,
			Badge:     entry.Badge,
			UpdatedAt: now,
		})
	}
	return tx.Create(&rows).Error
}

func containsEntry(list []TrackedEntry, entry TrackedEntry) bool {
	for _, e := range list {
		if e == entry {
			return true
		}
	}
	return false
}

func indexOfBot(list []TrackedEntry, name, author string) int {
	for i, e := range list {
		if sameBot(e, name, author) {
			return i
		}
	}
	return -1
}
