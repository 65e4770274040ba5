package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
)

// LocalStorage keeps records in memory and, when a file path is set, mirrors
// them to a JSON file after every change.
type LocalStorage struct {
	path    string
	records map[string]models.Asset
	mu      sync.RWMutex
}

// NewMemoryStorage returns a store that never touches disk.
func NewMemoryStorage() *LocalStorage {
	return &LocalStorage{records: make(map[string]models.Asset)}
}

// NewFileStorage loads path if it exists.
func NewFileStorage(path string) (*LocalStorage, error) {
	l := &LocalStorage{path: path, records: make(map[string]models.Asset)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &l.records); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file: %w", err)
	}
	log.Printf("[Store] Loaded %d upload records from %s", len(l.records), path)
	return l, nil
}

func (l *LocalStorage) Create(_ context.Context, asset models.Asset) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.records[asset.ID]; exists {
		return fmt.Errorf("upload record %s already exists", asset.ID)
	}
	l.records[asset.ID] = asset
	if err := l.saveToFile(); err != nil {
		// keep memory consistent with disk
		delete(l.records, asset.ID)
		return fmt.Errorf("failed to persist metadata: %w", err)
	}
	return nil
}

func (l *LocalStorage) Get(_ context.Context, id string) (models.Asset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	asset, ok := l.records[id]
	if !ok {
		return models.Asset{}, ErrNotFound
	}
	return asset, nil
}

func (l *LocalStorage) ListByOwner(_ context.Context, owner models.OwnerRef) ([]models.Asset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.Asset
	for _, asset := range l.records {
		if asset.OwnedBy(owner) {
			out = append(out, asset)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (l *LocalStorage) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	asset, ok := l.records[id]
	if !ok {
		return ErrNotFound
	}
	delete(l.records, id)
	if err := l.saveToFile(); err != nil {
		l.records[id] = asset
		return fmt.Errorf("failed to persist metadata deletion: %w", err)
	}
	return nil
}

func (l *LocalStorage) Close() error { return nil }

// saveToFile must be called with the write lock held.
func (l *LocalStorage) saveToFile() error {
	if l.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Write to temporary file first for atomicity
	tempFile := l.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	if err := os.Rename(tempFile, l.path); err != nil {
		return fmt.Errorf("failed to rename metadata file: %w", err)
	}
	return nil
}
