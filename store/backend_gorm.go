package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chwoo19999-a11y/my-first-project/models"
)

// GormBackend keeps blobs as rows of table_snapshots, one SQL transaction per batch.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend expects the TableSnapshot model to be migrated already.
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (b *GormBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var snap models.TableSnapshot
	err := b.db.WithContext(ctx).Where("name = ?", name).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	return []byte(snap.Payload), nil
}

func (b *GormBackend) WriteBatch(ctx context.Context, blobs map[string][]byte) error {
	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			snap := models.TableSnapshot{Name: name, Payload: string(blobs[name]), UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
			}).Create(&snap).Error
			if err != nil {
				return fmt.Errorf("write snapshot %s: %w", name, err)
			}
		}
		return nil
	})
}
