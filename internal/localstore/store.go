// Package localstore implements the durable key/value store behind the sync
// layer. It is the source of truth on the device; the cache and the remote
// store are both rebuildable from it.
package localstore

import (
	"context"
	"time"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/pkg/errors"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// StorageItem is one row of the 'storage_items' table. Each fixed storage key
// holds the serialized records of one entity type.
type StorageItem struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     []byte    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (StorageItem) TableName() string {
	return "storage_items"
}

type Store struct {
	log zerolog.Logger
	db  *gorm.DB
}

// New opens (or creates) the sqlite database at the configured path and runs
// migrations.
func New(cfg *domain.Config, log logger.Logger) (*Store, error) {
	dsn := cfg.Database.Path
	if dsn == "" {
		return nil, errors.New("local database path is required but not configured")
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open local database: %s", dsn)
	}

	return NewWithDB(log, db)
}

// NewWithDB wraps an already opened gorm handle. Used by tests with an
// in-memory database.
func NewWithDB(log logger.Logger, db *gorm.DB) (*Store, error) {
	s := &Store{
		log: log.With().Str("module", "localstore").Logger(),
		db:  db,
	}

	if err := db.AutoMigrate(&StorageItem{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate storage_items")
	}

	return s, nil
}

// GetItem loads the value stored under key. A missing key is not an error
// and reads as the empty string.
func (s *Store) GetItem(ctx context.Context, key string) (string, error) {
	var item StorageItem
	result := s.db.WithContext(ctx).Where("key = ?", key).First(&item)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		s.log.Error().Err(result.Error).Str("key", key).Msg("failed to load storage item")
		return "", errors.Wrap(result.Error, "failed to load storage item: %s", key)
	}

	return string(item.Value), nil
}

// SetItem stores value under key, replacing any previous value. The write is
// idempotent.
func (s *Store) SetItem(ctx context.Context, key string, value string) error {
	now := time.Now()
	db := s.db.WithContext(ctx)

	updateResult := db.Model(&StorageItem{}).
		Where("key = ?", key).
		Updates(map[string]interface{}{
			"value":      []byte(value),
			"updated_at": now,
		})

	if updateResult.Error != nil {
		s.log.Error().Err(updateResult.Error).Str("key", key).Msg("failed to update storage item")
		return errors.Wrap(updateResult.Error, "failed to update storage item: %s", key)
	}

	if updateResult.RowsAffected == 0 {
		item := StorageItem{Key: key, Value: []byte(value), UpdatedAt: now}
		if createResult := db.Create(&item); createResult.Error != nil {
			s.log.Error().Err(createResult.Error).Str("key", key).Msg("failed to insert storage item")
			return errors.Wrap(createResult.Error, "failed to insert storage item: %s", key)
		}
	}

	s.log.Debug().Str("key", key).Str("size", humanize.Bytes(uint64(len(value)))).Msg("storage item written")
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to resolve database handle")
	}
	return sqlDB.Close()
}

var _ domain.LocalStore = (*Store)(nil)
