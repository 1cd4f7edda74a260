package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rallykat/rallykat/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Snapshot is one cached content payload.
type Snapshot struct {
	Key       string `gorm:"column:snapshot_key;primaryKey"`
	Payload   []byte
	FetchedAt time.Time
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot database: %w", err)
	}

	slog.Info("Snapshot database ready", "path", path)
	return &Repository{db: db}, nil
}

func (r *Repository) Save(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error {
	s := Snapshot{Key: key, Payload: payload, FetchedAt: fetchedAt.UTC()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&s).Error
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", key, err)
	}
	return nil
}

func (r *Repository) Load(ctx context.Context, key string) ([]byte, time.Time, error) {
	var s Snapshot
	err := r.db.WithContext(ctx).First(&s, "snapshot_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, repository.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading snapshot %s: %w", key, err)
	}
	return s.Payload, s.FetchedAt, nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
