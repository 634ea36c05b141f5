package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jfcardenas/storefront-core/pkg/logger"
)

type snapshot struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

func (snapshot) TableName() string { return "snapshots" }

// SQLiteStore persists snapshots in a local SQLite database, the default for
// single-machine storefront clients.
type SQLiteStore struct {
	conn *gorm.DB
}

// OpenSQLite boots the snapshot store at path, creating the table on first use.
func OpenSQLite(ctx context.Context, path string, logg *logger.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(&snapshot{}); err != nil {
		return nil, fmt.Errorf("migrating snapshot store: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "snapshot store opened")
	}

	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var row snapshot
	err := s.conn.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return row.Value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	row := snapshot{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.conn.WithContext(ctx).Delete(&snapshot{}, "key = ?", key).Error
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
