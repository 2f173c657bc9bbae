package state

import (
	"context"
	"errors"
	"time"

	"github.com/hairizuan-noorazman/testpilot/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppState is one stored state document.
type AppState struct {
	StateKey  string    `gorm:"column:state_key;primaryKey;size:191"`
	Data      string    `gorm:"column:data;type:longtext;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM.
func (AppState) TableName() string {
	return "app_states"
}

// SQLBackend stores state documents in the app_states table.
type SQLBackend struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewSQLBackend creates a new SQL-backed state backend.
func NewSQLBackend(db *gorm.DB, log logger.Logger) *SQLBackend {
	if log == nil {
		log = logger.Nop()
	}
	return &SQLBackend{db: db, logger: log}
}

func (b *SQLBackend) Read(ctx context.Context, key string) ([]byte, error) {
	var row AppState
	err := b.db.WithContext(ctx).Where("state_key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		b.logger.Error(ctx, "failed to read state", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
		return nil, err
	}
	return []byte(row.Data), nil
}

// Write inserts or replaces the document stored under key.
func (b *SQLBackend) Write(ctx context.Context, key string, data []byte) error {
	row := AppState{StateKey: key, Data: string(data), UpdatedAt: time.Now().UTC()}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		b.logger.Error(ctx, "failed to write state", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
			"bytes": len(data),
		})
		return err
	}

	b.logger.Debug(ctx, "state written", map[string]interface{}{
		"key":   key,
		"bytes": len(data),
	})
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	if err := b.db.WithContext(ctx).Where("state_key = ?", key).Delete(&AppState{}).Error; err != nil {
		b.logger.Error(ctx, "failed to delete state", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
		return err
	}
	return nil
}
