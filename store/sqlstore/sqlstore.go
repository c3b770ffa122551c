// Package sqlstore is a store.Backend on a SQLite table managed by GORM.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/interviewscribe/database"
	"github.com/kbukum/interviewscribe/store"
)

// Entry is one key/value row.
type Entry struct {
	Key       string `gorm:"column:key;primaryKey"`
	Value     []byte `gorm:"column:value"`
	UpdatedAt time.Time
}

// TableName implements gorm's tabler.
func (Entry) TableName() string { return "kv_entries" }

// Backend stores records in the kv_entries table.
type Backend struct {
	db *database.DB
}

var _ store.Backend = (*Backend)(nil)

// New migrates the kv_entries table and returns a Backend on db.
func New(db *database.DB) (*Backend, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, mapError(err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e Entry
	err := b.db.WithContext(ctx).Where(`"key" = ?`, key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapError(err)
	}
	return e.Value, true, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	return mapError(err)
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	return mapError(b.db.WithContext(ctx).Where(`"key" = ?`, key).Delete(&Entry{}).Error)
}

func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.db.WithContext(ctx).Model(&Entry{}).
		Where(`"key" LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order(`"key"`).
		Pluck("key", &keys).Error
	if err != nil {
		return nil, mapError(err)
	}
	return keys, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// mapError translates SQLite failures onto the store sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case database.IsDiskFullError(err):
		return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
	case database.IsUnavailableError(err):
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	default:
		return err
	}
}
