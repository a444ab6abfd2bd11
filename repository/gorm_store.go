package repository

import (
	"context"
	"errors"
	"fmt"

	"whisperli/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormSessionStore keeps sessions as rows of model.SessionRecord.
type gormSessionStore struct {
	db *gorm.DB
}

// NewGormSessionStore expects the sessions table to be migrated already
// (db.AutoMigrateModels(&model.SessionRecord{})).
func NewGormSessionStore(db *gorm.DB) SessionStore {
	return &gormSessionStore{db: db}
}

func (r *gormSessionStore) Read(ctx context.Context, name string) ([]byte, error) {
	var rec model.SessionRecord
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", name, err)
	}
	return []byte(rec.Document), nil
}

// Write upserts on the unique name.
func (r *gormSessionStore) Write(ctx context.Context, name string, data []byte) error {
	rec := model.SessionRecord{Name: name, Document: string(data)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save session %s: %w", name, err)
	}
	return nil
}

func (r *gormSessionStore) List(ctx context.Context) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).Model(&model.SessionRecord{}).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return names, nil
}

func (r *gormSessionStore) Delete(ctx context.Context, name string) (bool, error) {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&model.SessionRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("delete session %s: %w", name, res.Error)
	}
	return res.RowsAffected > 0, nil
}
