package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kyoden/utagoe/internal/domain/model"
	"github.com/kyoden/utagoe/pkg/metrics"
)

// GormStore implements Store on a relational database. The DSN picks
// the driver: postgres:// or postgresql:// schemes open Postgres,
// anything else is treated as a SQLite file path.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database, runs migrations and returns a
// ready-to-use store.
func NewGormStore(dsn string, opts ...Option) (*GormStore, error) {
	cfg := newStoreConfig(opts...)

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             cfg.slowThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(openDialector(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.ScoreRecord{}, &model.Artist{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("unwrap database handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func openDialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

func (s *GormStore) RecentScores(ctx context.Context, userID string, limit int) ([]model.ScoreRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	var rows []model.ScoreRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query recent scores: %w", err)
	}
	return rows, nil
}

func (s *GormStore) AppendScore(ctx context.Context, rec *model.ScoreRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *GormStore) LatestScore(ctx context.Context, userID string) (model.ScoreRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var row model.ScoreRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.ScoreRecord{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.ScoreRecord{}, fmt.Errorf("query latest score: %w", err)
	}
	return row, nil
}

func (s *GormStore) UpdateScore(ctx context.Context, rec *model.ScoreRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (model.User, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var u model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *GormStore) UserByCode(ctx context.Context, code string) (model.User, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var u model.User
	err := s.db.WithContext(ctx).Where("user_code = ?", code).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.User{}, fmt.Errorf("query user by code: %w", err)
	}
	return u, nil
}

func (s *GormStore) UpsertUser(ctx context.Context, u *model.User) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(u).Error
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("upsert user: %w", err)
	}

	if count, err := s.CountUsers(ctx); err == nil {
		metrics.UpdateTotalUsers(int(count))
	}
	return nil
}

func (s *GormStore) RecordSubmission(ctx context.Context, userID string, at time.Time) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"score_count":   gorm.Expr("score_count + 1"),
			"last_score_at": at,
		})
	if res.Error != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("record submission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		metrics.RecordStoreError()
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *GormStore) ArtistByName(ctx context.Context, name string) (model.Artist, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var a model.Artist
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Artist{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.Artist{}, fmt.Errorf("query artist: %w", err)
	}
	return a, nil
}

func (s *GormStore) UpsertArtist(ctx context.Context, a *model.Artist) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"music_brainz_id", "genre_tags"}),
	}).Create(a).Error
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("upsert artist: %w", err)
	}
	return nil
}
