package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/radio-t/webradio/podcast"
)

// RenderRecord is the sqlite row of a render
type RenderRecord struct {
	Key       string `gorm:"column:render_key;primaryKey;size:32"`
	SourceURL string `gorm:"size:2048"`
	Style     string `gorm:"size:64;index"`
	Language  string `gorm:"size:64"`
	Title     string
	AudioPath string
	Lines     int
	Segments  int
	Bytes     int
	Duration  float64
	CreatedAt time.Time `gorm:"index"`
}

// TableName sets the table name
func (RenderRecord) TableName() string { return "renders" }

func recordFromRender(r podcast.Render) RenderRecord {
	return RenderRecord{
		Key: r.Key, SourceURL: r.SourceURL, Style: r.Style, Language: r.Language, Title: r.Title,
		AudioPath: r.AudioPath, Lines: r.Lines, Segments: r.Segments, Bytes: r.Bytes, Duration: r.Duration,
		CreatedAt: r.CreatedAt,
	}
}

func (rec RenderRecord) render() podcast.Render {
	return podcast.Render{
		Key: rec.Key, SourceURL: rec.SourceURL, Style: rec.Style, Language: rec.Language, Title: rec.Title,
		AudioPath: rec.AudioPath, Lines: rec.Lines, Segments: rec.Segments, Bytes: rec.Bytes, Duration: rec.Duration,
		CreatedAt: rec.CreatedAt,
	}
}

// SQLiteStore keeps records in a sqlite table through gorm
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore migrates the schema and creates the store
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("sqlite store requires database handle")
	}
	if err := db.AutoMigrate(&RenderRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate renders: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the record for the key
func (s *SQLiteStore) Get(ctx context.Context, key string) (podcast.Render, error) {
	var rec RenderRecord
	err := s.db.WithContext(ctx).Where("render_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return podcast.Render{}, ErrNotFound
	}
	if err != nil {
		return podcast.Render{}, fmt.Errorf("failed to get render %s: %w", key, err)
	}
	return rec.render(), nil
}

// Save inserts or replaces the record
func (s *SQLiteStore) Save(ctx context.Context, render podcast.Render) error {
	if render.Key == "" {
		return errors.New("render key is required")
	}
	rec := recordFromRender(render)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save render %s: %w", render.Key, err)
	}
	return nil
}

// Delete removes the record
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("render_key = ?", key).Delete(&RenderRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete render %s: %w", key, err)
	}
	return nil
}

// List returns all records, newest first
func (s *SQLiteStore) List(ctx context.Context) ([]podcast.Render, error) {
	var recs []RenderRecord
	if err := s.db.WithContext(ctx).Order("created_at desc, render_key asc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list renders: %w", err)
	}
	res := make([]podcast.Render, 0, len(recs))
	for _, rec := range recs {
		res = append(res, rec.render())
	}
	return res, nil
}

// Close closes the underlying connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.Close()
}
