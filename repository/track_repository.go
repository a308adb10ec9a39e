package repository

import (
	"fmt"
	"time"

	"randomradio/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackRepository defines the catalog of scanned tracks and their play
// statistics.
type TrackRepository interface {
	UpsertTracks(tracks []model.Track) error
	GetAllTracks() ([]*model.Track, error)
	GetTracksByAlbum(album string) ([]*model.Track, error)
	RecordPlay(trackPath string, duration float32) error
	CountTracks() (int64, error)
}

// sqliteTrackRepository implements TrackRepository on the GORM SQLite
// catalog.
type sqliteTrackRepository struct {
	db *gorm.DB
}

// NewSQLiteTrackRepository creates a new instance of sqliteTrackRepository.
func NewSQLiteTrackRepository(db *gorm.DB) TrackRepository {
	return &sqliteTrackRepository{db: db}
}

// UpsertTracks writes scan results. Existing rows keep their play counters;
// album and title follow the filesystem.
func (r *sqliteTrackRepository) UpsertTracks(tracks []model.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_path"}},
		DoUpdates: clause.AssignmentColumns([]string{"album", "title", "updated_at"}),
	}).Create(&tracks).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %d tracks: %w", len(tracks), err)
	}
	return nil
}

// GetAllTracks returns the catalog ordered by album then title.
func (r *sqliteTrackRepository) GetAllTracks() ([]*model.Track, error) {
	var tracks []*model.Track
	if err := r.db.Order("album, title").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	return tracks, nil
}

// GetTracksByAlbum returns one album's tracks ordered by title.
func (r *sqliteTrackRepository) GetTracksByAlbum(album string) ([]*model.Track, error) {
	var tracks []*model.Track
	if err := r.db.Where("album = ?", album).Order("title").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to query tracks for album %s: %w", album, err)
	}
	return tracks, nil
}

// RecordPlay bumps the play counter and fills in the decoded duration.
func (r *sqliteTrackRepository) RecordPlay(trackPath string, duration float32) error {
	now := time.Now()
	updates := map[string]interface{}{
		"play_count":     gorm.Expr("play_count + 1"),
		"last_played_at": &now,
		"updated_at":     now,
	}
	if duration > 0 {
		updates["duration"] = duration
	}

	result := r.db.Model(&model.Track{}).Where("file_path = ?", trackPath).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to record play for %s: %w", trackPath, result.Error)
	}
	return nil
}

// CountTracks returns the catalog size.
func (r *sqliteTrackRepository) CountTracks() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Track{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}
