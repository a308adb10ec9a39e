package model

import "time"

// Track represents an audio track discovered in the albums library.
// Path, album and title are immutable once discovered; Duration is filled in
// by the audio engine the first time the track is decoded, PlayCount and
// LastPlayedAt are maintained by the catalog after each completed cycle.
type Track struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	Album        string     `json:"album"`
	Title        string     `json:"title"`
	FilePath     string     `json:"filePath" gorm:"uniqueIndex"`
	Duration     float32    `json:"duration"` // Duration in seconds
	PlayCount    int64      `json:"playCount"`
	LastPlayedAt *time.Time `json:"lastPlayedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Album groups the tracks found in one immediate sub-directory of the
// albums root. Albums are not persisted directly; the catalog stores tracks.
type Album struct {
	Name   string  `json:"name"`
	Dir    string  `json:"dir"`
	Tracks []Track `json:"tracks"`
}
