package model

import "time"

// PlayEvent is the logged record of one completed or attempted playback.
// Created once per cycle, appended to the history store, never mutated.
type PlayEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	TrackPath string    `json:"trackPath"`
	Album     string    `json:"album"`
	Title     string    `json:"title"`
	Narration string    `json:"narration"` // Empty when narration was skipped
	Mood      string    `json:"mood"`
}

// NowPlaying describes the station state exposed to the control panel.
type NowPlaying struct {
	Album     string    `json:"album"`
	Title     string    `json:"title"`
	TrackPath string    `json:"trackPath"`
	Narration string    `json:"narration"`
	Mood      string    `json:"mood"`
	Paused    bool      `json:"paused"`
	Volume    int       `json:"volume"`
	StartedAt time.Time `json:"startedAt"`
}
