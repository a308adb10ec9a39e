package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"

	"randomradio/logger"
	"randomradio/model"
)

// narrationTTL keeps cached introductions fresh enough that a mood change a
// few hours later gets new material.
const narrationTTL = 12 * time.Hour

// nowPlayingKey mirrors the current station state for external readers.
const nowPlayingKey = "radio:now_playing"

func narrationKey(trackPath, mood string) string {
	sum := sha1.Sum([]byte(trackPath + "\x00" + mood))
	return fmt.Sprintf("radio:narration:%x", sum)
}

// GetNarration returns a cached introduction for the (track, mood) pair.
// Always a miss when Redis is not configured.
func GetNarration(ctx context.Context, trackPath, mood string) (string, bool) {
	if RedisClient == nil {
		return "", false
	}

	val, err := RedisClient.Get(ctx, narrationKey(trackPath, mood)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// SetNarration caches an introduction for the (track, mood) pair.
func SetNarration(ctx context.Context, trackPath, mood, text string) {
	if RedisClient == nil {
		return
	}

	if err := RedisClient.Set(ctx, narrationKey(trackPath, mood), text, narrationTTL).Err(); err != nil {
		logger.Warn("Failed to cache narration", logger.ErrorField(err))
	}
}

// SetNowPlaying mirrors the station state into Redis so other local tools
// can read it without touching the HTTP API.
func SetNowPlaying(ctx context.Context, now model.NowPlaying) {
	if RedisClient == nil {
		return
	}

	data, err := json.Marshal(now)
	if err != nil {
		logger.Warn("Failed to marshal now playing state", logger.ErrorField(err))
		return
	}
	if err := RedisClient.Set(ctx, nowPlayingKey, data, 0).Err(); err != nil {
		logger.Warn("Failed to mirror now playing state", logger.ErrorField(err))
	}
}
