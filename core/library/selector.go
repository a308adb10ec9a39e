package library

import (
	"errors"
	"math/rand"
	"strings"

	"randomradio/model"
)

// ErrNoTracks is returned by a selection policy when nothing is left to play.
var ErrNoTracks = errors.New("no tracks available for selection")

// SelectionPolicy picks the index of the next track to play from the
// remaining queue, given the current mood cue. The exact weighting is
// deliberately pluggable.
type SelectionPolicy interface {
	Next(remaining []model.Track, mood string) (int, error)
}

// MoodWeightedPolicy draws the next track at random, weighted by how many
// mood keywords appear in the track's album name or title. An empty mood
// keeps the queue order, which is already shuffled at build time.
type MoodWeightedPolicy struct {
	rng *rand.Rand
}

// NewMoodWeightedPolicy creates the default selection policy.
func NewMoodWeightedPolicy(rng *rand.Rand) *MoodWeightedPolicy {
	return &MoodWeightedPolicy{rng: rng}
}

// Next implements SelectionPolicy.
func (p *MoodWeightedPolicy) Next(remaining []model.Track, mood string) (int, error) {
	if len(remaining) == 0 {
		return 0, ErrNoTracks
	}

	keywords := strings.Fields(strings.ToLower(strings.TrimSpace(mood)))
	if len(keywords) == 0 {
		return 0, nil
	}

	weights := make([]int, len(remaining))
	total := 0
	for i, track := range remaining {
		haystack := strings.ToLower(track.Album + " " + track.Title)
		weight := 1
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				weight++
			}
		}
		weights[i] = weight
		total += weight
	}

	pick := p.rng.Intn(total)
	for i, weight := range weights {
		pick -= weight
		if pick < 0 {
			return i, nil
		}
	}
	return len(remaining) - 1, nil
}
