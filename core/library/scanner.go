package library

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"randomradio/logger"
	"randomradio/model"
)

// ErrNotFound is returned when the albums root does not exist or contains
// no sub-directory with at least one eligible audio file.
var ErrNotFound = errors.New("albums not found")

// supportedExt lists the audio extensions the station will play.
var supportedExt = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
}

// IsAudioFile reports whether path has a supported audio extension.
func IsAudioFile(path string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(path))]
}

// Queue rules. RuleFirst and RuleRandom pick one track per album per pass;
// RuleShuffle plays every track of every album in one shuffled queue.
const (
	RuleFirst   = "first"
	RuleRandom  = "random"
	RuleShuffle = "shuffle"
)

// Scan walks the immediate sub-directories of root and returns one Album per
// sub-directory that contains at least one eligible audio file, sorted by
// album name. Tracks within an album are sorted by file name. Scan has no
// side effects.
func Scan(root string) ([]model.Album, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("albums root %s: %w", root, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat albums root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("albums root %s is not a directory: %w", root, ErrNotFound)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read albums root %s: %w", root, err)
	}

	albums := make([]model.Album, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		tracks, err := scanAlbumDir(entry.Name(), dir)
		if err != nil {
			logger.Warn("Skipping unreadable album directory",
				logger.String("dir", dir),
				logger.ErrorField(err))
			continue
		}
		if len(tracks) == 0 {
			continue
		}
		albums = append(albums, model.Album{
			Name:   entry.Name(),
			Dir:    dir,
			Tracks: tracks,
		})
	}

	if len(albums) == 0 {
		return nil, fmt.Errorf("no albums with audio files under %s: %w", root, ErrNotFound)
	}

	sort.Slice(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })
	return albums, nil
}

// scanAlbumDir collects eligible audio files anywhere under one album
// directory, so nested disc folders still count toward their album.
func scanAlbumDir(album, dir string) ([]model.Track, error) {
	var tracks []model.Track
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsAudioFile(path) {
			return nil
		}
		name := d.Name()
		tracks = append(tracks, model.Track{
			Album:    album,
			Title:    strings.TrimSuffix(name, filepath.Ext(name)),
			FilePath: path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].FilePath < tracks[j].FilePath })
	return tracks, nil
}

// Lineup applies the per-album selection rule and returns exactly one track
// per album, in album order. Unknown rules fall back to RuleFirst.
func Lineup(albums []model.Album, rule string, rng *rand.Rand) []model.Track {
	lineup := make([]model.Track, 0, len(albums))
	for _, album := range albums {
		switch rule {
		case RuleRandom:
			lineup = append(lineup, album.Tracks[rng.Intn(len(album.Tracks))])
		default:
			lineup = append(lineup, album.Tracks[0])
		}
	}
	return lineup
}

// BuildQueue builds one pass of the play queue according to rule. Unknown
// rules fall back to RuleShuffle.
func BuildQueue(albums []model.Album, rule string, rng *rand.Rand) []model.Track {
	switch rule {
	case RuleFirst, RuleRandom:
		return Lineup(albums, rule, rng)
	default:
		return Queue(albums, rng)
	}
}

// Queue flattens every track of every album into one shuffled queue.
func Queue(albums []model.Album, rng *rand.Rand) []model.Track {
	var queue []model.Track
	for _, album := range albums {
		queue = append(queue, album.Tracks...)
	}
	rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	return queue
}
