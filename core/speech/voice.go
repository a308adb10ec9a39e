package speech

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrVoiceNotFound is returned when no installed voice matches the requested
// name. Voice selection is an explicit lookup returning a typed handle;
// playback code never does ambient string matching.
var ErrVoiceNotFound = errors.New("voice not found")

// Voice is a typed handle to an installed Piper voice model.
type Voice struct {
	Name      string // Model file stem, e.g. "en_US-lessac-medium"
	ModelPath string // Absolute or relative path to the .onnx file
}

// ListVoices returns the voices installed under dir, sorted by name.
func ListVoices(dir string) ([]Voice, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read voices directory %s: %w", dir, err)
	}

	var voices []Voice
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".onnx") {
			continue
		}
		voices = append(voices, Voice{
			Name:      strings.TrimSuffix(entry.Name(), ".onnx"),
			ModelPath: filepath.Join(dir, entry.Name()),
		})
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].Name < voices[j].Name })
	return voices, nil
}

// LookupVoice resolves name to a voice handle. Exact name match wins over
// substring match; an empty name picks the first installed voice.
func LookupVoice(dir, name string) (Voice, error) {
	voices, err := ListVoices(dir)
	if err != nil {
		return Voice{}, err
	}
	if len(voices) == 0 {
		return Voice{}, fmt.Errorf("no voice models under %s: %w", dir, ErrVoiceNotFound)
	}

	if name == "" {
		return voices[0], nil
	}

	for _, voice := range voices {
		if voice.Name == name {
			return voice, nil
		}
	}
	lower := strings.ToLower(name)
	for _, voice := range voices {
		if strings.Contains(strings.ToLower(voice.Name), lower) {
			return voice, nil
		}
	}

	return Voice{}, fmt.Errorf("voice %q not installed under %s: %w", name, dir, ErrVoiceNotFound)
}
