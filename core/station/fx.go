package station

import (
	"os"
	"path/filepath"
)

// fxExtensions mirrors the library's eligible audio extensions, in the order
// they are probed for a cue file.
var fxExtensions = []string{".mp3", ".wav", ".ogg", ".flac", ".aac"}

// FindCue looks for a stinger named cue (e.g. "airhorn") with any supported
// extension under dir.
func FindCue(dir, cue string) (string, bool) {
	for _, ext := range fxExtensions {
		path := filepath.Join(dir, cue+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
