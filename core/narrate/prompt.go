package narrate

import (
	"fmt"
	"strings"

	"randomradio/model"
)

// System prompt for the station DJ.
const DJSystemPrompt = `You are the host of "Random Radio", a small home radio station.

## Your job
Before each track you say one short on-air introduction.

## Hard rules
1. At most TWO sentences. Never more.
2. Plain spoken text only: no markdown, no emoji, no quotation marks, no stage directions like *laughs*.
3. Mention the track or the album naturally, the way a late-night DJ would.
4. If a mood is given, let it color your tone, but do not read the mood word out loud like a label.
5. Do not invent facts about the artist. When unsure, talk about the feel of the music instead.

## Examples
Track: Harvest Moon, album: Neil Young
"Time to slow things down a little. This one is Harvest Moon."

Track: Go Go Go, album: Fishmans, mood: dreamy
"Let's drift for a while with Fishmans. Here comes Go Go Go."`

// BuildMessages constructs the chat messages for one introduction request.
func BuildMessages(track model.Track, mood string) []model.OpenAIChatMessage {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Introduce the next track.\nAlbum: %s\nTrack: %s\n", track.Album, track.Title)
	if strings.TrimSpace(mood) != "" {
		fmt.Fprintf(&sb, "Current mood of the station: %s\n", mood)
	}
	sb.WriteString("Remember: two sentences maximum, plain text.")

	return []model.OpenAIChatMessage{
		{Role: "system", Content: DJSystemPrompt},
		{Role: "user", Content: sb.String()},
	}
}

// ClampSentences cuts text down to at most n sentences. The model is told to
// stay within two sentences but smaller local models drift; the clamp keeps
// narration playback short regardless.
func ClampSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 || text == "" {
		return text
	}

	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if !isSentenceEnd(r) {
			continue
		}
		// Runs of terminators ("?!", "...") count as one sentence end.
		if i+1 < len(runes) && isSentenceEnd(runes[i+1]) {
			continue
		}
		count++
		if count == n {
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}
	return text
}

// isSentenceEnd covers ASCII terminators plus the fullwidth ones local
// models emit when they answer in CJK.
func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '…':
		return true
	}
	return false
}
