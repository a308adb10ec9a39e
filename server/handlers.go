package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"randomradio/config"
	"randomradio/core/speech"
	"randomradio/core/station"
	"randomradio/logger"
	"randomradio/model"
	"randomradio/repository"

	"github.com/gorilla/mux"
)

// APIHandler handles all API requests.
type APIHandler struct {
	station     *station.Station
	historyRepo repository.HistoryRepository
	trackRepo   repository.TrackRepository
	hub         *Hub
	cfg         *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	st *station.Station,
	historyRepo repository.HistoryRepository,
	trackRepo repository.TrackRepository,
	hub *Hub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		station:     st,
		historyRepo: historyRepo,
		trackRepo:   trackRepo,
		hub:         hub,
		cfg:         cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("Failed to encode JSON response", logger.ErrorField(err))
	}
}

// StatusHandler returns the live station snapshot.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"now":      h.station.Now(),
		"state":    h.station.State(),
		"mood":     h.station.Mood(),
		"queued":   h.station.QueueLen(),
		"paused":   h.station.Paused(),
		"volume":   h.station.Volume(),
		"recent":   h.station.Recent(),
		"watchers": h.hub.ClientCount(),
	})
}

// NowHandler returns only the now-playing record; kept separate because
// external widgets poll it.
func (h *APIHandler) NowHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.station.Now())
}

// HistoryHandler re-reads the CSV history file on every request. The viewer
// is deliberately an independent reader of the flat file, not of station
// memory.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	events, err := h.historyRepo.ReadRecent(limit)
	if err != nil {
		logger.Error("Failed to read history", logger.ErrorField(err))
		http.Error(w, "Failed to read history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// AlbumsHandler returns the catalog grouped by album.
func (h *APIHandler) AlbumsHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.GetAllTracks()
	if err != nil {
		logger.Error("Failed to query catalog", logger.ErrorField(err))
		http.Error(w, "Failed to query catalog", http.StatusInternalServerError)
		return
	}

	grouped := make(map[string][]model.Track)
	for _, track := range tracks {
		grouped[track.Album] = append(grouped[track.Album], *track)
	}

	albums := make([]model.Album, 0, len(grouped))
	for name, albumTracks := range grouped {
		albums = append(albums, model.Album{Name: name, Tracks: albumTracks})
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })

	writeJSON(w, http.StatusOK, albums)
}

// AlbumTracksHandler returns one album's tracks from the catalog.
func (h *APIHandler) AlbumTracksHandler(w http.ResponseWriter, r *http.Request) {
	album := mux.Vars(r)["album"]

	tracks, err := h.trackRepo.GetTracksByAlbum(album)
	if err != nil {
		logger.Error("Failed to query album", logger.String("album", album), logger.ErrorField(err))
		http.Error(w, "Failed to query album", http.StatusInternalServerError)
		return
	}
	if len(tracks) == 0 {
		http.Error(w, "Album not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// VoicesHandler lists the installed TTS voices.
func (h *APIHandler) VoicesHandler(w http.ResponseWriter, r *http.Request) {
	voices, err := speech.ListVoices(h.cfg.VoicesDir)
	if err != nil {
		logger.Warn("Failed to list voices", logger.ErrorField(err))
		writeJSON(w, http.StatusOK, []speech.Voice{})
		return
	}
	writeJSON(w, http.StatusOK, voices)
}

// MoodHandler updates the mood cue used by the next selection.
func (h *APIHandler) MoodHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood string `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.station.SetMood(req.Mood)
	writeJSON(w, http.StatusOK, map[string]string{"mood": req.Mood})
}

// SkipHandler cancels the currently playing track.
func (h *APIHandler) SkipHandler(w http.ResponseWriter, r *http.Request) {
	h.station.Skip()
	writeJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
}

// PauseHandler pauses or resumes playback.
func (h *APIHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.station.SetPaused(req.Paused)
	writeJSON(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

// VolumeHandler changes the music volume.
func (h *APIHandler) VolumeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume int `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Volume < 0 || req.Volume > 100 {
		http.Error(w, "Volume must be between 0 and 100", http.StatusBadRequest)
		return
	}

	h.station.SetVolume(req.Volume)
	writeJSON(w, http.StatusOK, map[string]int{"volume": h.station.Volume()})
}
