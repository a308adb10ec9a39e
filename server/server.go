package server

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"randomradio/cache"
	"randomradio/config"
	"randomradio/core/audio"
	"randomradio/core/library"
	"randomradio/core/narrate"
	"randomradio/core/speech"
	"randomradio/core/station"
	"randomradio/db"
	"randomradio/logger"
	"randomradio/model"
	"randomradio/repository"
	"randomradio/storage"

	"github.com/gorilla/mux"
)

// Start wires the whole station together and blocks until shutdown.
func Start(cfg *config.Config) {
	// Optional services first: the station must run without them.
	if err := storage.InitMinio(cfg); err != nil {
		logger.Warn("MinIO unavailable, remote library mirror disabled", logger.ErrorField(err))
	}
	if storage.GetMinioClient() != nil {
		syncCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		downloaded, err := storage.SyncLibrary(syncCtx, cfg, cfg.AlbumsRoot)
		cancel()
		if err != nil {
			logger.Warn("Remote library sync failed", logger.ErrorField(err))
		} else if downloaded > 0 {
			logger.Info("Remote library synced", logger.Int("downloaded", downloaded))
		}
	}
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, narration cache disabled", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	// Catalog database.
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to open catalog database", logger.ErrorField(err))
	}
	defer db.CloseDB()
	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to migrate catalog database", logger.ErrorField(err))
	}
	trackRepo := repository.NewSQLiteTrackRepository(db.GormDB)

	// Library scan. A missing or empty albums root is fatal and reported.
	albums, err := library.Scan(cfg.AlbumsRoot)
	if err != nil {
		logger.Fatal("Library scan failed",
			logger.String("root", cfg.AlbumsRoot),
			logger.ErrorField(err))
	}
	trackCount := 0
	for _, album := range albums {
		trackCount += len(album.Tracks)
		if err := trackRepo.UpsertTracks(album.Tracks); err != nil {
			logger.Warn("Failed to store scan results", logger.ErrorField(err))
		}
	}
	logger.Info("Library scanned",
		logger.Int("albums", len(albums)),
		logger.Int("tracks", trackCount))

	// Audio engine. The station cannot run without it: fail before any
	// playback is attempted.
	engine, err := audio.NewBeepEngine(cfg.FFmpegPath, cfg.MusicVolume)
	if err != nil {
		logger.Fatal("Audio engine failed to initialize (check your output device and that no other process holds it exclusively)",
			logger.ErrorField(err))
	}
	defer engine.Close()

	// Narration + speech degrade gracefully.
	narrator := narrate.NewGenerator(&narrate.GeneratorConfig{
		APIBaseURL:  cfg.NarrateAPIURL,
		APIKey:      cfg.NarrateAPIKey,
		Model:       cfg.NarrateModel,
		MaxTokens:   cfg.NarrateMaxTokens,
		Temperature: 0.8,
		Timeout:     cfg.NarrateTimeout,
	})

	var speaker station.Speaker
	if voice, err := speech.LookupVoice(cfg.VoicesDir, cfg.VoiceName); err != nil {
		logger.Warn("No TTS voice available, introductions will not be spoken",
			logger.ErrorField(err))
	} else {
		logger.Info("DJ voice selected", logger.String("voice", voice.Name))
		speaker = speech.NewSynthesizer(cfg.PiperPath, voice, cfg.TTSTimeout)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	historyRepo := repository.NewCSVHistoryRepository(cfg.HistoryCSV)
	logger.Info("History log", logger.String("path", historyRepo.Path()))
	hub := NewHub()

	st := station.New(station.Config{
		MusicVolume: cfg.MusicVolume,
		DuckVolume:  cfg.DuckVolume,
		FXDir:       cfg.FXDir,
		CueName:     "airhorn",
		Endless:     cfg.Endless,
	}, engine, narrator, speaker, library.NewMoodWeightedPolicy(rng), historyRepo, trackRepo, hub, rng)

	rebuild := func() []model.Track {
		fresh, err := library.Scan(cfg.AlbumsRoot)
		if err != nil {
			logger.Warn("Rescan for queue rebuild failed", logger.ErrorField(err))
			return nil
		}
		return library.BuildQueue(fresh, cfg.LineupRule, rng)
	}
	st.SetQueue(library.BuildQueue(albums, cfg.LineupRule, rng), rebuild)

	// Rescan when the library changes on disk.
	watcher, err := library.WatchAlbums(cfg.AlbumsRoot, 2*time.Second, func() {
		fresh, err := library.Scan(cfg.AlbumsRoot)
		if err != nil {
			logger.Warn("Library rescan failed", logger.ErrorField(err))
			return
		}
		count := 0
		for _, album := range fresh {
			count += len(album.Tracks)
			if err := trackRepo.UpsertTracks(album.Tracks); err != nil {
				logger.Warn("Failed to store rescan results", logger.ErrorField(err))
			}
		}
		st.SetQueue(library.BuildQueue(fresh, cfg.LineupRule, rng), rebuild)
		logger.Info("Library rescanned", logger.Int("albums", len(fresh)), logger.Int("tracks", count))
	})
	if err != nil {
		logger.Warn("Library watcher unavailable, changes need a restart", logger.ErrorField(err))
	} else {
		defer watcher.Close()
	}

	// Station loop.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := station.Run(loopCtx, st); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Station loop exited", logger.ErrorField(err))
		}
	}()

	// HTTP server.
	apiHandler := NewAPIHandler(st, historyRepo, trackRepo, hub, cfg)
	router := buildRouter(apiHandler, cfg)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Control panel listening",
			logger.String("addr", cfg.ListenAddr),
			logger.String("ui", "http://localhost"+cfg.ListenAddr+"/"))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down station...")

	stopLoop()
	st.Skip() // unblock a long track immediately
	select {
	case <-loopDone:
	case <-time.After(5 * time.Second):
		logger.Warn("Station loop did not stop in time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Station stopped")
}

// buildRouter registers all routes. Split out for handler tests.
func buildRouter(h *APIHandler, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)

	// Read endpoints.
	router.HandleFunc("/api/status", h.StatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/now", h.NowHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/history", h.HistoryHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/albums", h.AlbumsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/albums/{album}", h.AlbumTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/voices", h.VoicesHandler).Methods(http.MethodGet)

	// Control endpoints, guarded when an admin password is set.
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/control/mood", h.AdminMiddleware(h.MoodHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/control/skip", h.AdminMiddleware(h.SkipHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/control/pause", h.AdminMiddleware(h.PauseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/control/volume", h.AdminMiddleware(h.VolumeHandler)).Methods(http.MethodPost)

	// Live events.
	router.HandleFunc("/ws/radio", h.WebSocketHandler)

	// Control panel UI.
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.WebAppDir)))

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
