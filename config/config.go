package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Everything comes from environment variables (optionally via a .env file)
// with sensible defaults for a single-machine station.
type Config struct {
	// Library
	AlbumsRoot string // Root directory containing one sub-directory per album
	FXDir      string // Optional directory with short FX stingers (airhorn.wav etc.)
	LineupRule string // Queue rule: "shuffle" (all tracks), "first" or "random" (one per album)

	// Playback
	MusicVolume int    // 0-100 volume while music plays
	DuckVolume  int    // 0-100 floor while the DJ speaks
	Endless     bool   // Loop the queue forever instead of one full pass
	FFmpegPath  string // Used to convert formats the engine cannot decode

	// Narration (OpenAI-compatible endpoint, e.g. Ollama /v1)
	NarrateAPIURL    string
	NarrateAPIKey    string
	NarrateModel     string
	NarrateMaxTokens int
	NarrateTimeout   time.Duration

	// TTS (Piper)
	PiperPath  string // Piper binary, looked up on PATH by default
	VoicesDir  string // Directory holding *.onnx voice models
	VoiceName  string // Voice to use, matched against model file names
	TTSTimeout time.Duration

	// History
	HistoryCSV string // Append-only play log read by the viewer

	// Catalog (SQLite via GORM)
	DBPath string

	// Redis (optional: narration cache + now-playing mirror)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO (optional: remote album mirror)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioPrefix    string
	MinioUseSSL    bool
	MinioRegion    string

	// HTTP
	ListenAddr string
	WebAppDir  string // Static control panel files

	// Admin auth (optional: mutating endpoints open when password unset)
	AdminPassword string
	JWTSecret     string

	// Logging
	LogPath  string
	LogLevel string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		AlbumsRoot: getEnv("ALBUMS_ROOT", "albums"),
		FXDir:      getEnv("FX_DIR", ""),
		LineupRule: getEnv("LINEUP_RULE", "shuffle"),

		MusicVolume: getEnvInt("MUSIC_VOLUME", 80),
		DuckVolume:  getEnvInt("DUCK_VOLUME", 20),
		Endless:     getEnvBool("ENDLESS", true),
		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),

		NarrateAPIURL:    getEnv("NARRATE_API_URL", "http://127.0.0.1:11434/v1"),
		NarrateAPIKey:    os.Getenv("NARRATE_API_KEY"), // Ollama ignores it, no default
		NarrateModel:     getEnv("NARRATE_MODEL", "gemma3:4b"),
		NarrateMaxTokens: getEnvInt("NARRATE_MAX_TOKENS", 120),
		NarrateTimeout:   time.Duration(getEnvInt("NARRATE_TIMEOUT_SECONDS", 15)) * time.Second,

		PiperPath:  getEnv("PIPER_PATH", "piper"),
		VoicesDir:  getEnv("PIPER_VOICES_DIR", "voices"),
		VoiceName:  getEnv("PIPER_VOICE", ""),
		TTSTimeout: time.Duration(getEnvInt("TTS_TIMEOUT_SECONDS", 30)) * time.Second,

		HistoryCSV: getEnv("HISTORY_CSV", "history.csv"),
		DBPath:     getEnv("DB_PATH", "radio.db"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "randomradio"),
		MinioPrefix:    getEnv("MINIO_PREFIX", "albums/"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", ""),

		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		WebAppDir:  getEnv("WEBAPP_DIR", "web/ui"),

		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:     getEnv("JWT_SECRET", "randomradio-dev-secret"),

		LogPath:  getEnv("LOG_PATH", "logs/radio.log"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}
