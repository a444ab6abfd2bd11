package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store kinds accepted in SESSION_STORE.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMinio  = "minio"
	StoreMySQL  = "mysql"
	StoreSQLite = "sqlite"
)

// Playback backends accepted in AUDIO_BACKEND.
const (
	BackendBeep   = "beep"
	BackendSilent = "silent"
)

// Config stores the application configuration.
type Config struct {
	SoundsDir     string // bundled sounds, one subdirectory per category
	UserSoundsDir string // imported sounds, listed as "User Sounds"
	SessionsDir   string // used by the file session store
	SessionStore  string
	SettingsFile  string // YAML user settings (language, theme)

	HTTPAddr  string
	JWTSecret string // empty disables API authentication

	AudioBackend    string
	AudioSampleRate int
	WatchSounds     bool

	// SilentLength is how long one pass of a sound lasts on the silent
	// backend. Zero means silent playback never finishes.
	SilentLength time.Duration

	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogConsole    bool

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioPrefix    string
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

// getEnvBool accepts the forms strconv.ParseBool understands.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts time.ParseDuration strings such as "30s".
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env files) or
// defaults. Existing environment variables are never overridden by the files.
func Load(envFiles ...string) *Config {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}

	dataDir := getEnv("WHISPERLI_DATA_DIR", ".")

	return &Config{
		SoundsDir:     getEnv("SOUNDS_DIR", filepath.Join(dataDir, "sounds")),
		UserSoundsDir: getEnv("USER_SOUNDS_DIR", filepath.Join(dataDir, "user_sounds")),
		SessionsDir:   getEnv("SESSIONS_DIR", filepath.Join(dataDir, "sessions")),
		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", StoreFile)),
		SettingsFile:  getEnv("SETTINGS_FILE", ""),

		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		AudioBackend:    strings.ToLower(getEnv("AUDIO_BACKEND", BackendBeep)),
		AudioSampleRate: getEnvInt("AUDIO_SAMPLE_RATE", 44100),
		WatchSounds:     getEnvBool("WATCH_SOUNDS", true),
		SilentLength:    getEnvDuration("SILENT_LENGTH", 30*time.Second),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", filepath.Join(dataDir, "logs", "whisperli.log")),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 28),
		LogConsole:    getEnvBool("LOG_CONSOLE", false),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "whisperli"),
		SQLitePath: getEnv("SQLITE_PATH", filepath.Join(dataDir, "whisperli.db")),

		RedisHost:      getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "whisperli"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "whisperli"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPrefix:    getEnv("MINIO_PREFIX", "sessions/"),
	}
}
