package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBufferSize is the response buffer capacity used by the demo client.
const DefaultBufferSize = 4096

// minBufferSize keeps room for at least a short error message.
const minBufferSize = 64

// Config stores the application configuration.
type Config struct {
	// Engine library
	LibraryPath string
	Symbol      string
	BufferSize  int
	Driver      string
	WaveFile    string
	CallTimeout time.Duration

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool

	// Remote control server
	ServerAddr        string
	JWTSecret         string
	JWTTTL            time.Duration
	AdminPasswordHash string
	RecordDir         string
	RecordSettle      time.Duration

	// Journal database
	DBEnabled  bool
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisEnabled   bool
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	DriverCacheTTL time.Duration

	// MinIO
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
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
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("750ms") or plain seconds ("5").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}
	return fromEnv()
}

// LoadFrom loads the given env file before reading the environment.
// A missing file is an error here, since the caller asked for it by name.
func LoadFrom(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return fromEnv(), nil
}

func fromEnv() *Config {
	return &Config{
		LibraryPath: getEnv("SMP_LIBRARY_PATH", defaultLibraryPath()),
		Symbol:      getEnv("SMP_SYMBOL", "_SoundDllProCommand"),
		BufferSize:  getEnvInt("SMP_BUFFER_SIZE", DefaultBufferSize),
		Driver:      getEnv("SMP_DRIVER", "3"),
		WaveFile:    getEnv("SMP_WAVE_FILE", `..\waves\eurovision.wav`),
		CallTimeout: getEnvDuration("SMP_CALL_TIMEOUT", 0),

		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 30),
		LogCompress:   getEnvBool("LOG_COMPRESS", false),

		ServerAddr:        getEnv("SMP_SERVER_ADDR", "127.0.0.1:8080"),
		JWTSecret:         os.Getenv("SMP_JWT_SECRET"),
		JWTTTL:            getEnvDuration("SMP_JWT_TTL", 12*time.Hour),
		AdminPasswordHash: os.Getenv("SMP_ADMIN_PASSWORD_HASH"),
		RecordDir:         getEnv("SMP_RECORD_DIR", ""),
		RecordSettle:      getEnvDuration("SMP_RECORD_SETTLE", 2*time.Second),

		DBEnabled:  getEnvBool("DB_ENABLED", false),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no default for passwords
		DBName:     getEnv("DB_NAME", "smpctl"),

		RedisEnabled:   getEnvBool("REDIS_ENABLED", false),
		RedisHost:      getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		DriverCacheTTL: getEnvDuration("SMP_DRIVER_CACHE_TTL", 10*time.Minute),

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "smpctl"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
	}
}

// AuthEnabled reports whether the remote control API requires a token.
func (c *Config) AuthEnabled() bool {
	return c.AdminPasswordHash != ""
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.LibraryPath == "" {
		return fmt.Errorf("SMP_LIBRARY_PATH is empty")
	}
	if c.BufferSize < minBufferSize {
		return fmt.Errorf("invalid SMP_BUFFER_SIZE: %d (must be at least %d bytes)", c.BufferSize, minBufferSize)
	}
	if _, _, err := net.SplitHostPort(c.ServerAddr); err != nil {
		return fmt.Errorf("invalid SMP_SERVER_ADDR %q: %w", c.ServerAddr, err)
	}
	if c.AuthEnabled() && c.JWTSecret == "" {
		return fmt.Errorf("SMP_JWT_SECRET is required when SMP_ADMIN_PASSWORD_HASH is set")
	}
	if c.RecordSettle <= 0 {
		return fmt.Errorf("invalid SMP_RECORD_SETTLE: %s", c.RecordSettle)
	}
	return nil
}
