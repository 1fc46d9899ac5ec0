package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the rest
// fall back to the defaults the application shipped with.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	SecretKey  string // secret used to sign every token kind
	AdminEmail string // registrations with this address receive the Administrator role

	AuthTokenTTL  time.Duration // lifetime of authentication tokens
	ResetTokenTTL time.Duration // lifetime of password reset tokens
	BcryptCost    int           // bcrypt cost for password hashing

	PostsPerPage     int
	FollowersPerPage int
	CommentsPerPage  int

	Log  LogConfig
	Mail MailConfig
}

// LogConfig controls the zap logger.  File enables a rotated log file in
// addition to stdout.
type LogConfig struct {
	Level string
	Dev   bool
	File  string
}

// LoadLogConfig reads LOG_LEVEL, LOG_DEV and LOG_FILE.
func LoadLogConfig() LogConfig {
	return LogConfig{
		Level: envStr("LOG_LEVEL", "info"),
		Dev:   envBool("LOG_DEV", false),
		File:  os.Getenv("LOG_FILE"),
	}
}

// Load reads configuration values from the environment and returns a
// Config.  A .env file in the working directory is loaded first when
// present.  Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: .env file not found, using process environment")
	}
	return Config{
		Env:        must("APP_ENV"),
		Port:       must("APP_PORT"),
		DBUser:     must("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     must("DB_HOST"),
		DBPort:     must("DB_PORT"),
		DBName:     must("DB_NAME"),
		SecretKey:  must("SECRET_KEY"),
		AdminEmail: strings.ToLower(strings.TrimSpace(os.Getenv("APP_ADMIN"))),

		AuthTokenTTL:  time.Duration(envInt("AUTH_TOKEN_TTL_SEC", 3600)) * time.Second,
		ResetTokenTTL: time.Duration(envInt("RESET_TOKEN_TTL_SEC", 3600)) * time.Second,
		BcryptCost:    envInt("BCRYPT_COST", 10),

		PostsPerPage:     envInt("POSTS_PER_PAGE", 10),
		FollowersPerPage: envInt("FOLLOWERS_PER_PAGE", 10),
		CommentsPerPage:  envInt("COMMENTS_PER_PAGE", 10),

		Log:  LoadLogConfig(),
		Mail: LoadMailConfig(),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
