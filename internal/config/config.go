package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strconv"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for
// durations.
type Config struct {
    Env           string // application environment (e.g. "dev", "prod")
    Port          string // HTTP port to listen on
    StoreBackend  string // "mysql" (default) or "memory"
    SnapshotFile  string // optional JSON snapshot path for the memory backend
    DBUser        string // database username
    DBPass        string // database password (optional)
    DBHost        string // database host address
    DBPort        string // database port number
    DBName        string // database name
    SessionSecret string // secret used to sign session tokens
    SessionTTLMin int    // session token time-to-live in minutes
    HoldTTLMin    int    // hold expiry in minutes; 0 means holds never expire
}

// Load reads configuration from the environment, after loading a local
// .env file when one exists.  Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
// Database variables are only required for the mysql backend.
func Load() Config {
    _ = godotenv.Load() // .env is optional; real env vars win

    cfg := Config{
        Env:           must("APP_ENV"),
        Port:          must("APP_PORT"),
        StoreBackend:  envStr("STORE_BACKEND", "mysql"),
        SnapshotFile:  os.Getenv("SNAPSHOT_FILE"),
        SessionSecret: must("SESSION_SECRET"),
        SessionTTLMin: mustInt("SESSION_TOKEN_TTL_MIN"),
        HoldTTLMin:    envInt("HOLD_TTL_MIN", 0),
    }
    if cfg.StoreBackend == "mysql" {
        cfg.DBUser = must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    return cfg
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
