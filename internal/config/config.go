package config // package config loads application configuration from environment variables

import (
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/OptimisticPessimist/pscweb3/internal/database"
    "github.com/OptimisticPessimist/pscweb3/internal/scheduling"
)

// Config holds all runtime configuration values of the HTTP server.
// Each field corresponds to an environment variable; the CLI commands
// that do not serve HTTP use the narrower LoadDB/LoadEngine helpers so
// they do not need APP_PORT or JWT_SECRET.
type Config struct {
    Env          string          // application environment (e.g. "dev", "prod")
    Port         string          // HTTP port to listen on
    DB           database.Params // database driver and location
    JWTSecret    string          // secret used to verify JWTs
    AccessTTLMin int             // access token time‑to‑live in minutes
    Engine       EngineConfig    // feasibility engine constants
    LogLevel     string          // debug / info / warn / error
    LogFormat    string          // text / json
}

// EngineConfig carries the engine-boundary constants.
type EngineConfig struct {
    Location            *time.Location // display offset for candidate times
    PriorityRoles       []string       // fallback priority roles
    RequiredRolesMaxLen int            // InvalidInput bound for required-role strings
}

// Options converts the configuration into scheduling.Options.
func (e EngineConfig) Options() scheduling.Options {
    return scheduling.Options{
        Location:            e.Location,
        PriorityRoles:       e.PriorityRoles,
        MaxRequiredRolesLen: e.RequiredRolesMaxLen,
    }
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    eng, err := LoadEngine()
    if err != nil {
        fatalf("%v", err)
    }
    return Config{
        Env:          must("APP_ENV"),    // environment (dev/test/prod)
        Port:         must("APP_PORT"),   // port to bind the HTTP server
        DB:           LoadDB(),           // mysql or sqlite3
        JWTSecret:    must("JWT_SECRET"), // secret used for verifying JWTs
        AccessTTLMin: LoadAccessTTL(),
        Engine:       eng,
        LogLevel:     envStr("LOG_LEVEL", "info"),
        LogFormat:    envStr("LOG_FORMAT", "text"),
    }
}

// LoadAccessTTL reads ACCESS_TOKEN_TTL_MIN (minutes, default 60).
func LoadAccessTTL() int { return envInt("ACCESS_TOKEN_TTL_MIN", 60) }

// LoadDB reads the database selection.  MySQL credentials are only
// required when DB_DRIVER is mysql (the default).
func LoadDB() database.Params {
    p := database.Params{Driver: envStr("DB_DRIVER", database.DriverMySQL)}
    switch p.Driver {
    case database.DriverMySQL:
        p.User = must("DB_USER")
        p.Pass = os.Getenv("DB_PASS") // empty allowed
        p.Host = must("DB_HOST")
        p.Port = must("DB_PORT")
        p.Name = must("DB_NAME")
    case database.DriverSQLite:
        p.Path = envStr("DB_PATH", "data/pscweb.db")
    default:
        fatalf("unsupported DB_DRIVER %q", p.Driver)
    }
    return p
}

// LoadEngine reads DISPLAY_TZ_OFFSET, PRIORITY_ROLES and
// REQUIRED_ROLES_MAX_LEN.
func LoadEngine() (EngineConfig, error) {
    loc, err := ParseOffset(envStr("DISPLAY_TZ_OFFSET", "+00:00"))
    if err != nil {
        return EngineConfig{}, err
    }
    return EngineConfig{
        Location:            loc,
        PriorityRoles:       envList("PRIORITY_ROLES", scheduling.DefaultPriorityRoles),
        RequiredRolesMaxLen: envInt("REQUIRED_ROLES_MAX_LEN", scheduling.DefaultMaxRequiredRolesLen),
    }, nil
}

// ParseOffset accepts a fixed offset ("+09:00", "-0530", "Z") or an
// IANA zone name ("Asia/Tokyo").
func ParseOffset(s string) (*time.Location, error) {
    s = strings.TrimSpace(s)
    switch s {
    case "", "Z", "UTC", "+00:00":
        return time.UTC, nil
    }
    if s[0] == '+' || s[0] == '-' {
        for _, layout := range []string{"-07:00", "-0700", "-07"} {
            if t, err := time.Parse(layout, s); err == nil {
                _, off := t.Zone()
                return time.FixedZone(s, off), nil
            }
        }
        return nil, fmt.Errorf("invalid DISPLAY_TZ_OFFSET %q", s)
    }
    loc, err := time.LoadLocation(s)
    if err != nil {
        return nil, fmt.Errorf("invalid DISPLAY_TZ_OFFSET %q: %w", s, err)
    }
    return loc, nil
}
