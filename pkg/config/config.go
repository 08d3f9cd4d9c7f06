package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Scheduler SchedulerConfig
	Solver    SolverConfig
	Cache     CacheConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Export    ExportConfig
}

// SchedulerConfig governs strategy selection and constraint policy.
type SchedulerConfig struct {
	// ComplexityThreshold is the teacher-class pairing count above which
	// the greedy heuristic replaces the exact solve.
	ComplexityThreshold int
	// Deadline bounds one request end to end; zero derives it from the
	// solver timeout plus a fixed buffer.
	Deadline time.Duration
	// AllowUnqualified permits NONE-tier teacher placements with the
	// lowest priority weight instead of forbidding them.
	AllowUnqualified bool
	// SubjectWeights overrides subject importance, "Subject:weight" pairs.
	SubjectWeights map[string]int
	// DefaultMaxPerDay/Week apply when a request omits global ceilings.
	DefaultMaxPerDay  int
	DefaultMaxPerWeek int
}

// SolverConfig locates and bounds the external CBC solver.
type SolverConfig struct {
	Path    string
	Timeout time.Duration
	// Gap is the accepted relative optimality gap (0..1).
	Gap float64
}

// CacheConfig tunes the in-memory result cache and the optional shared
// Redis layer.
type CacheConfig struct {
	TTL          time.Duration
	MaxEntries   int
	RedisEnabled bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportConfig gates the timetable export endpoints.
type ExportConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Scheduler = SchedulerConfig{
		ComplexityThreshold: v.GetInt("SCHEDULER_COMPLEXITY_THRESHOLD"),
		Deadline:            parseDuration(v.GetString("SCHEDULER_DEADLINE"), 0),
		AllowUnqualified:    v.GetBool("SCHEDULER_ALLOW_UNQUALIFIED"),
		SubjectWeights:      parseWeights(v.GetString("SCHEDULER_SUBJECT_WEIGHTS")),
		DefaultMaxPerDay:    v.GetInt("SCHEDULER_DEFAULT_MAX_PER_DAY"),
		DefaultMaxPerWeek:   v.GetInt("SCHEDULER_DEFAULT_MAX_PER_WEEK"),
	}

	cfg.Solver = SolverConfig{
		Path:    v.GetString("SOLVER_PATH"),
		Timeout: parseDuration(v.GetString("SOLVER_TIMEOUT"), 15*time.Second),
		Gap:     v.GetFloat64("SOLVER_GAP"),
	}

	cfg.Cache = CacheConfig{
		TTL:          parseDuration(v.GetString("CACHE_TTL"), 30*time.Minute),
		MaxEntries:   v.GetInt("CACHE_MAX_ENTRIES"),
		RedisEnabled: v.GetBool("CACHE_REDIS_ENABLED"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("SCHEDULER_COMPLEXITY_THRESHOLD", 100)
	v.SetDefault("SCHEDULER_DEADLINE", "")
	v.SetDefault("SCHEDULER_ALLOW_UNQUALIFIED", false)
	v.SetDefault("SCHEDULER_SUBJECT_WEIGHTS", "")
	v.SetDefault("SCHEDULER_DEFAULT_MAX_PER_DAY", 6)
	v.SetDefault("SCHEDULER_DEFAULT_MAX_PER_WEEK", 30)

	v.SetDefault("SOLVER_PATH", "cbc")
	v.SetDefault("SOLVER_TIMEOUT", "15s")
	v.SetDefault("SOLVER_GAP", 0.2)

	v.SetDefault("CACHE_TTL", "30m")
	v.SetDefault("CACHE_MAX_ENTRIES", 50)
	v.SetDefault("CACHE_REDIS_ENABLED", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_EXPORT", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseWeights reads "Mathematics:1,English:2" style overrides.
func parseWeights(raw string) map[string]int {
	if raw == "" {
		return nil
	}
	weights := make(map[string]int)
	for _, part := range strings.Split(raw, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(pair[1]))
		if err != nil {
			continue
		}
		weights[strings.TrimSpace(pair[0])] = value
	}
	if len(weights) == 0 {
		return nil
	}
	return weights
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
