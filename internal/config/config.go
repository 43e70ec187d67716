package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/synthetic-met-data/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Domain and synthesis.
	Bounds           domain.Bounds
	Resolution       float64
	StartDate        time.Time
	Days             int
	Seed             uint64
	DownsampleFactor int
	Workers          int

	// Region source.
	RegionName      string
	RegionSource    string
	RegionTimeout   time.Duration
	RegionCacheSize int

	// Storage and artifacts.
	DataDir           string
	OutputDir         string
	WriteUncompressed bool
	LoadFromStore     bool
	RunInterval       time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	var p parser
	cfg := &Config{
		Bounds: domain.Bounds{
			LatMin: p.floatEnv("LAT_MIN", "-44"),
			LatMax: p.floatEnv("LAT_MAX", "-10"),
			LonMin: p.floatEnv("LON_MIN", "113"),
			LonMax: p.floatEnv("LON_MAX", "154"),
		},
		Resolution:       p.floatEnv("RESOLUTION", "0.09"),
		StartDate:        p.dateEnv("START_DATE", "2024-01-15"),
		Days:             p.intEnv("DAYS", "10"),
		Seed:             p.uintEnv("SEED", "42"),
		DownsampleFactor: p.intEnv("DOWNSAMPLE_FACTOR", "4"),
		Workers:          p.intEnv("WORKERS", "0"),

		RegionName:      sharedcfg.EnvOrDefault("REGION_NAME", "Australia"),
		RegionSource:    sharedcfg.EnvOrDefault("REGION_SOURCE", ""),
		RegionTimeout:   p.durationEnv("REGION_TIMEOUT", "10s"),
		RegionCacheSize: p.intEnv("REGION_CACHE_SIZE", "8"),

		DataDir:           sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		OutputDir:         sharedcfg.EnvOrDefault("OUTPUT_DIR", "dashboard/public/data"),
		WriteUncompressed: p.boolEnv("WRITE_UNCOMPRESSED", "false"),
		LoadFromStore:     p.boolEnv("LOAD_FROM_STORE", "false"),
		RunInterval:       p.durationEnv("RUN_INTERVAL", "0s"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: p.boolEnv("KAFKA_ENABLED", "false"),
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "met-artifacts"),
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.Bounds.Validate(); err != nil {
		return nil, err
	}
	if !(cfg.Resolution > 0) {
		return nil, fmt.Errorf("RESOLUTION: %w", domain.ErrInvalidResolution)
	}
	if cfg.Days < 1 {
		return nil, fmt.Errorf("DAYS: %w", domain.ErrInvalidDays)
	}
	if cfg.DownsampleFactor < 1 {
		return nil, fmt.Errorf("DOWNSAMPLE_FACTOR: %w", domain.ErrInvalidFactor)
	}
	if cfg.RegionTimeout <= 0 {
		return nil, errors.New("invalid REGION_TIMEOUT")
	}
	if cfg.RunInterval < 0 {
		return nil, errors.New("invalid RUN_INTERVAL")
	}
	if cfg.RegionName == "" {
		return nil, errors.New("REGION_NAME is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

// parser records the first malformed variable so Load can report it by name.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (p *parser) floatEnv(key, def string) float64 {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) intEnv(key, def string) int {
	v, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) uintEnv(key, def string) uint64 {
	v, err := strconv.ParseUint(sharedcfg.EnvOrDefault(key, def), 10, 64)
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) boolEnv(key, def string) bool {
	v, err := strconv.ParseBool(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) durationEnv(key, def string) time.Duration {
	v, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) dateEnv(key, def string) time.Time {
	v, err := time.Parse(domain.DateLayout, sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		p.fail(key, err)
	}
	return v
}
