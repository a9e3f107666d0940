package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	DataDir     string
	OutDir      string
	Year        int // 0 keeps every year found
	Box         merra2.BoundingBox
	Variables   []string
	Concurrency int

	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	Schedule        string // cron expression; empty runs once
	ShutdownTimeout time.Duration

	// VictoriaMetrics export, disabled when VMInsertURL is empty.
	VMInsertURL     string
	VMMetricPrefix  string
	VMConcurrency   int
	VMRecsPerInsert int
}

// Load reads configuration from a .env file, if present, and the
// environment, applying defaults where unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var err error
	cfg := &Config{
		DataDir:        envOrDefault("MERRA2_DATA_DIR", "data/raw"),
		OutDir:         envOrDefault("MERRA2_OUT_DIR", "data/out"),
		Variables:      parseList(envOrDefault("MERRA2_VARIABLES", "T2M,QV2M,PS,U10M")),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:       envOrDefault("HTTP_ADDR", ":8080"),
		Schedule:       os.Getenv("SCHEDULE"),
		VMInsertURL:    os.Getenv("VM_INSERT_URL"),
		VMMetricPrefix: envOrDefault("VM_METRIC_PREFIX", "merra2"),
	}

	if cfg.Year, err = parseInt("MERRA2_YEAR", 0); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = parseInt("MERRA2_CONCURRENCY", runtime.NumCPU()); err != nil {
		return nil, err
	}
	if cfg.VMConcurrency, err = parseInt("VM_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.VMRecsPerInsert, err = parseInt("VM_RECS_PER_INSERT", 500); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Box, err = parseBox(); err != nil {
		return nil, err
	}

	if cfg.Year < 0 {
		return nil, errors.New("MERRA2_YEAR must not be negative")
	}
	if cfg.Concurrency < 1 {
		return nil, errors.New("MERRA2_CONCURRENCY must be positive")
	}
	if cfg.VMConcurrency < 1 {
		return nil, errors.New("VM_CONCURRENCY must be positive")
	}
	if cfg.VMRecsPerInsert < 1 {
		return nil, errors.New("VM_RECS_PER_INSERT must be positive")
	}
	if len(cfg.Variables) == 0 {
		return nil, errors.New("MERRA2_VARIABLES is required")
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid SCHEDULE: %w", err)
		}
	}

	return cfg, nil
}

// HasVariable reports whether name is among the configured variables.
func (c *Config) HasVariable(name string) bool {
	for _, v := range c.Variables {
		if v == name {
			return true
		}
	}
	return false
}

func parseBox() (merra2.BoundingBox, error) {
	var (
		box merra2.BoundingBox
		err error
	)
	if box.SouthWest.Lat, err = parseFloat("MERRA2_SW_LAT", 24); err != nil {
		return box, err
	}
	if box.SouthWest.Lon, err = parseFloat("MERRA2_SW_LON", -125); err != nil {
		return box, err
	}
	if box.NorthEast.Lat, err = parseFloat("MERRA2_NE_LAT", 50); err != nil {
		return box, err
	}
	if box.NorthEast.Lon, err = parseFloat("MERRA2_NE_LON", -66); err != nil {
		return box, err
	}

	for name, v := range map[string]float64{"MERRA2_SW_LAT": box.SouthWest.Lat, "MERRA2_NE_LAT": box.NorthEast.Lat} {
		if v < -90 || v > 90 {
			return box, fmt.Errorf("%s must be within [-90, 90]", name)
		}
	}
	for name, v := range map[string]float64{"MERRA2_SW_LON": box.SouthWest.Lon, "MERRA2_NE_LON": box.NorthEast.Lon} {
		if v < -180 || v > 180 {
			return box, fmt.Errorf("%s must be within [-180, 180]", name)
		}
	}
	if box.SouthWest.Lat > box.NorthEast.Lat {
		return box, errors.New("MERRA2_SW_LAT must not exceed MERRA2_NE_LAT")
	}
	if box.SouthWest.Lon > box.NorthEast.Lon {
		return box, errors.New("MERRA2_SW_LON must not exceed MERRA2_NE_LON")
	}
	return box, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
