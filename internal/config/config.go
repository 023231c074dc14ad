package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogMode string
	// SolverURL selects the remote solver; an empty value uses the in-process one
	SolverURL          string
	SolverTimeout      time.Duration
	VariantConcurrency int
	StoreBackend       string
	StorePath          string
	RedisAddr          string
	RedisPrefix        string
	SolverdAddr        string
}

func Default() Config {
	return Config{
		LogMode:            "dev",
		SolverTimeout:      60 * time.Second,
		VariantConcurrency: 3,
		StoreBackend:       "file",
		StorePath:          "timetable-data",
		RedisPrefix:        "timetable:",
		SolverdAddr:        ":5000",
	}
}

// Load reads the given .env files (".env" when none is given), then the environment. Missing files are not an
// error; variables already present in the environment win over the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("cannot read %v: %w", file, err)
		}
	}

	config := Default()
	config.LogMode = getEnv("LOG_MODE", config.LogMode)
	config.SolverURL = strings.TrimRight(getEnv("SOLVER_URL", config.SolverURL), "/")
	config.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", config.StoreBackend))
	config.StorePath = getEnv("STORE_PATH", config.StorePath)
	config.RedisAddr = getEnv("REDIS_ADDR", config.RedisAddr)
	config.RedisPrefix = getEnv("REDIS_PREFIX", config.RedisPrefix)
	config.SolverdAddr = getEnv("SOLVERD_ADDR", config.SolverdAddr)

	if value := getEnv("SOLVER_TIMEOUT", ""); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout <= 0 {
			return Config{}, fmt.Errorf("SOLVER_TIMEOUT must be a positive duration: %q", value)
		}
		config.SolverTimeout = timeout
	}
	if value := getEnv("VARIANT_CONCURRENCY", ""); value != "" {
		concurrency, err := strconv.Atoi(value)
		if err != nil || concurrency < 0 {
			return Config{}, fmt.Errorf("VARIANT_CONCURRENCY must be a non-negative integer: %q", value)
		}
		config.VariantConcurrency = concurrency
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}
