package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Values come from the environment first, then from the optional file named
// by CONFIG_FILE (yaml, toml or json). Keys are matched case-insensitively,
// so DATABASE_URL in the environment and database_url in a file are the same
// setting.

var (
	mu  sync.RWMutex
	src = newSource()
)

func newSource() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// Load reads path as the file layer. An empty path only resets to the
// environment.
func Load(path string) error {
	v := newSource()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	mu.Lock()
	src = v
	mu.Unlock()
	return nil
}

// LoadFromEnv loads the file named by CONFIG_FILE, if any.
func LoadFromEnv() error {
	return Load(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
}

func lookup(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	return strings.TrimSpace(src.GetString(key))
}

func String(key, fallback string) string {
	v := lookup(key)
	if v == "" {
		return fallback
	}
	return v
}

func RequiredString(key string) (string, error) {
	v := lookup(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func Port(key, fallback string) (string, error) {
	v := String(key, fallback)
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%s must be a valid TCP port (got %q)", key, v)
	}
	return v, nil
}

func Int(key string, fallback int) (int, error) {
	v := lookup(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got %q)", key, v)
	}
	return n, nil
}

func Bool(key string, fallback bool) (bool, error) {
	v := lookup(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean (got %q)", key, v)
	}
	return b, nil
}

// Duration accepts Go duration syntax ("90s", "2h").
func Duration(key string, fallback time.Duration) (time.Duration, error) {
	v := lookup(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (got %q)", key, v)
	}
	return d, nil
}

func Float(key string, fallback float64) (float64, error) {
	v := lookup(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number (got %q)", key, v)
	}
	return f, nil
}
