// Package config reads declang's runtime settings from the process
// environment and an optional .env file. Process variables win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xyproto/env/v2"
)

const (
	DefaultAddr           = ":8080"
	DefaultMaxScriptBytes = 64 * 1024
	DefaultTokenTTL       = time.Hour
	DefaultSMTPPort       = 587
)

type SMTP struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   string
}

// Enabled reports whether failure reports can be mailed.
func (s SMTP) Enabled() bool {
	return s.Host != "" && s.To != ""
}

type Config struct {
	Addr           string
	StaticDir      string
	MaxScriptBytes int64
	LegacyGuard    bool

	AuthSecret       string
	AuthUser         string
	AuthPasswordHash string
	TokenTTL         time.Duration

	SMTP SMTP
}

// AuthEnabled reports whether the API requires bearer tokens.
func (c *Config) AuthEnabled() bool {
	return c.AuthSecret != ""
}

// source resolves a setting from the environment first, then the .env file.
type source struct {
	file map[string]string
}

func (s source) lookup(name string) (string, bool) {
	if env.Has(name) {
		return env.Str(name), true
	}
	v, ok := s.file[name]
	return v, ok
}

func (s source) str(name, def string) string {
	if v, ok := s.lookup(name); ok && v != "" {
		return v
	}
	return def
}

func (s source) integer(name string, def int) (int, error) {
	v, ok := s.lookup(name)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", name, err)
	}
	return n, nil
}

func (s source) boolean(name string) (bool, error) {
	v, ok := s.lookup(name)
	if !ok || strings.TrimSpace(v) == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("config: %s must be a boolean: %w", name, err)
	}
	return b, nil
}

// Load reads settings. Each path is a dotenv file; missing files are skipped.
func Load(paths ...string) (*Config, error) {
	file := map[string]string{}
	for _, p := range paths {
		vals, err := godotenv.Read(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", p, err)
		}
		for k, v := range vals {
			if _, seen := file[k]; !seen {
				file[k] = v
			}
		}
	}
	src := source{file: file}

	cfg := &Config{
		Addr:             src.str("DECLANG_ADDR", DefaultAddr),
		StaticDir:        src.str("STATIC_DIR", ""),
		AuthSecret:       src.str("AUTH_SECRET", ""),
		AuthUser:         src.str("AUTH_USER", ""),
		AuthPasswordHash: src.str("AUTH_PASSWORD_HASH", ""),
		TokenTTL:         DefaultTokenTTL,
		SMTP: SMTP{
			Host: src.str("SMTP_HOST", ""),
			User: src.str("SMTP_USER", ""),
			Pass: src.str("SMTP_PASS", ""),
			From: src.str("REPORT_FROM", ""),
			To:   src.str("REPORT_TO", ""),
		},
	}

	legacy, err := src.boolean("LEGACY_GUARD")
	if err != nil {
		return nil, err
	}
	cfg.LegacyGuard = legacy

	maxBytes, err := src.integer("MAX_SCRIPT_BYTES", DefaultMaxScriptBytes)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("config: MAX_SCRIPT_BYTES must be positive, got %d", maxBytes)
	}
	cfg.MaxScriptBytes = int64(maxBytes)

	if cfg.SMTP.Port, err = src.integer("SMTP_PORT", DefaultSMTPPort); err != nil {
		return nil, err
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = "noreply@example.com"
	}

	if ttl := src.str("AUTH_TOKEN_TTL", ""); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("config: AUTH_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}

	if cfg.AuthEnabled() && (cfg.AuthUser == "" || cfg.AuthPasswordHash == "") {
		return nil, errors.New("config: AUTH_SECRET requires AUTH_USER and AUTH_PASSWORD_HASH")
	}

	return cfg, nil
}
