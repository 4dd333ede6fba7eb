// Package config builds the interactive setup form used by
// `casewatch configure`.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/casewatch/internal/model"
)

// Fields holds the editable settings. Numeric settings are strings so
// they can be bound to text inputs.
type Fields struct {
	BaseURL     string
	Token       string
	IntervalSec string
	Backend     string
	SQLitePath  string
	RedisAddr   string
	Events      bool
}

// FieldsFromConfig seeds Fields from cfg. The token is not part of the
// config file and is left empty.
func FieldsFromConfig(cfg *model.AppConfig) *Fields {
	return &Fields{
		BaseURL:     cfg.API.BaseURL,
		IntervalSec: strconv.Itoa(cfg.Poll.IntervalSec),
		Backend:     cfg.Storage.Backend,
		SQLitePath:  cfg.Storage.SQLitePath,
		RedisAddr:   cfg.Storage.RedisAddr,
		Events:      cfg.Events.Enabled,
	}
}

// Apply copies the form values into cfg. Call it only after the form
// completed, since validation guarantees IntervalSec parses.
func (f *Fields) Apply(cfg *model.AppConfig) {
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(f.BaseURL), "/")
	if n, err := strconv.Atoi(strings.TrimSpace(f.IntervalSec)); err == nil {
		cfg.Poll.IntervalSec = n
	}
	cfg.Storage.Backend = f.Backend
	cfg.Storage.SQLitePath = strings.TrimSpace(f.SQLitePath)
	cfg.Storage.RedisAddr = strings.TrimSpace(f.RedisAddr)
	cfg.Events.Enabled = f.Events
}

// NewForm builds the setup form bound to f.
func NewForm(f *Fields) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Description("Root of the HR API (e.g., http://localhost:8000/api)").
				Placeholder("http://localhost:8000/api").
				Value(&f.BaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("API token").
				Description("Stored in the system keyring. Leave empty to keep the current token.").
				EchoMode(huh.EchoModePassword).
				Value(&f.Token),
			huh.NewInput().
				Title("Poll interval (seconds)").
				Placeholder("30").
				Value(&f.IntervalSec).
				Validate(validatePositiveInt("Poll interval")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Read-state storage").
				Description("Where acknowledged notifications are remembered").
				Options(
					huh.NewOption("SQLite - local file", model.StorageSQLite),
					huh.NewOption("Redis - shared between machines", model.StorageRedis),
					huh.NewOption("Memory - forget on exit", model.StorageMemory),
				).
				Value(&f.Backend),
			huh.NewInput().
				Title("SQLite path").
				Value(&f.SQLitePath).
				Validate(validateRequired("SQLite path")),
			huh.NewInput().
				Title("Redis address").
				Description("Used by the Redis storage backend and for event signals").
				Placeholder("localhost:6379").
				Value(&f.RedisAddr),
			huh.NewConfirm().
				Title("Listen for backend events on Redis?").
				Value(&f.Events),
		),
	)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., http://localhost:8000/api)")
	}
	return nil
}

func validatePositiveInt(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a number", fieldName)
		}
		if n <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
		return nil
	}
}
