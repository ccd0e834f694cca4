package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describeValidation(err)
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if err := c.MySideline.validate(); err != nil {
		return fmt.Errorf("mysideline: %w", err)
	}

	return nil
}

func (m *MySidelineConfig) validate() error {
	if _, err := cron.ParseStandard(m.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", m.Schedule, err)
	}
	if _, err := m.Location(); err != nil {
		return fmt.Errorf("timezone %q: %w", m.Timezone, err)
	}

	positive := map[string]time.Duration{
		"timeout":             m.Timeout,
		"retry_backoff":       m.RetryBackoff,
		"staleness_threshold": m.StalenessThreshold,
		"breaker_cooldown":    m.BreakerCooldown,
		"log_retention":       m.LogRetention,
	}
	for name, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0 (got %s)", name, d)
		}
	}
	if m.StartupDelay < 0 {
		return fmt.Errorf("startup_delay must be >= 0 (got %s)", m.StartupDelay)
	}
	if m.RunBudget < 0 {
		return fmt.Errorf("run_budget must be >= 0 (got %s)", m.RunBudget)
	}
	return nil
}

// Location resolves the scheduler timezone. "Local" and "" mean the process
// local time zone.
func (m MySidelineConfig) Location() (*time.Location, error) {
	if m.Timezone == "" || strings.EqualFold(m.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(m.Timezone)
}

// describeValidation turns validator field errors into one readable error.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
