package config

import (
	"errors"
	"fmt"
	"redditslacker/pkg/logger"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownSetting = errors.New("configuration parameter not found")
	ErrInvalidValue   = errors.New("invalid configuration value")
)

// setter parses value and returns the mutation to apply.
type setter func(value string) (func(cfg *Config), error)

var setters = map[string]setter{
	"comment_warning_threshold":         intSetter(func(c *Config) *int { return &c.Thresholds.Comments.Warning }),
	"comment_warning_threshold_high":    intSetter(func(c *Config) *int { return &c.Thresholds.Comments.High }),
	"submission_warning_threshold":      intSetter(func(c *Config) *int { return &c.Thresholds.Submissions.Warning }),
	"submission_warning_threshold_high": intSetter(func(c *Config) *int { return &c.Thresholds.Submissions.High }),
	"ban_warning_threshold":             intSetter(func(c *Config) *int { return &c.Thresholds.Bans.Warning }),
	"ban_warning_threshold_high":        intSetter(func(c *Config) *int { return &c.Thresholds.Bans.High }),

	"monitor_comments":   boolSetter(func(c *Config) *bool { return &c.Monitor.Comments.Enabled }),
	"monitor_modlog":     boolSetter(func(c *Config) *bool { return &c.Monitor.ModLog.Enabled }),
	"monitor_modmail":    boolSetter(func(c *Config) *bool { return &c.Monitor.Modmail.Enabled }),
	"remove_unflaired":   boolSetter(func(c *Config) *bool { return &c.Monitor.Unflaired.Enabled }),
	"shadowbans_enabled": boolSetter(func(c *Config) *bool { return &c.Shadowban.Enabled }),
	"dry_run":            boolSetter(func(c *Config) *bool { return &c.App.DryRun }),

	"log_level": func(value string) (func(cfg *Config), error) {
		if !logger.ValidLevel(value) {
			return nil, fmt.Errorf("%w: log_level %q", ErrInvalidValue, value)
		}
		return func(cfg *Config) { cfg.App.LogLevel = strings.ToLower(value) }, nil
	},
}

// Set applies a single /rsconfig change by name and persists it.
func (m *Manager) Set(name, value string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	value = strings.TrimSpace(value)

	fn, ok := setters[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}

	apply, err := fn(value)
	if err != nil {
		return err
	}

	if err := m.Update(apply); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

// SettingNames lists every name accepted by Set.
func SettingNames() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func intSetter(field func(*Config) *int) setter {
	return func(value string) (func(cfg *Config), error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: expected a non-negative integer, got %q", ErrInvalidValue, value)
		}
		return func(cfg *Config) { *field(cfg) = n }, nil
	}
}

func boolSetter(field func(*Config) *bool) setter {
	return func(value string) (func(cfg *Config), error) {
		b, ok := parseBool(value)
		if !ok {
			return nil, fmt.Errorf("%w: expected true or false, got %q", ErrInvalidValue, value)
		}
		return func(cfg *Config) { *field(cfg) = b }, nil
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0":
		return false, true
	}
	return false, false
}
