package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Server.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Message: "listen address is required",
		})
	}

	if c.Server.Root != "" {
		info, err := os.Stat(c.Server.Root)
		switch {
		case err != nil:
			errors = append(errors, ValidationError{
				Field:   "server.root",
				Message: fmt.Sprintf("cannot access served root: %v", err),
			})
		case !info.IsDir():
			errors = append(errors, ValidationError{
				Field:   "server.root",
				Message: "served root must be a directory",
			})
		}
	}

	if c.Server.CacheMaxAge != nil && *c.Server.CacheMaxAge < 0 {
		errors = append(errors, ValidationError{
			Field:   "server.cache_max_age",
			Message: "cache_max_age must not be negative",
		})
	}

	durations := []struct {
		field string
		value string
	}{
		{"server.read_header_timeout", c.Server.ReadHeaderTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"reload.interval", c.Reload.Interval},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil || parsed <= 0 {
			errors = append(errors, ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("invalid duration: %q", d.value),
			})
		}
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level: %s", c.Log.Level),
		})
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: "format must be json or text",
		})
	}

	if c.Reload.Enabled && c.Server.Root == "" {
		errors = append(errors, ValidationError{
			Field:   "reload.enabled",
			Message: "live reload needs an on-disk server.root",
		})
	}

	return errors
}
