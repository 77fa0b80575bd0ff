package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.lookup(key); ok {
		*dst = v
	}
}

func (r *envReader) duration(key string, dst *time.Duration) {
	if v, ok := r.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
}

func (r *envReader) integer(key string, dst *int) {
	if v, ok := r.lookup(key); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = i
	}
}

func (r *envReader) float(key string, dst *float64) {
	if v, ok := r.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	if v, ok := r.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
}

func (r *envReader) list(key string, dst *[]string) {
	if v, ok := r.lookup(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func mergeEnv(cfg *Config) error {
	r := &envReader{}

	r.str("PORT", &cfg.Port)
	r.str("SQLITE_PATH", &cfg.SQLitePath)
	r.str("DATABASE_PATH", &cfg.DatabasePath)
	r.str("LOG_LEVEL", &cfg.LogLevel)

	r.duration("PAIRING_TTL", &cfg.Pairing.TTL)
	r.duration("PAIRING_WAIT", &cfg.Pairing.Wait)

	r.duration("RECONNECT_BASE", &cfg.Reconnect.Base)
	r.float("RECONNECT_GROWTH", &cfg.Reconnect.Growth)
	r.duration("RECONNECT_CAP", &cfg.Reconnect.Cap)
	r.boolean("RETRY_AFTER_LOGOUT", &cfg.Reconnect.RetryAfterLogout)

	r.duration("SEND_INTERVAL", &cfg.Send.Interval)
	r.integer("SEND_BURST", &cfg.Send.Burst)
	r.duration("BATCH_DELAY", &cfg.Send.BatchDelay)
	r.duration("FANOUT_DELAY", &cfg.Send.FanoutDelay)

	r.boolean("AUTH_ENABLED", &cfg.HTTP.AuthEnabled)
	r.list("CORS_ORIGINS", &cfg.HTTP.CORSOrigins)

	r.integer("MEDIA_CACHE_SIZE", &cfg.MediaCacheSize)
	r.integer("JOB_CACHE_SIZE", &cfg.JobCacheSize)

	if len(r.errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(r.errs...))
	}
	return nil
}
