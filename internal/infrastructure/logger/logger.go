package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/domain"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console

	// Output defaults to os.Stdout.
	Output io.Writer
}

// New creates a new zerolog logger based on config.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.Output != nil,
		}
	}

	level := parseLevel(cfg.Level)

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "goexpense").
		Logger()
}

// WithContext returns base enriched with the request id and the
// authenticated principal carried by ctx.
func WithContext(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	lc := base.With()

	if requestID := chimiddleware.GetReqID(ctx); requestID != "" {
		lc = lc.Str("request_id", requestID)
	}

	if p := domain.PrincipalFromContext(ctx); p.IsAuthenticated() {
		lc = lc.Str("principal_id", p.ID).Str("role", string(p.Role))
	}

	return lc.Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
