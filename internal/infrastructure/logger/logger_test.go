package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/domain"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerFormatsOutput(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		level      string
		assertions func(t *testing.T, output string)
	}{
		{
			name:   "console format includes message",
			format: "console",
			level:  "info",
			assertions: func(t *testing.T, output string) {
				if !strings.Contains(output, "hello") || strings.HasPrefix(output, "{") {
					t.Fatalf("expected console output with message, got %q", output)
				}
			},
		},
		{
			name:   "json format carries service field",
			format: "json",
			level:  "debug",
			assertions: func(t *testing.T, output string) {
				var decoded map[string]any
				if err := json.Unmarshal([]byte(output), &decoded); err != nil {
					t.Fatalf("expected json output, got %q", output)
				}
				if decoded["service"] != "goexpense" || decoded["message"] != "hello" {
					t.Fatalf("unexpected fields %v", decoded)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Format: tt.format, Level: tt.level, Output: &buf})
			log.Info().Msg("hello")

			if buf.Len() == 0 {
				t.Fatalf("expected log output, got empty string")
			}

			tt.assertions(t, buf.String())
		})
	}
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Level: "warn", Output: &buf})

	log.Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
}

func TestWithContextAddsRequestAndPrincipal(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx := context.WithValue(context.Background(), chimiddleware.RequestIDKey, "req-1")
	ctx = domain.WithPrincipal(ctx, domain.Principal{ID: "u-1", Role: domain.RoleManager})

	log := WithContext(ctx, base)
	log.Info().Msg("scoped")

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["request_id"] != "req-1" || decoded["principal_id"] != "u-1" || decoded["role"] != "MANAGER" {
		t.Fatalf("expected context fields, got %v", decoded)
	}
}

func TestWithContextAnonymous(t *testing.T) {
	var buf bytes.Buffer
	log := WithContext(context.Background(), New(Config{Format: "json", Output: &buf}))
	log.Info().Msg("anon")

	if strings.Contains(buf.String(), "principal_id") || strings.Contains(buf.String(), "request_id") {
		t.Fatalf("expected no context fields, got %q", buf.String())
	}
}
