package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, true},
		{" warning ", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, ok := ParseLevel(c.in)
			if got != c.want || ok != c.ok {
				t.Fatalf("expected (%v,%v), got (%v,%v)", c.want, c.ok, got, ok)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogTimestamp, "nope")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel || !cfg.NoColor || !cfg.Timestamp {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestNewWritesConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: zerolog.InfoLevel, NoColor: true, Out: &buf})
	l.Debug().Msg("hidden")
	l.Info().Str("entity", "1v0").Msg("attached node")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "attached node") || !strings.Contains(out, "entity=1v0") {
		t.Fatalf("unexpected output %q", out)
	}
}
