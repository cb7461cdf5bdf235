// config_test.go - Unit Tests fuer die Umgebungs-Konfiguration
package envconfig

import (
	"log/slog"
	"testing"
)

func TestVar(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"plain", "plain"},
		{"  padded  ", "padded"},
		{`"quoted"`, "quoted"},
		{`'single'`, "single"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("FMHA_TEST_VAR", tt.value)
			if got := Var("FMHA_TEST_VAR"); got != tt.want {
				t.Errorf("Var() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestZeroBuffers(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"1", true},
		{"true", true},
		{"0", false},
		{"false", false},
		{"garbage", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("FMHA_ZERO_BUFFERS", tt.value)
			if got := ZeroBuffers(); got != tt.want {
				t.Errorf("ZeroBuffers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeed(t *testing.T) {
	tests := []struct {
		value string
		want  uint64
	}{
		{"", 0},
		{"12345", 12345},
		{"not-a-number", 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("FMHA_SEED", tt.value)
			if got := Seed(); got != tt.want {
				t.Errorf("Seed() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"1", slog.LevelDebug},
		{"true", slog.LevelDebug},
		{"0", slog.LevelInfo},
		{"-1", slog.Level(4)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("FMHA_DEBUG", tt.value)
			if got := LogLevel(); got != tt.want {
				t.Errorf("LogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
