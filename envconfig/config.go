// config.go - Konfigurationsfunktionen ueber Umgebungsvariablen
//
// Dieses Modul enthaelt:
// - LogLevel: Gibt Log-Level zurueck (FMHA_DEBUG)
// - Seed: Seed fuer den geteilten Zufallsgenerator (FMHA_SEED)
// - ZeroBuffers: Erzwingt Puffer-Nullung (FMHA_ZERO_BUFFERS)
// - Bool/Uint64/Var: Utility-Getter
// - AsMap/Values: Export aller Konfigurationen
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	return func() bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return false
	}
}

// Uint64 gibt eine Funktion zurueck, die einen uint64 mit Default-Wert liest
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

var (
	// ZeroBuffers forces pre-zeroing of all launch buffers regardless of
	// the per-call option, a debugging aid for uninitialized-read hunts.
	ZeroBuffers = Bool("FMHA_ZERO_BUFFERS")

	// Seed overrides the seed of the shared dropout generator. 0 means
	// seed from system entropy.
	Seed = Uint64("FMHA_SEED", 0)
)

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via FMHA_DEBUG (bool oder numerisches slog-Level)
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("FMHA_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// EnvVar beschreibt eine Umgebungsvariable fuer Dokumentation und Export
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"FMHA_DEBUG":        {"FMHA_DEBUG", LogLevel(), "Show additional debug information (e.g. FMHA_DEBUG=1)"},
		"FMHA_SEED":         {"FMHA_SEED", Seed(), "Seed for the shared dropout generator (default: system entropy)"},
		"FMHA_ZERO_BUFFERS": {"FMHA_ZERO_BUFFERS", ZeroBuffers(), "Zero all launch buffers before submission"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
