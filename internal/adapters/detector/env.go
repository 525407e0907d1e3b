// Package detector inspects the process environment to pick the log format.
package detector

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// EnvLogFormat overrides the detected log format.
const EnvLogFormat = "SITEPIPE_LOG_FORMAT"

// LogFormat is the encoding of log records.
type LogFormat int

const (
	// FormatPretty renders colored, human-readable records.
	FormatPretty LogFormat = iota
	// FormatJSON renders one JSON object per record.
	FormatJSON
)

// DetectLogFormat returns JSON when stderr is not a terminal inside CI,
// and pretty output otherwise.
func DetectLogFormat() LogFormat {
	isTTY := term.IsTerminal(int(os.Stderr.Fd())) //nolint:gosec // Fd fits in int on supported platforms.

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY && isCI {
		return FormatJSON
	}
	return FormatPretty
}

// ResolveLogFormat applies a user override to the detected format.
// override should be one of: "auto", "pretty", "json", or empty.
func ResolveLogFormat(detected LogFormat, override string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case "json":
		return FormatJSON
	case "pretty", "text":
		return FormatPretty
	default:
		return detected
	}
}
