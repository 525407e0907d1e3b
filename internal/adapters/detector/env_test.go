package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/sitepipe/internal/adapters/detector"
)

func TestDetectLogFormat(t *testing.T) {
	tests := []struct {
		name     string
		ciValue  string
		expected detector.LogFormat
	}{
		{name: "CI=true selects json", ciValue: "true", expected: detector.FormatJSON},
		{name: "CI=1 selects json", ciValue: "1", expected: detector.FormatJSON},
		{name: "CI=false keeps pretty", ciValue: "false", expected: detector.FormatPretty},
		{name: "no CI keeps pretty", ciValue: "", expected: detector.FormatPretty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CI", tt.ciValue)
			// go test never runs with a terminal on stderr.
			assert.Equal(t, tt.expected, detector.DetectLogFormat())
		})
	}
}

func TestResolveLogFormat(t *testing.T) {
	tests := []struct {
		detected detector.LogFormat
		override string
		expected detector.LogFormat
	}{
		{detector.FormatPretty, "json", detector.FormatJSON},
		{detector.FormatJSON, "pretty", detector.FormatPretty},
		{detector.FormatJSON, " Text ", detector.FormatPretty},
		{detector.FormatJSON, "auto", detector.FormatJSON},
		{detector.FormatPretty, "", detector.FormatPretty},
		{detector.FormatPretty, "xml", detector.FormatPretty},
	}

	for _, tt := range tests {
		t.Run(tt.override, func(t *testing.T) {
			assert.Equal(t, tt.expected, detector.ResolveLogFormat(tt.detected, tt.override))
		})
	}
}
