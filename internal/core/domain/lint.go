package domain

import "fmt"

// Severity is the level of a lint message.
type Severity string

const (
	// SeverityError marks a rule violation configured as an error.
	SeverityError Severity = "error"
	// SeverityWarning marks a rule violation configured as a warning.
	SeverityWarning Severity = "warning"
)

// LintMessage is one finding reported by a linter.
type LintMessage struct {
	File     string
	Line     int
	Column   int
	Severity Severity
	Rule     string
	Text     string
}

func (m LintMessage) String() string {
	s := fmt.Sprintf("%s:%d:%d: %s", m.File, m.Line, m.Column, m.Text)
	if m.Severity != "" {
		s += " [" + string(m.Severity)
		if m.Rule != "" {
			s += "/" + m.Rule
		}
		s += "]"
	}
	return s
}

// LintReport collects the messages of one lint unit.
type LintReport struct {
	Unit     string
	Files    int // scripts handed to the linter
	Messages []LintMessage
}

// Errors counts the error-level messages.
func (r LintReport) Errors() int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity != SeverityWarning {
			n++
		}
	}
	return n
}
