package config

import "strings"

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// DefaultNote is injected when TM_ADD_NOTE is set and no explicit note was
// given.
const DefaultNote = "Validation replay removed for redistribution."

// ResolveNote applies the note precedence: explicit CLI note, then the
// environment fallback, then the fixed default when AddDefaultNote is set.
func (c Config) ResolveNote(cliNote string) string {
	if note := strings.TrimSpace(cliNote); note != "" {
		return note
	}
	if note := strings.TrimSpace(c.Note); note != "" {
		return note
	}
	if c.AddDefaultNote {
		return DefaultNote
	}
	return ""
}
