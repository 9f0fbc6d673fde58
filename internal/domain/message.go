package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidMessage marks a raw message rejected at the pipeline boundary.
var ErrInvalidMessage = errors.New("invalid message")

// Source identifies which collector produced a raw message.
type Source string

const (
	SourcePrimaryAPI   Source = "primary-api"
	SourceSecondaryAPI Source = "secondary-api"
	SourceSimulated    Source = "simulated"
)

// Valid reports whether s is one of the known collector sources.
func (s Source) Valid() bool {
	switch s {
	case SourcePrimaryAPI, SourceSecondaryAPI, SourceSimulated:
		return true
	default:
		return false
	}
}

// ParseSource maps a config or wire value to a Source.
func ParseSource(value string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown source %q", ErrInvalidMessage, value)
	}
	return s, nil
}

// RawMessage is a short free-text report as delivered by a collector.
// It is immutable once ingested.
type RawMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Source    Source    `json:"source"`
	Author    string    `json:"author,omitempty"`
}

// Validate rejects malformed records instead of coercing them.
func (m RawMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidMessage)
	}
	if !utf8.ValidString(m.Text) {
		return fmt.Errorf("%w: message %s: text is not valid UTF-8", ErrInvalidMessage, m.ID)
	}
	if !m.Source.Valid() {
		return fmt.Errorf("%w: message %s: unknown source %q", ErrInvalidMessage, m.ID, m.Source)
	}
	return nil
}
