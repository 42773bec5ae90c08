package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// marshalErrors converts scenario error messages to JSON TEXT.
// HTML escaping is off so messages containing <, > or & stay readable.
func marshalErrors(msgs []string) (string, error) {
	if msgs == nil {
		msgs = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msgs); err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalErrors parses JSON TEXT to error messages.
func unmarshalErrors(data string) ([]string, error) {
	msgs := []string{}
	if data == "" || data == "[]" {
		return msgs, nil
	}
	if err := json.Unmarshal([]byte(data), &msgs); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	return msgs, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
