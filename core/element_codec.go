package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// elementSeparator delimits the fields of a serialized element.
const elementSeparator = ':'

// Element kinds recognized by the codec. Pulse and alarm are reserved for
// future entity categories and currently fail deserialization.
const (
	elementKindTimer = "timer"
	elementKindPulse = "pulse"
	elementKindAlarm = "alarm"
)

var (
	// ErrUnknownElementKind is returned when a serialized element does not
	// start with a recognized kind.
	ErrUnknownElementKind = errors.New("type not one of timer-pulse-alarm")

	// ErrReservedElementKind is returned for recognized kinds that have no
	// implementation yet.
	ErrReservedElementKind = errors.New("pulse and alarm elements are not supported")
)

// timerElement is the wire representation of one timer:
//
//	timer:<name>:<resolution_ms>:<duration_ms>:<remaining_ms>:<repeating>:<active>
//
// Durations are decimal milliseconds, the flags are "0" or "1" and the name
// may not be empty or contain the separator.
type timerElement struct {
	name       string
	resolution time.Duration
	duration   time.Duration
	remaining  time.Duration
	repeating  bool
	active     bool
}

const timerElementFields = 7

// String renders the element in wire format.
func (e timerElement) String() string {
	return fmt.Sprintf("%s:%s:%d:%d:%d:%s:%s",
		elementKindTimer,
		e.name,
		e.resolution.Milliseconds(),
		e.duration.Milliseconds(),
		e.remaining.Milliseconds(),
		flagString(e.repeating),
		flagString(e.active))
}

// parseTimerElement decodes one serialized element. Unknown kinds, reserved
// kinds and malformed timer fields all produce an error.
func parseTimerElement(raw string) (timerElement, error) {
	fields := strings.Split(raw, string(elementSeparator))

	switch fields[0] {
	case elementKindTimer:
	case elementKindPulse, elementKindAlarm:
		return timerElement{}, ErrReservedElementKind
	default:
		return timerElement{}, ErrUnknownElementKind
	}

	if len(fields) != timerElementFields {
		return timerElement{}, fmt.Errorf("malformed timer element %q: want %d fields, got %d",
			raw, timerElementFields, len(fields))
	}

	name := fields[1]
	if name == "" {
		return timerElement{}, fmt.Errorf("malformed timer element %q: empty name", raw)
	}

	resolution, err := parseMillis(fields[2])
	if err != nil {
		return timerElement{}, fmt.Errorf("malformed timer element %q: resolution: %w", raw, err)
	}
	duration, err := parseMillis(fields[3])
	if err != nil {
		return timerElement{}, fmt.Errorf("malformed timer element %q: duration: %w", raw, err)
	}
	remaining, err := parseMillis(fields[4])
	if err != nil {
		return timerElement{}, fmt.Errorf("malformed timer element %q: remaining: %w", raw, err)
	}

	repeating, err := parseFlag(fields[5])
	if err != nil {
		return timerElement{}, fmt.Errorf("malformed timer element %q: repeating: %w", raw, err)
	}
	active, err := parseFlag(fields[6])
	if err != nil {
		return timerElement{}, fmt.Errorf("malformed timer element %q: active: %w", raw, err)
	}

	if resolution <= 0 {
		return timerElement{}, fmt.Errorf("malformed timer element %q: resolution must be positive", raw)
	}
	if duration < resolution {
		return timerElement{}, fmt.Errorf("malformed timer element %q: duration shorter than resolution", raw)
	}

	return timerElement{
		name:       name,
		resolution: resolution,
		duration:   duration,
		remaining:  remaining,
		repeating:  repeating,
		active:     active,
	}, nil
}

func duplicateElementError(name string) error {
	return fmt.Errorf("duplicate timer element %q", name)
}

func parseMillis(s string) (time.Duration, error) {
	ms, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("flag %q is not 0 or 1", s)
}

func flagString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
