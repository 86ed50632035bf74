package core

import (
	"time"

	"github.com/google/uuid"
)

// Result is the value a scheduled call returns to decide its own fate.
type Result uint8

const (
	// Finished: the call is done, drop it from the scheduler.
	Finished Result = iota

	// Repeat: re-insert the call with a recomputed fire time.
	Repeat
)

// String returns a short label for logging.
func (r Result) String() string {
	switch r {
	case Finished:
		return "finished"
	case Repeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// CallFn is the unit of schedulable work. It takes no arguments and reports
// whether it wants to run again.
type CallFn func() Result

// TaskID identifies one scheduled call across log lines and history records.
type TaskID string

// GenerateTaskID returns a new random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.NewString())
}

func (id TaskID) String() string {
	return string(id)
}

// scheduledCall is the scheduler-internal task record. The token is shared
// with the CallHandle returned to the caller.
type scheduledCall struct {
	id       TaskID
	work     CallFn
	token    *callToken
	interval time.Duration
}
