package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyRecord(i int) CallExecutionRecord {
	return CallExecutionRecord{
		ID:       TaskID(fmt.Sprintf("task-%d", i)),
		WorkerID: i,
		Duration: time.Duration(i) * time.Millisecond,
		Outcome:  Finished,
	}
}

func TestExecutionHistory_Empty(t *testing.T) {
	h := newExecutionHistory(10)

	assert.Nil(t, h.Recent(5))
	_, ok := h.Last()
	assert.False(t, ok)
}

func TestExecutionHistory_NewestFirst(t *testing.T) {
	h := newExecutionHistory(10)
	for i := 0; i < 5; i++ {
		h.Add(historyRecord(i))
	}

	recent := h.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, TaskID("task-4"), recent[0].ID)
	assert.Equal(t, TaskID("task-3"), recent[1].ID)
	assert.Equal(t, TaskID("task-2"), recent[2].ID)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, TaskID("task-4"), last.ID)
}

func TestExecutionHistory_WrapsAround(t *testing.T) {
	h := newExecutionHistory(3)
	for i := 0; i < 7; i++ {
		h.Add(historyRecord(i))
	}

	recent := h.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, TaskID("task-6"), recent[0].ID)
	assert.Equal(t, TaskID("task-5"), recent[1].ID)
	assert.Equal(t, TaskID("task-4"), recent[2].ID)
}

func TestExecutionHistory_LimitClamped(t *testing.T) {
	h := newExecutionHistory(10)
	for i := 0; i < 4; i++ {
		h.Add(historyRecord(i))
	}

	assert.Len(t, h.Recent(100), 4)
	assert.Len(t, h.Recent(-1), 4)
}

func TestExecutionHistory_DefaultCapacity(t *testing.T) {
	h := newExecutionHistory(0)
	for i := 0; i < defaultHistoryCapacity+5; i++ {
		h.Add(historyRecord(i))
	}

	assert.Len(t, h.Recent(0), defaultHistoryCapacity)
}
