package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduleTaskCarriesNoteID(t *testing.T) {
	task, err := NewScheduleTask(42)
	require.NoError(t, err)

	assert.Equal(t, TaskScheduleGeneration, task.Type())

	var payload SchedulePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(42), payload.NoteID)
}

func TestNewOverdueScanTaskHasNoPayload(t *testing.T) {
	task := NewOverdueScanTask()

	assert.Equal(t, TaskOverdueScan, task.Type())
	assert.Empty(t, task.Payload())
}

func TestScheduleHandlerSkipsMalformedPayload(t *testing.T) {
	handler := NewScheduleHandler(nil, nil)

	err := handler(context.Background(), asynq.NewTask(TaskScheduleGeneration, []byte("not json")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}