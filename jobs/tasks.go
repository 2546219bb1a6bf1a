package jobs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/mercantil-erp/mercantil-erp/internal/finance"
	jobmetrics "github.com/mercantil-erp/mercantil-erp/internal/jobs"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskScheduleGeneration materializes the installment schedule of a
	// posted note.
	TaskScheduleGeneration = "finance:schedule"
	// TaskOverdueScan is the daily sweep over open installments.
	TaskOverdueScan = "finance:overdue_scan"
)

// SchedulePayload identifies the note whose schedule should be generated.
type SchedulePayload struct {
	NoteID int64 `json:"note_id"`
}

// NewScheduleTask constructs the schedule-generation task for a note.
func NewScheduleTask(noteID int64) (*asynq.Task, error) {
	data, err := json.Marshal(SchedulePayload{NoteID: noteID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScheduleGeneration, data), nil
}

// NewOverdueScanTask constructs the overdue-scan task. It carries no payload.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskOverdueScan, nil)
}

// NewScheduleHandler processes TaskScheduleGeneration tasks. Turning a draft
// or unknown note into SkipRetry keeps poison messages out of the retry loop;
// generation itself is idempotent, so transient failures are safe to retry.
func NewScheduleHandler(svc *finance.Service, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskScheduleGeneration)
		var payload SchedulePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		err := svc.GenerateSchedule(ctx, payload.NoteID)
		if errors.Is(err, httpx.ErrNotFound) || errors.Is(err, httpx.ErrInvalidStatus) {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		return tracker.End(err)
	}
}

// NewOverdueScanHandler processes TaskOverdueScan tasks.
func NewOverdueScanHandler(svc *finance.Service, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return metrics.Track(TaskOverdueScan).End(svc.OverdueScan(ctx))
	}
}
