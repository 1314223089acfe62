package usecase

import (
	"context"

	applogger "AfriPulse/pkg/logger"
	"AfriPulse/pkg/queue"
)

// RefreshJobType is the queue message type that triggers a refresh cycle.
const RefreshJobType = "snapshot.refresh"

// RefreshJobPayload carries the (optional) reason for auditing.
type RefreshJobPayload struct {
	Reason string `json:"reason"`
}

// RefreshJob runs a full refresh cycle when dequeued. Requests enqueue the
// job and return immediately; the queue serializes cycles across workers.
type RefreshJob struct {
	refresher *Refresher
	l         *applogger.Logger
}

func NewRefreshJob(refresher *Refresher, l *applogger.Logger) *RefreshJob {
	return &RefreshJob{refresher: refresher, l: l}
}

func (j *RefreshJob) Name() string { return "snapshot-refresh" }
func (j *RefreshJob) Type() string { return RefreshJobType }

func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RefreshJobPayload](payload)
	if err != nil {
		return err
	}
	j.l.Info("refresh job dequeued", applogger.String("reason", p.Reason))
	_, err = j.refresher.Refresh(ctx)
	return err
}

var _ queue.Job = (*RefreshJob)(nil)
