package job

import "context"

// StoreSink adapts a Store to progress.Sink so the progress bridge can write
// through to the KV record without the progress package importing job.
type StoreSink struct {
	Store Store
}

func (s StoreSink) UpdateProgress(ctx context.Context, jobID string, status string, step string, percent int, message string) error {
	pct := percent
	msg := message
	return s.Store.Update(ctx, jobID, Update{
		Status:          Status(status),
		Step:            step,
		ProgressPercent: &pct,
		ProgressMessage: &msg,
	})
}
