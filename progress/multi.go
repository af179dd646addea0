package progress

import "context"

// MultiSink fans one update out to every configured Sink, so a stage worker
// can keep both the KV record and the relational row moving from a single
// Bridge (§4.9). It never short-circuits the remaining writes, but returns
// only the first error, so the owning Bridge logs that one and errors from
// later sinks are dropped.
type MultiSink []Sink

func (m MultiSink) UpdateProgress(ctx context.Context, jobID string, status string, step string, percent int, message string) error {
	var firstErr error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.UpdateProgress(ctx, jobID, status, step, percent, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
