package broker

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/livepeer/clipper-core/log"
	"github.com/livepeer/clipper-core/metrics"
)

// Handler processes one envelope consumed from a queue. Per §4.3, a normal
// return acks the delivery; any error (malformed envelope or handler
// failure) nacks without requeue, routing the message to the DLQ. The
// handler is solely responsible for its own job-store/DB updates before
// returning — the consumer never infers success from the absence of an
// error it didn't see.
type Handler func(env Envelope) error

// Consumer dispatches deliveries from a single queue to a Handler, one at a
// time (prefetch = 1), per §4.3/§5.
type Consumer struct {
	conn  *amqp.Connection
	queue string
}

func NewConsumer(conn *amqp.Connection, queue string) *Consumer {
	return &Consumer{conn: conn, queue: queue}
}

// Consume opens a dedicated channel, sets prefetch=1, and blocks dispatching
// deliveries to handler until the channel or connection closes.
func (c *Consumer) Consume(handler Handler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("broker: open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("broker: set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("broker: consume %s: %w", c.queue, err)
	}

	log.LogNoRequestID("consumer waiting for messages", "queue", c.queue)

	for d := range deliveries {
		var env Envelope
		if err := json.Unmarshal(d.Body, &env); err != nil {
			log.LogNoRequestID("malformed envelope received, routing to DLQ", "queue", c.queue, "err", err)
			metrics.Metrics.DLQDeliveries.WithLabelValues(c.queue, "malformed_envelope").Inc()
			_ = d.Nack(false, false)
			continue
		}

		start := time.Now()
		_, err := recovered(func() (struct{}, error) { return struct{}{}, handler(env) })
		metrics.Metrics.StageDuration.WithLabelValues(c.queue, outcomeLabel(err)).Observe(time.Since(start).Seconds())
		if err != nil {
			log.LogError(env.JobID, fmt.Sprintf("handler failed on queue %s, routing to DLQ", c.queue), err)
			metrics.Metrics.DLQDeliveries.WithLabelValues(c.queue, "handler_error").Inc()
			_ = d.Nack(false, false)
			continue
		}

		_ = d.Ack(false)
	}

	return nil
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// recovered runs f, converting a panic into an error so a single poison
// message can never take down the whole consumer loop. Mirrors the
// panic-safe goroutine wrapper this repo's DAG executor also uses.
func recovered[T any](f func() (T, error)) (t T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.LogNoRequestID("panic in broker handler, recovering", "err", rec, "trace", string(debug.Stack()))
			err = fmt.Errorf("panic in handler: %v", rec)
		}
	}()
	return f()
}
