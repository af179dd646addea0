package broker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/livepeer/clipper-core/log"
)

// Publisher publishes envelopes to the default exchange, routed by queue
// name, with persistent delivery mode (§4.3, §6).
type Publisher struct {
	conn *amqp.Connection
}

func NewPublisher(conn *amqp.Connection) *Publisher {
	return &Publisher{conn: conn}
}

// Publish serializes env as JSON and publishes it persistently to queue.
// It opens a fresh channel per call and closes it before returning, and
// never blocks on a broker-side acknowledgement beyond the write itself.
func (p *Publisher) Publish(ctx context.Context, queue string, env Envelope) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("broker: open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("broker: marshal envelope: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("broker: publish to %s: %w", queue, err)
	}

	log.LogNoRequestID(fmt.Sprintf("published job %s to %s", env.JobID, queue), "step", env.Step)
	return nil
}
