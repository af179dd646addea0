package broker

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/livepeer/clipper-core/log"
)

// primaryQueues are the four queues with a DLX binding. completed_queue is
// declared separately — it's terminal and purely informational (§4.1).
var primaryQueues = []string{QueueCollect, QueueTranscribe, QueueAnalyse, QueueEdit}

// Topology declares the broker's durable queue/exchange layout. Declaration
// parameters (durability, DLX routing key) are part of the external
// contract: a mismatched redeclaration against a live broker is fatal, so
// DeclareInfrastructure must be called with exactly these arguments every
// time (§4.1).
type Topology struct {
	conn *amqp.Connection
}

func NewTopology(conn *amqp.Connection) *Topology {
	return &Topology{conn: conn}
}

// DeclareInfrastructure declares the dead-letter exchange/queue, the four
// DLX-bound primary queues, and the terminal completed_queue. Calling it
// repeatedly on a live broker is a no-op (R1): AMQP queue/exchange
// declaration is itself idempotent as long as the arguments never change.
func (t *Topology) DeclareInfrastructure() error {
	ch, err := t.conn.Channel()
	if err != nil {
		return fmt.Errorf("broker: open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("broker: declare dlx exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueDeadLetter, true, false, false, false, nil); err != nil {
		return fmt.Errorf("broker: declare dead letter queue: %w", err)
	}

	if err := ch.QueueBind(QueueDeadLetter, "", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("broker: bind dead letter queue: %w", err)
	}

	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    DeadLetterExchange,
		"x-dead-letter-routing-key": "",
	}

	for _, q := range primaryQueues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, dlqArgs); err != nil {
			return fmt.Errorf("broker: declare queue %s: %w", q, err)
		}
	}

	if _, err := ch.QueueDeclare(QueueCompleted, true, false, false, false, nil); err != nil {
		return fmt.Errorf("broker: declare queue %s: %w", QueueCompleted, err)
	}

	log.LogNoRequestID("broker infrastructure declared and ready")
	return nil
}
