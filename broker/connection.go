package broker

import (
	"fmt"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/log"
)

// ConnectRetryBackoff matches §4.3's startup reconnect policy: after the
// first dial, up to 10 reconnect attempts (config.BrokerConnectRetries) with
// a fixed 5-second backoff before surfacing the connection error to the
// caller.
func ConnectRetryBackoff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(config.BrokerConnectBackoff), config.BrokerConnectRetries)
}

// Dial opens an AMQP connection to url, retrying per ConnectRetryBackoff.
// This is a transport error per §7 kind 1: if every attempt fails, the error
// is surfaced as fatal rather than silently swallowed.
func Dial(url string) (*amqp.Connection, error) {
	var conn *amqp.Connection
	err := backoff.Retry(func() error {
		var dialErr error
		conn, dialErr = amqp.Dial(url)
		if dialErr != nil {
			log.LogNoRequestID("failed to connect to broker, retrying", "err", dialErr)
			return dialErr
		}
		return nil
	}, ConnectRetryBackoff())
	if err != nil {
		return nil, fmt.Errorf("broker: failed to connect after retries: %w", err)
	}
	return conn, nil
}
