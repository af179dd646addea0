// Package broker implements the message-broker topology and publish/consume
// primitives described in §4.1/§4.3: durable queues, a dead-letter exchange,
// and a single-delivery-at-a-time consumer with manual ack/nack.
package broker

import "encoding/json"

// Queue names and the dead-letter exchange, stable wire names per §6.
const (
	QueueCollect   = "collect_queue"
	QueueTranscribe = "transcribe_queue"
	QueueAnalyse   = "analyse_queue"
	QueueEdit      = "edit_queue"
	QueueCompleted = "completed_queue"
	QueueDeadLetter = "dead_letter_queue"

	DeadLetterExchange = "dlx"
)

// Envelope is the wire message every queue carries: `{job_id, step, payload}`
// (§6). Payload is kept as raw JSON so each stage can unmarshal into its own
// stage-specific record.
type Envelope struct {
	JobID   string          `json:"job_id"`
	Step    string          `json:"step"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into an Envelope ready for Publish.
func NewEnvelope(jobID, step string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{JobID: jobID, Step: step, Payload: raw}, nil
}

// Decode unmarshals the envelope's payload into v.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}
