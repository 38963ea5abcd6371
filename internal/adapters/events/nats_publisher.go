// Package events publishes outbound API-traffic telemetry, the
// substitute for the original Kafka interceptor documented in DESIGN.md:
// the pack carries no Kafka client, so this adapter uses NATS, the
// ecosystem pub/sub library the rest of _examples/ reaches for, to fill
// the same "fire interceptor, publish off-process" role spec.md §6
// describes.
package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/kestrel-systems/fleetcore/internal/adapters/api"
)

// requestEventPayload is the JSON shape published to the topic, mirroring
// the interceptor tuple spec.md §6 names: (slice_id, request_id, method,
// path, status, requestBody, responseBody).
type requestEventPayload struct {
	SliceID      string          `json:"slice_id"`
	RequestID    int64           `json:"request_id"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Status       int             `json:"status"`
	RequestBody  json.RawMessage `json:"request_body,omitempty"`
	ResponseBody json.RawMessage `json:"response_body,omitempty"`
}

// NATSPublisher implements api.EventInterceptor by publishing each event
// as JSON to a subject. Publish failures are logged, never surfaced to
// the caller: instrumentation must not block gameplay.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *log.Logger
}

// NewNATSPublisher connects to url (empty uses the default local NATS
// address) and returns a publisher for subject, defaulting to the
// "api-requests" subject spec.md §6 names for the Kafka topic.
func NewNATSPublisher(url, subject string, logger *log.Logger) (*NATSPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if subject == "" {
		subject = "api-requests"
	}
	conn, err := nats.Connect(url, nats.Name("fleetcore-api-interceptor"))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}, nil
}

func (p *NATSPublisher) Intercept(_ context.Context, event api.RequestEvent) {
	payload := requestEventPayload{
		SliceID: event.SliceID, RequestID: event.RequestID, Method: event.Method,
		Path: event.Path, Status: event.Status,
		RequestBody: json.RawMessage(nonEmptyOrNull(event.RequestBody)),
		ResponseBody: json.RawMessage(nonEmptyOrNull(event.ResponseBody)),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Printf("events: marshal request event: %v", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Printf("events: publish request event: %v", err)
	}
}

func (p *NATSPublisher) Close() {
	p.conn.Drain()
}

func nonEmptyOrNull(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
