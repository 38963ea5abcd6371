package api

import "context"

// RequestEvent is the payload handed to an EventInterceptor after every API
// round trip, grounded on spec.md §6's outbound event stream: "On each API
// response the core calls an interceptor with (slice_id, request_id,
// method, path, status, requestBody, responseBody)".
type RequestEvent struct {
	SliceID      string
	RequestID    int64
	Method       string
	Path         string
	Status       int
	RequestBody  []byte
	ResponseBody []byte
}

// EventInterceptor observes outbound API traffic without participating in
// it; a failing or slow interceptor must never block the request it is
// reporting on, so implementations should hand off to a buffered channel
// or a fire-and-forget publish.
type EventInterceptor interface {
	Intercept(ctx context.Context, event RequestEvent)
}

// NoopInterceptor discards every event. Used when no downstream consumer
// (KAFKA_URL unset) is configured.
type NoopInterceptor struct{}

func (NoopInterceptor) Intercept(context.Context, RequestEvent) {}
