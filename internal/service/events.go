package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Domain event names published on the NATS bus.
const (
	EventEnrollmentCreated = "enrollment.created"
	EventCoursePublished   = "course.published"
	EventSubmissionGraded  = "submission.graded"
)

// EventPublisher emits domain events for downstream consumers. Publishing is
// best-effort: failures are logged and never propagate into the request path.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

type natsEventPublisher struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
	now         func() time.Time
}

type eventEnvelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

// NewEventPublisher constructs a NATS-backed publisher. A nil connection
// yields a publisher that silently drops events, which keeps call sites free
// of nil checks when NATS is not configured.
func NewEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) EventPublisher {
	base := strings.Trim(strings.ReplaceAll(subjectBase, ":", "."), ".")
	if base == "" {
		base = "lumina"
	}

	return &natsEventPublisher{
		conn:        conn,
		subjectBase: base,
		logger:      logger.With().Str("component", "event_publisher").Logger(),
		now:         time.Now,
	}
}

func (p *natsEventPublisher) Publish(event string, payload interface{}) {
	if p.conn == nil {
		return
	}

	body, err := json.Marshal(eventEnvelope{
		Event:   event,
		Payload: payload,
		SentAt:  p.now().UTC(),
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("event", event).Msg("failed to marshal event payload")
		return
	}

	subject := p.subjectBase + "." + event
	if err := p.conn.Publish(subject, body); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
