package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/ports"
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher fans triage records out on "<subject>.<urgency level>" so
// consumers can subscribe to e.g. "disaster.triage.records.critical".
type Publisher struct {
	conn    Conn
	subject string
}

var _ ports.RecordPublisher = (*Publisher)(nil)

// NewPublisher wraps an established connection.
func NewPublisher(conn Conn, subject string) *Publisher {
	return &Publisher{conn: conn, subject: subject}
}

// Connect dials NATS with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("disaster-triage"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return conn, nil
}

// Subject returns the subject a record is published on.
func (p *Publisher) Subject(record domain.TriageRecord) string {
	return p.subject + "." + string(record.Urgency.Level)
}

// Publish sends record as JSON.
func (p *Publisher) Publish(ctx context.Context, record domain.TriageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.ID(), err)
	}
	if err := p.conn.Publish(p.Subject(record), data); err != nil {
		return fmt.Errorf("publish record %s: %w", record.ID(), err)
	}
	return nil
}
