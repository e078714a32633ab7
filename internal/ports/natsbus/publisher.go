// Package natsbus publishes table state on NATS subjects so spectators and
// companion services can follow a table without holding a session.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"euchre/internal/app"
	"euchre/internal/domain"
	"euchre/internal/ports"
)

const subjectPrefix = "euchre.table"

// PublicSubject carries every public state snapshot of a table.
func PublicSubject(tableID string) string {
	return fmt.Sprintf("%s.%s.public", subjectPrefix, tableID)
}

// HandSubject carries one seat's hand. Only that seat's owner should subscribe.
func HandSubject(tableID string, seat domain.Seat) string {
	return fmt.Sprintf("%s.%s.hands.seat%d", subjectPrefix, tableID, seat)
}

// EventSubject carries public table events.
func EventSubject(tableID string) string {
	return fmt.Sprintf("%s.%s.events", subjectPrefix, tableID)
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher implements ports.StatePublisher over NATS.
type Publisher struct {
	conn Conn
	log  *logrus.Entry
}

// NewPublisher wraps an established connection.
func NewPublisher(conn Conn, log *logrus.Entry) *Publisher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Publisher{conn: conn, log: log.WithField("component", "natsbus")}
}

// Connect dials url and returns a publisher plus the connection to close on shutdown.
func Connect(url string, log *logrus.Entry) (*Publisher, *nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("euchre-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logrus.WithError(err).Warn("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logrus.WithField("url", c.ConnectedUrl()).Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return NewPublisher(nc, log), nc, nil
}

func (p *Publisher) PublishPublicState(ctx context.Context, state app.PublicState) error {
	return p.publish(ctx, PublicSubject(state.TableID), state)
}

func (p *Publisher) PublishPrivateHand(ctx context.Context, tableID string, seat domain.Seat, hand []domain.Card) error {
	if hand == nil {
		hand = []domain.Card{}
	}
	return p.publish(ctx, HandSubject(tableID, seat), hand)
}

// PublishEvent refuses private events; hands travel only on their seat subjects.
func (p *Publisher) PublishEvent(ctx context.Context, tableID string, ev app.Event) error {
	if ev.Private() {
		return nil
	}
	return p.publish(ctx, EventSubject(tableID), ev)
}

func (p *Publisher) publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.WithError(err).WithField("subject", subject).Warn("publish failed")
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.log.WithField("subject", subject).Debug("published")
	return nil
}

var _ ports.StatePublisher = (*Publisher)(nil)
