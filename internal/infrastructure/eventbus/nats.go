// Package eventbus публикует события предложений в NATS.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ignatzorin/proposal-engine/internal/logger"
	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
)

// События уходят в proposals.events.<type>.
const SubjectPrefix = "proposals.events."

// Conn покрывает часть *nats.Conn, нужную публикатору.
type Conn interface {
	Publish(subject string, data []byte) error
}

type Publisher struct {
	conn Conn
}

func NewPublisher(conn Conn) *Publisher {
	return &Publisher{conn: conn}
}

// Connect подключается к NATS с переподключением.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("proposal-engine"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Log.WithError(err).Warn("NATS: соединение потеряно")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Log.WithField("url", c.ConnectedUrl()).Info("NATS: соединение восстановлено")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("eventbus: подключение к NATS: %w", err)
	}
	return conn, nil
}

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

func (p *Publisher) Name() string { return "nats" }

// Deliver публикует уведомление. Publish в nats.go не принимает контекст,
// поэтому отмена проверяется до отправки.
func (p *Publisher) Deliver(ctx context.Context, n notify.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("eventbus: сериализация: %w", err)
	}
	if err := p.conn.Publish(Subject(n.Type), data); err != nil {
		return fmt.Errorf("eventbus: публикация: %w", err)
	}
	return nil
}
