// Package notify рассылает владельцу предложения события вовлечённости клиента:
// в WebSocket, во внешний webhook и в шину NATS.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-engine/internal/goroutine"
	"github.com/ignatzorin/proposal-engine/internal/logger"
	"github.com/ignatzorin/proposal-engine/internal/metrics"
)

// DefaultTimeout ограничивает доставку в один канал.
const DefaultTimeout = 10 * time.Second

// Notification адресовано владельцу предложения.
type Notification struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	ProposalID uuid.UUID      `json:"proposal_id"`
	OwnerID    uuid.UUID      `json:"owner_id"`
	VersionID  *uuid.UUID     `json:"version_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// Notifier нужен сценариям подписи и трекинга.
type Notifier interface {
	Notify(n Notification)
}

type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	async   bool
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, timeout: DefaultTimeout, async: true}
}

// NewSyncDispatcher доставляет уведомления в вызывающей горутине. Для тестов и CLI.
func NewSyncDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, timeout: DefaultTimeout, async: false}
}

// Notify отправляет уведомление во все каналы. Ошибки каналов только логируются.
func (d *Dispatcher) Notify(n Notification) {
	if len(d.sinks) == 0 {
		return
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	}

	for _, sink := range d.sinks {
		sink := sink
		if d.async {
			goroutine.SafeGo(func() { d.deliver(sink, n) })
		} else {
			d.deliver(sink, n)
		}
	}
}

func (d *Dispatcher) deliver(sink Sink, n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := sink.Deliver(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(sink.Name(), "error").Inc()
		logger.Log.WithFields(logrus.Fields{
			"sink":        sink.Name(),
			"event":       n.Type,
			"proposal_id": n.ProposalID,
		}).WithError(err).Warn("Не удалось доставить уведомление")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(sink.Name(), "ok").Inc()
}

// Nop ничего не отправляет.
type Nop struct{}

func (Nop) Notify(Notification) {}
