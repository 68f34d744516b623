// Package metrics содержит счётчики Prometheus для публикаций, подписей и событий.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "proposal_engine"

var (
	VersionsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "versions_published_total",
		Help:      "Количество опубликованных версий предложений.",
	})

	PublishRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_retries_total",
		Help:      "Повторные попытки публикации после конфликта уникальности.",
	})

	SignaturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signatures_total",
		Help:      "Результаты обработки подписей.",
	}, []string{"result"})

	SignStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_step_failures_total",
		Help:      "Сбои шагов после сохранения подписи.",
	}, []string{"step"})

	EventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_recorded_total",
		Help:      "Записанные события вовлечённости по типам.",
	}, []string{"type"})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Применённые переходы статуса предложения.",
	}, []string{"to"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Доставка уведомлений владельцу по каналам.",
	}, []string{"sink", "result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP-запросы по маршрутам и кодам ответа.",
	}, []string{"method", "route", "status"})
)
