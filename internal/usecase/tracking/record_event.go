package tracking

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/logger"
	"github.com/ignatzorin/proposal-engine/internal/metrics"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
	"github.com/ignatzorin/proposal-engine/internal/validation"
)

// maxMetadataBytes ограничивает размер метаданных одного события.
const maxMetadataBytes = 16 * 1024

type RecordInput struct {
	ProposalID uuid.UUID
	VersionID  *uuid.UUID
	Type       string
	Metadata   map[string]any
	IP         string
	UserAgent  string
}

// RecordResult: записанное событие и применённый переход статуса, если был.
type RecordResult struct {
	Event      *entity.ProposalEvent
	Transition *valueobject.ProposalStatus
}

type RecordEventUseCase struct {
	proposalRepo repository.ProposalRepository
	versionRepo  repository.VersionRepository
	eventRepo    repository.EventRepository
	notifier     notify.Notifier
}

func NewRecordEventUseCase(
	proposalRepo repository.ProposalRepository,
	versionRepo repository.VersionRepository,
	eventRepo repository.EventRepository,
	notifier notify.Notifier,
) *RecordEventUseCase {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &RecordEventUseCase{
		proposalRepo: proposalRepo,
		versionRepo:  versionRepo,
		eventRepo:    eventRepo,
		notifier:     notifier,
	}
}

// Execute сначала сохраняет событие, затем пробует условный переход статуса.
// Ошибка перехода только логируется: журнал важнее статуса.
func (uc *RecordEventUseCase) Execute(ctx context.Context, input RecordInput) (*RecordResult, error) {
	eventType, err := valueobject.NewEventType(strings.TrimSpace(input.Type))
	if err != nil {
		return nil, err
	}
	if err := validateMetadata(input.Metadata); err != nil {
		return nil, err
	}

	proposal, err := uc.proposalRepo.FindByID(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	if input.VersionID != nil {
		version, err := uc.versionRepo.FindByID(ctx, *input.VersionID)
		if err != nil {
			return nil, err
		}
		if !version.BelongsTo(proposal.ID) {
			return nil, apperror.ErrVersionNotFound
		}
	}

	userAgent := input.UserAgent
	if len(userAgent) > validation.MaxUserAgentLength {
		userAgent = userAgent[:validation.MaxUserAgentLength]
	}

	event := entity.NewProposalEvent(proposal.ID, input.VersionID, eventType, input.Metadata, input.IP, userAgent)
	if err := uc.eventRepo.Append(ctx, event); err != nil {
		return nil, err
	}
	metrics.EventsRecorded.WithLabelValues(string(eventType)).Inc()

	result := &RecordResult{Event: event}
	log := logger.Log.WithFields(logrus.Fields{
		"proposal_id": proposal.ID,
		"event_id":    event.ID,
		"event_type":  eventType,
	})

	if transition, ok := eventType.StatusTransition(); ok {
		changed, err := uc.proposalRepo.CompareAndSetStatus(ctx, proposal.ID, transition.From, transition.To)
		switch {
		case err != nil:
			log.WithError(err).Warn("Не удалось применить переход статуса по событию")
		case changed:
			to := transition.To
			result.Transition = &to
			metrics.StatusTransitions.WithLabelValues(string(to)).Inc()
			log.WithField("status", to).Info("Статус предложения изменён событием")
		default:
			log.Debug("Переход статуса не применён: текущий статус не подходит")
		}
	}

	uc.notifier.Notify(notify.Notification{
		ID:         event.ID,
		Type:       string(eventType),
		ProposalID: proposal.ID,
		OwnerID:    proposal.OwnerID,
		VersionID:  event.VersionID,
		Metadata:   event.Metadata,
		OccurredAt: event.CreatedAt,
	})

	return result, nil
}

func validateMetadata(metadata map[string]any) error {
	if len(metadata) == 0 {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return apperror.Validation("metadata", "метаданные должны быть JSON-объектом")
	}
	if len(raw) > maxMetadataBytes {
		return apperror.Validation("metadata", "метаданные слишком большие")
	}
	return nil
}
