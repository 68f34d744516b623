package signature

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/logger"
	"github.com/ignatzorin/proposal-engine/internal/metrics"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/service"
	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
	"github.com/ignatzorin/proposal-engine/internal/validation"
)

// Шаги после сохранения подписи.
const (
	StepProposalStatus = "proposal_status"
	StepVersionStatus  = "version_status"
	StepEvent          = "signature_complete_event"
)

var errStatusNotChanged = errors.New("статус предложения не sent и не viewed")

type SignInput struct {
	ProposalID    uuid.UUID
	VersionID     uuid.UUID
	SignerName    string
	SignerEmail   string
	Method        string
	SignatureData string
	IP            string
	UserAgent     string
}

// StepOutcome фиксирует результат шага после сохранения подписи. Ошибка шага не отменяет подпись.
type StepOutcome struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type SignResult struct {
	Signature *entity.ProposalSignature
	// Created = false, если версия уже была подписана и вернулась существующая подпись.
	Created bool
	Steps   []StepOutcome
}

type SignProposalUseCase struct {
	proposalRepo  repository.ProposalRepository
	versionRepo   repository.VersionRepository
	signatureRepo repository.SignatureRepository
	eventRepo     repository.EventRepository
	notifier      notify.Notifier
	cache         *service.CacheService
	now           func() time.Time
}

func NewSignProposalUseCase(
	proposalRepo repository.ProposalRepository,
	versionRepo repository.VersionRepository,
	signatureRepo repository.SignatureRepository,
	eventRepo repository.EventRepository,
	notifier notify.Notifier,
) *SignProposalUseCase {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &SignProposalUseCase{
		proposalRepo:  proposalRepo,
		versionRepo:   versionRepo,
		signatureRepo: signatureRepo,
		eventRepo:     eventRepo,
		notifier:      notifier,
		now:           time.Now,
	}
}

// WithCache задаёт кэш публичных версий, который сбрасывается после подписи.
func (uc *SignProposalUseCase) WithCache(cache *service.CacheService) *SignProposalUseCase {
	uc.cache = cache
	return uc
}

// WithClock подменяет часы. Используется в тестах.
func (uc *SignProposalUseCase) WithClock(now func() time.Time) *SignProposalUseCase {
	uc.now = now
	return uc
}

func (uc *SignProposalUseCase) Execute(ctx context.Context, input SignInput) (*SignResult, error) {
	method, err := validateInput(&input)
	if err != nil {
		metrics.SignaturesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	version, err := uc.versionRepo.FindByID(ctx, input.VersionID)
	if err != nil {
		return nil, err
	}
	if !version.BelongsTo(input.ProposalID) {
		return nil, apperror.ErrVersionNotFound
	}

	proposal, err := uc.proposalRepo.FindByID(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}

	if existing, ok, err := uc.existingSignature(ctx, version.ID); err != nil {
		return nil, err
	} else if ok {
		metrics.SignaturesTotal.WithLabelValues("repeat").Inc()
		return &SignResult{Signature: existing, Created: false}, nil
	}

	now := uc.now().UTC()
	if proposal.IsExpired(now) {
		metrics.SignaturesTotal.WithLabelValues("expired").Inc()
		return nil, apperror.ErrProposalExpired
	}
	switch proposal.Status {
	case valueobject.ProposalStatusRejected:
		return nil, apperror.ErrProposalRejected
	case valueobject.ProposalStatusSigned:
		return nil, apperror.ErrAlreadySignedOther
	}

	signature := &entity.ProposalSignature{
		ID:            uuid.New(),
		ProposalID:    proposal.ID,
		VersionID:     version.ID,
		SignerName:    input.SignerName,
		SignerEmail:   input.SignerEmail,
		Method:        method,
		SignatureData: input.SignatureData,
		SignedAt:      now,
		IP:            input.IP,
		Hash:          entity.ContentHash(version.SnapshotDocument),
	}

	if err := uc.signatureRepo.Create(ctx, signature); err != nil {
		if !apperror.IsConflict(err) {
			return nil, err
		}
		// Параллельная подпись успела раньше.
		if existing, ok, findErr := uc.existingSignature(ctx, version.ID); findErr == nil && ok {
			metrics.SignaturesTotal.WithLabelValues("repeat").Inc()
			return &SignResult{Signature: existing, Created: false}, nil
		}
		return nil, apperror.ErrAlreadySignedOther
	}

	log := logger.Log.WithFields(logrus.Fields{
		"proposal_id":  proposal.ID,
		"version_id":   version.ID,
		"signature_id": signature.ID,
	})
	log.Info("Предложение подписано")
	metrics.SignaturesTotal.WithLabelValues("created").Inc()

	steps := []StepOutcome{
		uc.runStep(log, StepProposalStatus, func() error {
			changed, err := uc.proposalRepo.CompareAndSetStatus(ctx, proposal.ID,
				[]valueobject.ProposalStatus{valueobject.ProposalStatusSent, valueobject.ProposalStatusViewed},
				valueobject.ProposalStatusSigned)
			if err != nil {
				return err
			}
			if !changed {
				return errStatusNotChanged
			}
			metrics.StatusTransitions.WithLabelValues(string(valueobject.ProposalStatusSigned)).Inc()
			return nil
		}),
		uc.runStep(log, StepVersionStatus, func() error {
			err := uc.versionRepo.MarkSigned(ctx, version.ID)
			if uc.cache != nil {
				uc.cache.Delete(service.PublicVersionCacheKey(version.PublicToken))
			}
			return err
		}),
		uc.runStep(log, StepEvent, func() error {
			return uc.eventRepo.Append(ctx, entity.NewProposalEvent(proposal.ID, &version.ID,
				valueobject.EventTypeSignatureComplete, signerMetadata(signature), input.IP, input.UserAgent))
		}),
	}

	versionID := version.ID
	uc.notifier.Notify(notify.Notification{
		Type:       string(valueobject.EventTypeSignatureComplete),
		ProposalID: proposal.ID,
		OwnerID:    proposal.OwnerID,
		VersionID:  &versionID,
		Metadata:   signerMetadata(signature),
		OccurredAt: now,
	})

	return &SignResult{Signature: signature, Created: true, Steps: steps}, nil
}

func (uc *SignProposalUseCase) existingSignature(ctx context.Context, versionID uuid.UUID) (*entity.ProposalSignature, bool, error) {
	existing, err := uc.signatureRepo.FindByVersionID(ctx, versionID)
	if apperror.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return existing, true, nil
}

func (uc *SignProposalUseCase) runStep(log *logrus.Entry, step string, fn func() error) StepOutcome {
	if err := fn(); err != nil {
		metrics.SignStepFailures.WithLabelValues(step).Inc()
		log.WithField("step", step).WithError(err).Error("Шаг после подписи не выполнен")
		return StepOutcome{Step: step, OK: false, Error: err.Error()}
	}
	return StepOutcome{Step: step, OK: true}
}

// signerMetadata не содержит саму подпись: она хранится только в записи подписи.
func signerMetadata(s *entity.ProposalSignature) map[string]any {
	return map[string]any{
		"signature_id": s.ID.String(),
		"signer_name":  s.SignerName,
		"signer_email": s.SignerEmail,
		"method":       string(s.Method),
	}
}

func validateInput(input *SignInput) (entity.SignatureMethod, error) {
	input.SignerName = strings.TrimSpace(input.SignerName)
	input.SignerEmail = strings.ToLower(strings.TrimSpace(input.SignerEmail))
	input.SignatureData = strings.TrimSpace(input.SignatureData)

	fields := map[string]string{}
	if err := validation.ValidateSignerName(input.SignerName); err != nil {
		fields["signer_name"] = err.Error()
	}
	if err := validation.ValidateEmail(input.SignerEmail); err != nil {
		fields["signer_email"] = err.Error()
	}

	method := entity.SignatureMethod(strings.ToLower(strings.TrimSpace(input.Method)))
	if !method.IsValid() {
		fields["method"] = "метод подписи должен быть typed, drawn или click"
	}

	if err := validation.ValidateNonEmpty("данные подписи", input.SignatureData); err != nil {
		fields["signature_data"] = err.Error()
	} else {
		switch method {
		case entity.SignatureMethodDrawn:
			if err := validation.ValidateSignatureImage(input.SignatureData); err != nil {
				fields["signature_data"] = err.Error()
			}
		case entity.SignatureMethodTyped:
			if err := validation.ValidateLength("данные подписи", input.SignatureData, 0, validation.MaxTypedSignature); err != nil {
				fields["signature_data"] = err.Error()
			}
		}
	}

	if len(input.UserAgent) > validation.MaxUserAgentLength {
		input.UserAgent = input.UserAgent[:validation.MaxUserAgentLength]
	}

	if len(fields) > 0 {
		err := apperror.New(apperror.ErrCodeValidation, "некорректные данные подписи")
		err.Fields = fields
		return "", err
	}
	return method, nil
}
