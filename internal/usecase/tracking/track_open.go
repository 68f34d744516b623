package tracking

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/logger"
)

// TrackOpen записывает событие open для пикселя. Любая ошибка проглатывается:
// пиксель отдаётся клиенту всегда.
func (uc *RecordEventUseCase) TrackOpen(ctx context.Context, proposalID string, versionID string, ip, userAgent string) {
	pid, err := uuid.Parse(proposalID)
	if err != nil {
		logger.Log.WithField("pid", proposalID).Debug("Пиксель: некорректный id предложения")
		return
	}

	input := RecordInput{
		ProposalID: pid,
		Type:       string(valueobject.EventTypeOpen),
		Metadata:   map[string]any{"source": "pixel"},
		IP:         ip,
		UserAgent:  userAgent,
	}
	if versionID != "" {
		if vid, err := uuid.Parse(versionID); err == nil {
			input.VersionID = &vid
		}
	}

	if _, err := uc.Execute(ctx, input); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"proposal_id": proposalID,
			"version_id":  versionID,
		}).WithError(err).Debug("Пиксель: событие open не записано")
	}
}
