package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
)

type EventRepositoryAdapter struct {
	db *sqlx.DB
}

func NewEventRepositoryAdapter(db *sqlx.DB) *EventRepositoryAdapter {
	return &EventRepositoryAdapter{db: db}
}

func (r *EventRepositoryAdapter) Append(ctx context.Context, event *entity.ProposalEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректные метаданные события")
	}
	query := `
		INSERT INTO proposal_events (id, proposal_id, version_id, type, metadata, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.ProposalID, event.VersionID, string(event.Type), metadata,
		event.IP, event.UserAgent, event.CreatedAt,
	)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return apperror.ErrProposalNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось записать событие")
	}
	return nil
}

func (r *EventRepositoryAdapter) ListByProposal(ctx context.Context, proposalID uuid.UUID, limit, offset int) ([]*entity.ProposalEvent, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM proposal_events WHERE proposal_id = $1`, proposalID); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать события")
	}

	limit, offset = common.Paginate(limit, offset)
	var rows []eventRow
	query := `
		SELECT id, proposal_id, version_id, type, metadata, ip, user_agent, created_at
		FROM proposal_events WHERE proposal_id = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &rows, query, proposalID, limit, offset); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить события")
	}

	result := make([]*entity.ProposalEvent, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, total, nil
}

type eventRow struct {
	ID         uuid.UUID  `db:"id"`
	ProposalID uuid.UUID  `db:"proposal_id"`
	VersionID  *uuid.UUID `db:"version_id"`
	Type       string     `db:"type"`
	Metadata   []byte     `db:"metadata"`
	IP         string     `db:"ip"`
	UserAgent  string     `db:"user_agent"`
	CreatedAt  time.Time  `db:"created_at"`
}

func (e *eventRow) toEntity() *entity.ProposalEvent {
	metadata := map[string]any{}
	// Метаданные записываются только через Append, поэтому ошибка разбора означает пустой объект.
	_ = json.Unmarshal(e.Metadata, &metadata)
	return &entity.ProposalEvent{
		ID:         e.ID,
		ProposalID: e.ProposalID,
		VersionID:  e.VersionID,
		Type:       valueobject.EventType(e.Type),
		Metadata:   metadata,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		CreatedAt:  e.CreatedAt,
	}
}
