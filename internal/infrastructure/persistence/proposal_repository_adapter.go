package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
)

const proposalColumns = `id, title, client_id, owner_id, currency, status, valid_until, requires_approval, created_at, updated_at`

type ProposalRepositoryAdapter struct {
	db *sqlx.DB
}

func NewProposalRepositoryAdapter(db *sqlx.DB) *ProposalRepositoryAdapter {
	return &ProposalRepositoryAdapter{db: db}
}

func (r *ProposalRepositoryAdapter) Create(ctx context.Context, proposal *entity.Proposal) error {
	query := `
		INSERT INTO proposals (id, title, client_id, owner_id, currency, status, valid_until, requires_approval, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		proposal.ID, proposal.Title, proposal.ClientID, proposal.OwnerID, proposal.Currency,
		string(proposal.Status), proposal.ValidUntil, proposal.RequiresApproval,
		proposal.CreatedAt, proposal.UpdatedAt,
	)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return apperror.ErrClientNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать предложение")
	}
	return nil
}

func (r *ProposalRepositoryAdapter) Update(ctx context.Context, proposal *entity.Proposal) error {
	query := `
		UPDATE proposals SET title = $2, client_id = $3, currency = $4, valid_until = $5,
		requires_approval = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		proposal.ID, proposal.Title, proposal.ClientID, proposal.Currency, proposal.ValidUntil,
		proposal.RequiresApproval, proposal.UpdatedAt,
	)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return apperror.ErrClientNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить предложение")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrProposalNotFound
	}
	return nil
}

func (r *ProposalRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var locked uuid.UUID
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM proposals WHERE id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrProposalNotFound
			}
			return err
		}

		var versions int
		if err := tx.GetContext(ctx, &versions, `SELECT COUNT(*) FROM proposal_versions WHERE proposal_id = $1`, id); err != nil {
			return err
		}
		if versions > 0 {
			return apperror.ErrProposalHasVersions
		}

		_, err := tx.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1`, id)
		return err
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось удалить предложение")
	}
	return nil
}

func (r *ProposalRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Proposal, error) {
	var p proposalRow
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrProposalNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложение")
	}
	return p.toEntity(), nil
}

func (r *ProposalRepositoryAdapter) List(ctx context.Context, filter repository.ProposalFilter) ([]*entity.Proposal, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM proposals`+where, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать предложения")
	}

	limit, offset := common.Paginate(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM proposals%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		proposalColumns, where, len(args)-1, len(args))

	var rows []proposalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложения")
	}
	return toProposalEntities(rows), total, nil
}

func (r *ProposalRepositoryAdapter) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from []valueobject.ProposalStatus, to valueobject.ProposalStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	query := `UPDATE proposals SET status = $2, updated_at = $3 WHERE id = $1 AND status = ANY($4)`
	res, err := r.db.ExecContext(ctx, query, id, string(to), time.Now().UTC(), pq.Array(allowed))
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус предложения")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус предложения")
	}
	return n == 1, nil
}

type proposalRow struct {
	ID               uuid.UUID  `db:"id"`
	Title            string     `db:"title"`
	ClientID         *uuid.UUID `db:"client_id"`
	OwnerID          uuid.UUID  `db:"owner_id"`
	Currency         string     `db:"currency"`
	Status           string     `db:"status"`
	ValidUntil       *time.Time `db:"valid_until"`
	RequiresApproval bool       `db:"requires_approval"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (p *proposalRow) toEntity() *entity.Proposal {
	status, _ := valueobject.NewProposalStatus(p.Status)
	return &entity.Proposal{
		ID:               p.ID,
		Title:            p.Title,
		ClientID:         p.ClientID,
		OwnerID:          p.OwnerID,
		Currency:         strings.TrimSpace(p.Currency),
		Status:           status,
		ValidUntil:       p.ValidUntil,
		RequiresApproval: p.RequiresApproval,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toProposalEntities(rows []proposalRow) []*entity.Proposal {
	result := make([]*entity.Proposal, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result
}
