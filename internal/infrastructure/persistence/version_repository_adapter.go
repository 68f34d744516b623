package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/template"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/logger"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
)

const versionColumns = `id, proposal_id, version_number, snapshot_document, snapshot_blocks, snapshot_variables,
	render_warnings, subtotal_amount, discount_amount, tax_amount, total_amount, public_token, public_url,
	status, created_at, updated_at`

const itemColumns = `id, version_id, position, catalog_item_id, description, quantity, unit_price, discount_amount, tax_rate`

type VersionRepositoryAdapter struct {
	db *sqlx.DB
}

func NewVersionRepositoryAdapter(db *sqlx.DB) *VersionRepositoryAdapter {
	return &VersionRepositoryAdapter{db: db}
}

// Create блокирует строку предложения, чтобы номер max+1 назначался последовательно.
func (r *VersionRepositoryAdapter) Create(ctx context.Context, version *entity.ProposalVersion) error {
	blocks, err := json.Marshal(version.SnapshotBlocks)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать блоки")
	}
	variables, err := json.Marshal(version.SnapshotVariables)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать переменные")
	}
	warnings := version.RenderWarnings
	if warnings == nil {
		warnings = []template.Warning{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать предупреждения")
	}

	var number int
	err = common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var locked uuid.UUID
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM proposals WHERE id = $1 FOR UPDATE`, version.ProposalID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrProposalNotFound
			}
			return err
		}

		if err := tx.GetContext(ctx, &number,
			`SELECT COALESCE(MAX(version_number), 0) + 1 FROM proposal_versions WHERE proposal_id = $1`,
			version.ProposalID); err != nil {
			return err
		}

		query := `
			INSERT INTO proposal_versions (` + versionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`
		if _, err := tx.ExecContext(ctx, query,
			version.ID, version.ProposalID, number, version.SnapshotDocument, blocks, variables,
			warningsJSON, version.SubtotalAmount, version.DiscountAmount, version.TaxAmount, version.TotalAmount,
			version.PublicToken, version.PublicURL, string(version.Status), version.CreatedAt, version.UpdatedAt,
		); err != nil {
			return err
		}

		if len(version.Items) == 0 {
			return nil
		}
		inserter := common.NewBatchInserter(tx, `INSERT INTO proposal_version_items (`+itemColumns+`)`, 9, 100)
		for _, it := range version.Items {
			if err := inserter.Add(ctx,
				it.ID, version.ID, it.Position, it.CatalogItemID, it.Description,
				it.Quantity, it.UnitPrice, it.DiscountAmount, it.TaxRate,
			); err != nil {
				return err
			}
		}
		return inserter.Flush(ctx)
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		if common.IsUniqueViolation(err, "") {
			logger.Log.WithField("proposal_id", version.ProposalID).Warn("Конфликт уникальности при сохранении версии")
			return apperror.Wrap(err, apperror.ErrCodeConflict, apperror.ErrDuplicateVersion.Message)
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить версию")
	}

	version.VersionNumber = number
	for i := range version.Items {
		version.Items[i].VersionID = version.ID
	}
	return nil
}

func (r *VersionRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.ProposalVersion, error) {
	return r.findOne(ctx, `SELECT `+versionColumns+` FROM proposal_versions WHERE id = $1`, id)
}

func (r *VersionRepositoryAdapter) FindByToken(ctx context.Context, token string) (*entity.ProposalVersion, error) {
	return r.findOne(ctx, `SELECT `+versionColumns+` FROM proposal_versions WHERE public_token = $1`, token)
}

func (r *VersionRepositoryAdapter) FindLatest(ctx context.Context, proposalID uuid.UUID) (*entity.ProposalVersion, error) {
	return r.findOne(ctx, `SELECT `+versionColumns+` FROM proposal_versions WHERE proposal_id = $1
		ORDER BY version_number DESC LIMIT 1`, proposalID)
}

func (r *VersionRepositoryAdapter) ListByProposal(ctx context.Context, proposalID uuid.UUID) ([]*entity.ProposalVersion, error) {
	var rows []versionRow
	query := `SELECT ` + versionColumns + ` FROM proposal_versions WHERE proposal_id = $1 ORDER BY version_number DESC`
	if err := r.db.SelectContext(ctx, &rows, query, proposalID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить версии")
	}
	if len(rows) == 0 {
		return []*entity.ProposalVersion{}, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	items, err := r.loadItems(ctx, ids...)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.ProposalVersion, 0, len(rows))
	for _, row := range rows {
		v, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		v.Items = items[v.ID]
		result = append(result, v)
	}
	return result, nil
}

func (r *VersionRepositoryAdapter) CountByProposal(ctx context.Context, proposalID uuid.UUID) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM proposal_versions WHERE proposal_id = $1`, proposalID); err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать версии")
	}
	return n, nil
}

func (r *VersionRepositoryAdapter) MarkSigned(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE proposal_versions SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(valueobject.VersionStatusSigned), time.Now().UTC())
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус версии")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrVersionNotFound
	}
	return nil
}

func (r *VersionRepositoryAdapter) findOne(ctx context.Context, query string, arg interface{}) (*entity.ProposalVersion, error) {
	var row versionRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrVersionNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить версию")
	}
	v, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	v.Items = items[v.ID]
	return v, nil
}

func (r *VersionRepositoryAdapter) loadItems(ctx context.Context, versionIDs ...uuid.UUID) (map[uuid.UUID][]entity.ProposalVersionItem, error) {
	query, args, err := sqlx.In(`SELECT `+itemColumns+` FROM proposal_version_items WHERE version_id IN (?) ORDER BY position`, versionIDs)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось подготовить запрос позиций")
	}
	var rows []versionItemRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить позиции версии")
	}
	result := make(map[uuid.UUID][]entity.ProposalVersionItem, len(versionIDs))
	for _, row := range rows {
		result[row.VersionID] = append(result[row.VersionID], row.toEntity())
	}
	return result, nil
}

type versionRow struct {
	ID                uuid.UUID       `db:"id"`
	ProposalID        uuid.UUID       `db:"proposal_id"`
	VersionNumber     int             `db:"version_number"`
	SnapshotDocument  string          `db:"snapshot_document"`
	SnapshotBlocks    []byte          `db:"snapshot_blocks"`
	SnapshotVariables []byte          `db:"snapshot_variables"`
	RenderWarnings    []byte          `db:"render_warnings"`
	SubtotalAmount    decimal.Decimal `db:"subtotal_amount"`
	DiscountAmount    decimal.Decimal `db:"discount_amount"`
	TaxAmount         decimal.Decimal `db:"tax_amount"`
	TotalAmount       decimal.Decimal `db:"total_amount"`
	PublicToken       string          `db:"public_token"`
	PublicURL         string          `db:"public_url"`
	Status            string          `db:"status"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (v *versionRow) toEntity() (*entity.ProposalVersion, error) {
	status, _ := valueobject.NewVersionStatus(v.Status)
	version := &entity.ProposalVersion{
		ID:               v.ID,
		ProposalID:       v.ProposalID,
		VersionNumber:    v.VersionNumber,
		SnapshotDocument: v.SnapshotDocument,
		SubtotalAmount:   v.SubtotalAmount,
		DiscountAmount:   v.DiscountAmount,
		TaxAmount:        v.TaxAmount,
		TotalAmount:      v.TotalAmount,
		PublicToken:      v.PublicToken,
		PublicURL:        v.PublicURL,
		Status:           status,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	if err := json.Unmarshal(v.SnapshotBlocks, &version.SnapshotBlocks); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждены блоки версии")
	}
	if err := json.Unmarshal(v.SnapshotVariables, &version.SnapshotVariables); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждены переменные версии")
	}
	if len(v.RenderWarnings) > 0 {
		if err := json.Unmarshal(v.RenderWarnings, &version.RenderWarnings); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждены предупреждения версии")
		}
	}
	return version, nil
}

type versionItemRow struct {
	ID             uuid.UUID       `db:"id"`
	VersionID      uuid.UUID       `db:"version_id"`
	Position       int             `db:"position"`
	CatalogItemID  *uuid.UUID      `db:"catalog_item_id"`
	Description    string          `db:"description"`
	Quantity       decimal.Decimal `db:"quantity"`
	UnitPrice      decimal.Decimal `db:"unit_price"`
	DiscountAmount decimal.Decimal `db:"discount_amount"`
	TaxRate        decimal.Decimal `db:"tax_rate"`
}

func (i *versionItemRow) toEntity() entity.ProposalVersionItem {
	return entity.ProposalVersionItem{
		ID:             i.ID,
		VersionID:      i.VersionID,
		Position:       i.Position,
		CatalogItemID:  i.CatalogItemID,
		Description:    i.Description,
		Quantity:       i.Quantity,
		UnitPrice:      i.UnitPrice,
		DiscountAmount: i.DiscountAmount,
		TaxRate:        i.TaxRate,
	}
}
