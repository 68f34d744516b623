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
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
)

const catalogColumns = `id, sku, name, description, category, unit_price, currency, is_active, created_at, updated_at`

type CatalogRepositoryAdapter struct {
	db *sqlx.DB
}

func NewCatalogRepositoryAdapter(db *sqlx.DB) *CatalogRepositoryAdapter {
	return &CatalogRepositoryAdapter{db: db}
}

func (r *CatalogRepositoryAdapter) Create(ctx context.Context, item *entity.CatalogItem) error {
	query := `INSERT INTO catalog_items (` + catalogColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.SKU, item.Name, item.Description, item.Category,
		item.UnitPrice, item.Currency, item.IsActive, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if common.IsUniqueViolation(err, "catalog_items_sku_key") {
			return apperror.ErrDuplicateSKU
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать позицию каталога")
	}
	return nil
}

func (r *CatalogRepositoryAdapter) Update(ctx context.Context, item *entity.CatalogItem) error {
	query := `
		UPDATE catalog_items SET sku = $2, name = $3, description = $4, category = $5, unit_price = $6,
		currency = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		item.ID, item.SKU, item.Name, item.Description, item.Category,
		item.UnitPrice, item.Currency, item.IsActive, item.UpdatedAt,
	)
	if err != nil {
		if common.IsUniqueViolation(err, "catalog_items_sku_key") {
			return apperror.ErrDuplicateSKU
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить позицию каталога")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrCatalogItemNotFound
	}
	return nil
}

func (r *CatalogRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.CatalogItem, error) {
	var row catalogRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+catalogColumns+` FROM catalog_items WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrCatalogItemNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить позицию каталога")
	}
	return row.toEntity(), nil
}

func (r *CatalogRepositoryAdapter) List(ctx context.Context, filter repository.CatalogFilter) ([]*entity.CatalogItem, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if c := strings.TrimSpace(filter.Category); c != "" {
		args = append(args, c)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM catalog_items`+where, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать позиции каталога")
	}

	limit, offset := common.Paginate(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM catalog_items%s ORDER BY sku LIMIT $%d OFFSET $%d`,
		catalogColumns, where, len(args)-1, len(args))

	var rows []catalogRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить позиции каталога")
	}
	result := make([]*entity.CatalogItem, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, total, nil
}

type catalogRow struct {
	ID          uuid.UUID       `db:"id"`
	SKU         string          `db:"sku"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Currency    string          `db:"currency"`
	IsActive    bool            `db:"is_active"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (c *catalogRow) toEntity() *entity.CatalogItem {
	return &entity.CatalogItem{
		ID:          c.ID,
		SKU:         c.SKU,
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		UnitPrice:   c.UnitPrice,
		Currency:    strings.TrimSpace(c.Currency),
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
