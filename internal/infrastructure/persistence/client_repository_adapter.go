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

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
)

const clientColumns = `id, owner_id, name, document_id, email, phone, segment, created_at, updated_at`

type ClientRepositoryAdapter struct {
	db *sqlx.DB
}

func NewClientRepositoryAdapter(db *sqlx.DB) *ClientRepositoryAdapter {
	return &ClientRepositoryAdapter{db: db}
}

func (r *ClientRepositoryAdapter) Create(ctx context.Context, client *entity.Client) error {
	query := `INSERT INTO clients (` + clientColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		client.ID, client.OwnerID, client.Name, client.DocumentID, client.Email,
		client.Phone, client.Segment, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать клиента")
	}
	return nil
}

func (r *ClientRepositoryAdapter) Update(ctx context.Context, client *entity.Client) error {
	query := `
		UPDATE clients SET name = $2, document_id = $3, email = $4, phone = $5, segment = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		client.ID, client.Name, client.DocumentID, client.Email, client.Phone, client.Segment, client.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить клиента")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	var row clientRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrClientNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить клиента")
	}
	return row.toEntity(), nil
}

func (r *ClientRepositoryAdapter) List(ctx context.Context, filter repository.ClientFilter) ([]*entity.Client, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM clients`+where, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать клиентов")
	}

	limit, offset := common.Paginate(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM clients%s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		clientColumns, where, len(args)-1, len(args))

	var rows []clientRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить клиентов")
	}
	result := make([]*entity.Client, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, total, nil
}

type clientRow struct {
	ID         uuid.UUID `db:"id"`
	OwnerID    uuid.UUID `db:"owner_id"`
	Name       string    `db:"name"`
	DocumentID string    `db:"document_id"`
	Email      string    `db:"email"`
	Phone      string    `db:"phone"`
	Segment    string    `db:"segment"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (c *clientRow) toEntity() *entity.Client {
	return &entity.Client{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		Name:       c.Name,
		DocumentID: c.DocumentID,
		Email:      c.Email,
		Phone:      c.Phone,
		Segment:    c.Segment,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
