package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
)

const signatureColumns = `id, proposal_id, version_id, signer_name, signer_email, method, signature_data, signed_at, ip, hash`

type SignatureRepositoryAdapter struct {
	db *sqlx.DB
}

func NewSignatureRepositoryAdapter(db *sqlx.DB) *SignatureRepositoryAdapter {
	return &SignatureRepositoryAdapter{db: db}
}

func (r *SignatureRepositoryAdapter) Create(ctx context.Context, signature *entity.ProposalSignature) error {
	query := `INSERT INTO proposal_signatures (` + signatureColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		signature.ID, signature.ProposalID, signature.VersionID, signature.SignerName, signature.SignerEmail,
		string(signature.Method), signature.SignatureData, signature.SignedAt, signature.IP, signature.Hash,
	)
	if err != nil {
		if common.IsUniqueViolation(err, "") {
			return apperror.Wrap(err, apperror.ErrCodeConflict, "предложение уже подписано")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить подпись")
	}
	return nil
}

func (r *SignatureRepositoryAdapter) FindByVersionID(ctx context.Context, versionID uuid.UUID) (*entity.ProposalSignature, error) {
	var row signatureRow
	query := `SELECT ` + signatureColumns + ` FROM proposal_signatures WHERE version_id = $1`
	if err := r.db.GetContext(ctx, &row, query, versionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrSignatureNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить подпись")
	}
	return row.toEntity(), nil
}

func (r *SignatureRepositoryAdapter) ListByProposal(ctx context.Context, proposalID uuid.UUID) ([]*entity.ProposalSignature, error) {
	var rows []signatureRow
	query := `SELECT ` + signatureColumns + ` FROM proposal_signatures WHERE proposal_id = $1 ORDER BY signed_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, proposalID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить подписи")
	}
	result := make([]*entity.ProposalSignature, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

type signatureRow struct {
	ID            uuid.UUID `db:"id"`
	ProposalID    uuid.UUID `db:"proposal_id"`
	VersionID     uuid.UUID `db:"version_id"`
	SignerName    string    `db:"signer_name"`
	SignerEmail   string    `db:"signer_email"`
	Method        string    `db:"method"`
	SignatureData string    `db:"signature_data"`
	SignedAt      time.Time `db:"signed_at"`
	IP            string    `db:"ip"`
	Hash          string    `db:"hash"`
}

func (s *signatureRow) toEntity() *entity.ProposalSignature {
	return &entity.ProposalSignature{
		ID:            s.ID,
		ProposalID:    s.ProposalID,
		VersionID:     s.VersionID,
		SignerName:    s.SignerName,
		SignerEmail:   s.SignerEmail,
		Method:        entity.SignatureMethod(s.Method),
		SignatureData: s.SignatureData,
		SignedAt:      s.SignedAt,
		IP:            s.IP,
		Hash:          s.Hash,
	}
}
