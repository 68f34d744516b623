package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/usecase/signature"
)

type SignRequest struct {
	SignerName    string `json:"signer_name"`
	SignerEmail   string `json:"signer_email"`
	Method        string `json:"method"`
	SignatureData string `json:"signature_data"`
}

type SignatureResponse struct {
	ID            uuid.UUID `json:"id"`
	ProposalID    uuid.UUID `json:"proposal_id"`
	VersionID     uuid.UUID `json:"version_id"`
	SignerName    string    `json:"signer_name"`
	SignerEmail   string    `json:"signer_email"`
	Method        string    `json:"method"`
	SignatureData string    `json:"signature_data,omitempty"`
	SignedAt      time.Time `json:"signed_at"`
	IP            string    `json:"ip,omitempty"`
	Hash          string    `json:"hash"`
}

type SignResultResponse struct {
	Signature SignatureResponse       `json:"signature"`
	Created   bool                    `json:"created"`
	Steps     []signature.StepOutcome `json:"steps"`
}

func ToSignatureResponse(s *entity.ProposalSignature) SignatureResponse {
	return SignatureResponse{
		ID:            s.ID,
		ProposalID:    s.ProposalID,
		VersionID:     s.VersionID,
		SignerName:    s.SignerName,
		SignerEmail:   s.SignerEmail,
		Method:        string(s.Method),
		SignatureData: s.SignatureData,
		SignedAt:      s.SignedAt,
		IP:            s.IP,
		Hash:          s.Hash,
	}
}

func ToSignatureResponses(signatures []*entity.ProposalSignature) []SignatureResponse {
	responses := make([]SignatureResponse, 0, len(signatures))
	for _, s := range signatures {
		responses = append(responses, ToSignatureResponse(s))
	}
	return responses
}

// ToSignResultResponse не возвращает подписанту IP, записанный сервером.
func ToSignResultResponse(result *signature.SignResult) SignResultResponse {
	sig := ToSignatureResponse(result.Signature)
	sig.IP = ""
	steps := result.Steps
	if steps == nil {
		steps = []signature.StepOutcome{}
	}
	return SignResultResponse{Signature: sig, Created: result.Created, Steps: steps}
}
