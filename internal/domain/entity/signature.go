package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

type SignatureMethod string

const (
	SignatureMethodTyped SignatureMethod = "typed"
	SignatureMethodDrawn SignatureMethod = "drawn"
	SignatureMethodClick SignatureMethod = "click"
)

func (m SignatureMethod) IsValid() bool {
	switch m {
	case SignatureMethodTyped, SignatureMethodDrawn, SignatureMethodClick:
		return true
	}
	return false
}

// Hash в ProposalSignature связывает подпись с отрисованным документом версии.
type ProposalSignature struct {
	ID            uuid.UUID
	ProposalID    uuid.UUID
	VersionID     uuid.UUID
	SignerName    string
	SignerEmail   string
	Method        SignatureMethod
	SignatureData string
	SignedAt      time.Time
	IP            string
	Hash          string
}

// ContentHash возвращает hex(SHA-256) отрисованного документа версии.
func ContentHash(document string) string {
	sum := sha256.Sum256([]byte(document))
	return hex.EncodeToString(sum[:])
}

// Matches сообщает, что подпись относится именно к этому тексту документа.
func (s *ProposalSignature) Matches(document string) bool {
	return s.Hash == ContentHash(document)
}
