// Package memory хранит данные в памяти процесса. Только для разработки и тестов.
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/template"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
)

// Store хранит все таблицы под одним RWMutex, так что назначение номера версии
// и проверки уникальности выполняются атомарно.
type Store struct {
	mu sync.RWMutex

	proposals  map[uuid.UUID]*entity.Proposal
	versions   map[uuid.UUID]*entity.ProposalVersion
	tokens     map[string]uuid.UUID
	events     []*entity.ProposalEvent
	signatures map[uuid.UUID]*entity.ProposalSignature
	// proposal_id -> version_id подписи, как уникальный индекс proposal_signatures_proposal_id_key
	signedProposals map[uuid.UUID]uuid.UUID
	clients         map[uuid.UUID]*entity.Client
	catalog         map[uuid.UUID]*entity.CatalogItem
}

func NewStore() *Store {
	return &Store{
		proposals:       make(map[uuid.UUID]*entity.Proposal),
		versions:        make(map[uuid.UUID]*entity.ProposalVersion),
		tokens:          make(map[string]uuid.UUID),
		signatures:      make(map[uuid.UUID]*entity.ProposalSignature),
		signedProposals: make(map[uuid.UUID]uuid.UUID),
		clients:         make(map[uuid.UUID]*entity.Client),
		catalog:         make(map[uuid.UUID]*entity.CatalogItem),
	}
}

func (s *Store) Proposals() repository.ProposalRepository   { return &proposalRepo{s} }
func (s *Store) Versions() repository.VersionRepository     { return &versionRepo{s} }
func (s *Store) Events() repository.EventRepository         { return &eventRepo{s} }
func (s *Store) Signatures() repository.SignatureRepository { return &signatureRepo{s} }
func (s *Store) Clients() repository.ClientRepository       { return &clientRepo{s} }
func (s *Store) Catalog() repository.CatalogRepository      { return &catalogRepo{s} }

func page[T any](items []T, limit, offset int) []T {
	limit, offset = common.Paginate(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// deepCopy копирует JSON-подобное дерево, чтобы вызывающий код не мог изменить сохранённый снимок.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case template.Variables:
		return deepCopy(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return deepCopy(m).(map[string]any)
}
