package version

import (
	"context"
	"time"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/token"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/service"
)

// PublicView содержит то, что видит получатель по публичной ссылке.
type PublicView struct {
	Proposal *entity.Proposal
	Version  *entity.ProposalVersion
}

type PublicViewUseCase struct {
	proposalRepo repository.ProposalRepository
	versionRepo  repository.VersionRepository
	cache        *service.CacheService
	now          func() time.Time
}

func NewPublicViewUseCase(proposalRepo repository.ProposalRepository, versionRepo repository.VersionRepository, cache *service.CacheService) *PublicViewUseCase {
	return &PublicViewUseCase{
		proposalRepo: proposalRepo,
		versionRepo:  versionRepo,
		cache:        cache,
		now:          time.Now,
	}
}

// Execute находит версию по токену. Версия кэшируется (снимок неизменяем),
// предложение читается всегда заново, чтобы статус и срок действия были актуальны.
func (uc *PublicViewUseCase) Execute(ctx context.Context, publicToken string) (*PublicView, error) {
	if !token.IsWellFormed(publicToken) {
		return nil, apperror.ErrPublicLinkNotFound
	}

	version, err := uc.findVersion(ctx, publicToken)
	if apperror.IsNotFound(err) {
		return nil, apperror.ErrPublicLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	proposal, err := uc.proposalRepo.FindByID(ctx, version.ProposalID)
	if apperror.IsNotFound(err) {
		return nil, apperror.ErrPublicLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	if proposal.IsExpired(uc.now()) {
		return nil, apperror.ErrPublicLinkNotFound
	}

	return &PublicView{Proposal: proposal, Version: version}, nil
}

func (uc *PublicViewUseCase) findVersion(ctx context.Context, publicToken string) (*entity.ProposalVersion, error) {
	if uc.cache == nil {
		return uc.versionRepo.FindByToken(ctx, publicToken)
	}
	value, err := uc.cache.GetOrSet(ctx, service.PublicVersionCacheKey(publicToken), service.PublicVersionTTL,
		func(ctx context.Context) (interface{}, error) {
			return uc.versionRepo.FindByToken(ctx, publicToken)
		})
	if err != nil {
		return nil, err
	}
	return value.(*entity.ProposalVersion), nil
}
