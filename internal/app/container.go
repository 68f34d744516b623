// Package app связывает хранилище, сценарии и HTTP-хендлеры.
package app

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/template"
	"github.com/ignatzorin/proposal-engine/internal/domain/token"
	"github.com/ignatzorin/proposal-engine/internal/http/router"
	"github.com/ignatzorin/proposal-engine/internal/infrastructure/persistence"
	"github.com/ignatzorin/proposal-engine/internal/infrastructure/persistence/memory"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/handler"
	"github.com/ignatzorin/proposal-engine/internal/service"
	"github.com/ignatzorin/proposal-engine/internal/usecase/catalog"
	"github.com/ignatzorin/proposal-engine/internal/usecase/client"
	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
	"github.com/ignatzorin/proposal-engine/internal/usecase/proposal"
	"github.com/ignatzorin/proposal-engine/internal/usecase/signature"
	"github.com/ignatzorin/proposal-engine/internal/usecase/tracking"
	"github.com/ignatzorin/proposal-engine/internal/usecase/version"
	"github.com/ignatzorin/proposal-engine/internal/ws"
)

// Repositories собирает одну реализацию хранилища для всех сценариев.
type Repositories struct {
	Proposals  repository.ProposalRepository
	Versions   repository.VersionRepository
	Events     repository.EventRepository
	Signatures repository.SignatureRepository
	Clients    repository.ClientRepository
	Catalog    repository.CatalogRepository
}

func PostgresRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Proposals:  persistence.NewProposalRepositoryAdapter(db),
		Versions:   persistence.NewVersionRepositoryAdapter(db),
		Events:     persistence.NewEventRepositoryAdapter(db),
		Signatures: persistence.NewSignatureRepositoryAdapter(db),
		Clients:    persistence.NewClientRepositoryAdapter(db),
		Catalog:    persistence.NewCatalogRepositoryAdapter(db),
	}
}

// MemoryRepositories используется только в разработке и тестах.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Proposals:  store.Proposals(),
		Versions:   store.Versions(),
		Events:     store.Events(),
		Signatures: store.Signatures(),
		Clients:    store.Clients(),
		Catalog:    store.Catalog(),
	}
}

type Options struct {
	PublicBaseURL  string
	AllowedOrigins []string
	Tokens         *service.TokenManager
	Notifier       notify.Notifier
	// Hub и DB необязательны.
	Hub *ws.Hub
	DB  handler.Pinger
}

// BuildHandlers создаёт сценарии и хендлеры. Кэш публичных версий живёт до отмены ctx.
func BuildHandlers(ctx context.Context, repos Repositories, opts Options) router.Handlers {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	renderer := template.NewRenderer(nil)
	issuer := token.NewIssuer(opts.PublicBaseURL)
	cache := service.NewCacheService(ctx)

	h := router.Handlers{
		Proposal: handler.NewProposalHandler(
			proposal.NewCreateProposalUseCase(repos.Proposals, repos.Clients),
			proposal.NewGetProposalUseCase(repos.Proposals, repos.Versions),
			proposal.NewListProposalsUseCase(repos.Proposals),
			proposal.NewUpdateProposalUseCase(repos.Proposals, repos.Clients),
			proposal.NewDeleteProposalUseCase(repos.Proposals),
			proposal.NewListEventsUseCase(repos.Proposals, repos.Events),
			proposal.NewListSignaturesUseCase(repos.Proposals, repos.Signatures),
		),
		Version: handler.NewVersionHandler(
			version.NewPublishVersionUseCase(repos.Proposals, repos.Versions, repos.Catalog, renderer, issuer),
			version.NewListVersionsUseCase(repos.Proposals, repos.Versions),
			version.NewPublicViewUseCase(repos.Proposals, repos.Versions, cache),
		),
		Signature: handler.NewSignatureHandler(
			signature.NewSignProposalUseCase(repos.Proposals, repos.Versions, repos.Signatures, repos.Events, notifier).
				WithCache(cache),
		),
		Tracking: handler.NewTrackingHandler(
			tracking.NewRecordEventUseCase(repos.Proposals, repos.Versions, repos.Events, notifier),
		),
		Client: handler.NewClientHandler(
			client.NewCreateClientUseCase(repos.Clients),
			client.NewGetClientUseCase(repos.Clients),
			client.NewListClientsUseCase(repos.Clients),
			client.NewUpdateClientUseCase(repos.Clients),
		),
		Catalog: handler.NewCatalogHandler(
			catalog.NewCreateItemUseCase(repos.Catalog),
			catalog.NewGetItemUseCase(repos.Catalog),
			catalog.NewListItemsUseCase(repos.Catalog),
			catalog.NewUpdateItemUseCase(repos.Catalog),
		),
		Health: handler.NewHealthHandler(opts.DB),
	}
	if opts.Hub != nil {
		h.WS = handler.NewWSHandler(opts.Hub, opts.Tokens, opts.AllowedOrigins)
	}
	return h
}
