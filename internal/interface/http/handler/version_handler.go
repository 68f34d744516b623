package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/proposal-engine/internal/interface/http/dto"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/response"
	"github.com/ignatzorin/proposal-engine/internal/usecase/version"
)

type VersionHandler struct {
	publishUC    *version.PublishVersionUseCase
	listUC       *version.ListVersionsUseCase
	publicViewUC *version.PublicViewUseCase
}

func NewVersionHandler(
	publishUC *version.PublishVersionUseCase,
	listUC *version.ListVersionsUseCase,
	publicViewUC *version.PublicViewUseCase,
) *VersionHandler {
	return &VersionHandler{
		publishUC:    publishUC,
		listUC:       listUC,
		publicViewUC: publicViewUC,
	}
}

// PublishVersion обрабатывает POST /api/proposals/:id/versions.
func (h *VersionHandler) PublishVersion(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proposalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.PublishVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	published, err := h.publishUC.Execute(c.Request.Context(), version.PublishInput{
		ProposalID:  proposalID,
		RequesterID: userID,
		Blocks:      req.Blocks,
		Variables:   req.Variables,
		Items:       req.ToItems(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToVersionResponse(published))
}

// ListVersions обрабатывает GET /api/proposals/:id/versions. Новые версии первыми.
func (h *VersionHandler) ListVersions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proposalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	versions, err := h.listUC.Execute(c.Request.Context(), proposalID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToVersionResponses(versions))
}

// PublicView обрабатывает GET /p/:token.
func (h *VersionHandler) PublicView(c *gin.Context) {
	view, err := h.publicViewUC.Execute(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	response.Success(c, dto.ToPublicProposalResponse(view))
}
