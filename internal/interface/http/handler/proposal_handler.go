package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/interface/http/dto"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/response"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
	"github.com/ignatzorin/proposal-engine/internal/usecase/proposal"
)

type ProposalHandler struct {
	createUC         *proposal.CreateProposalUseCase
	getUC            *proposal.GetProposalUseCase
	listUC           *proposal.ListProposalsUseCase
	updateUC         *proposal.UpdateProposalUseCase
	deleteUC         *proposal.DeleteProposalUseCase
	listEventsUC     *proposal.ListEventsUseCase
	listSignaturesUC *proposal.ListSignaturesUseCase
}

func NewProposalHandler(
	createUC *proposal.CreateProposalUseCase,
	getUC *proposal.GetProposalUseCase,
	listUC *proposal.ListProposalsUseCase,
	updateUC *proposal.UpdateProposalUseCase,
	deleteUC *proposal.DeleteProposalUseCase,
	listEventsUC *proposal.ListEventsUseCase,
	listSignaturesUC *proposal.ListSignaturesUseCase,
) *ProposalHandler {
	return &ProposalHandler{
		createUC:         createUC,
		getUC:            getUC,
		listUC:           listUC,
		updateUC:         updateUC,
		deleteUC:         deleteUC,
		listEventsUC:     listEventsUC,
		listSignaturesUC: listSignaturesUC,
	}
}

// CreateProposal обрабатывает POST /api/proposals.
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	validUntil, err := dto.ParseTime("valid_until", req.ValidUntil)
	if err != nil {
		response.Error(c, err)
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), proposal.CreateProposalInput{
		OwnerID:          userID,
		Title:            req.Title,
		ClientID:         req.ClientID,
		ValidUntil:       validUntil,
		Currency:         req.Currency,
		RequiresApproval: req.RequiresApproval,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToProposalResponse(created))
}

// ListProposals обрабатывает GET /api/proposals?status=&client_id=&search=&limit=&offset=.
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit, offset := common.Paginate(pagination(c))
	input := proposal.ListProposalsInput{
		OwnerID: userID,
		Status:  c.Query("status"),
		Search:  c.Query("search"),
		Limit:   limit,
		Offset:  offset,
	}
	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "client_id должен быть валидным UUID")
			return
		}
		input.ClientID = &clientID
	}

	items, total, err := h.listUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToProposalResponses(items), total, limit, offset)
}

// GetProposal обрабатывает GET /api/proposals/:id.
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proposalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	details, err := h.getUC.Execute(c.Request.Context(), proposalID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToProposalDetailsResponse(details.Proposal, details.LatestVersion, details.VersionCount))
}

// UpdateProposal обрабатывает PATCH /api/proposals/:id.
func (h *ProposalHandler) UpdateProposal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proposalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	changes, err := req.ToChanges()
	if err != nil {
		response.Error(c, err)
		return
	}

	updated, err := h.updateUC.Execute(c.Request.Context(), proposalID, userID, changes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToProposalResponse(updated))
}

// DeleteProposal обрабатывает DELETE /api/proposals/:id.
func (h *ProposalHandler) DeleteProposal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proposalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), proposalID, userID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListEvents обрабатывает GET /api/proposals/:id/events.
func (h *ProposalHandler) ListEvents(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proposalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	limit, offset := common.Paginate(pagination(c))
	events, total, err := h.listEventsUC.Execute(c.Request.Context(), proposalID, userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToEventResponses(events), total, limit, offset)
}

// ListSignatures обрабатывает GET /api/proposals/:id/signatures.
func (h *ProposalHandler) ListSignatures(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proposalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	signatures, err := h.listSignaturesUC.Execute(c.Request.Context(), proposalID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToSignatureResponses(signatures))
}
