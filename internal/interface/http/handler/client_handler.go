package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/proposal-engine/internal/interface/http/dto"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/response"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
	"github.com/ignatzorin/proposal-engine/internal/usecase/client"
)

type ClientHandler struct {
	createUC *client.CreateClientUseCase
	getUC    *client.GetClientUseCase
	listUC   *client.ListClientsUseCase
	updateUC *client.UpdateClientUseCase
}

func NewClientHandler(
	createUC *client.CreateClientUseCase,
	getUC *client.GetClientUseCase,
	listUC *client.ListClientsUseCase,
	updateUC *client.UpdateClientUseCase,
) *ClientHandler {
	return &ClientHandler{createUC: createUC, getUC: getUC, listUC: listUC, updateUC: updateUC}
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), client.CreateClientInput{
		OwnerID:    userID,
		Name:       req.Name,
		DocumentID: req.DocumentID,
		Email:      req.Email,
		Phone:      req.Phone,
		Segment:    req.Segment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToClientResponse(created))
}

func (h *ClientHandler) ListClients(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit, offset := common.Paginate(pagination(c))
	clients, total, err := h.listUC.Execute(c.Request.Context(), userID, c.Query("search"), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToClientResponses(clients), total, limit, offset)
}

func (h *ClientHandler) GetClient(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	clientID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	found, err := h.getUC.Execute(c.Request.Context(), clientID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToClientResponse(found))
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	clientID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	updated, err := h.updateUC.Execute(c.Request.Context(), clientID, userID, req.ToChanges())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToClientResponse(updated))
}
