package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/proposal-engine/internal/interface/http/dto"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/response"
	"github.com/ignatzorin/proposal-engine/internal/usecase/signature"
)

type SignatureHandler struct {
	signUC *signature.SignProposalUseCase
}

func NewSignatureHandler(signUC *signature.SignProposalUseCase) *SignatureHandler {
	return &SignatureHandler{signUC: signUC}
}

// Sign обрабатывает POST /api/proposals/:id/versions/:versionId/sign.
// Публичный маршрут: подписант не авторизован, доступ определяется знанием id версии.
// Повторная подпись той же версии возвращает 200 и существующую запись.
func (h *SignatureHandler) Sign(c *gin.Context) {
	proposalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	versionID, ok := pathUUID(c, "versionId")
	if !ok {
		return
	}

	var req dto.SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	result, err := h.signUC.Execute(c.Request.Context(), signature.SignInput{
		ProposalID:    proposalID,
		VersionID:     versionID,
		SignerName:    req.SignerName,
		SignerEmail:   req.SignerEmail,
		Method:        req.Method,
		SignatureData: req.SignatureData,
		IP:            c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	c.JSON(status, response.Response{Success: true, Data: dto.ToSignResultResponse(result)})
}
