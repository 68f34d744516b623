package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/http/middleware"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/dto"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/response"
	"github.com/ignatzorin/proposal-engine/internal/usecase/tracking"
)

// TransparentPixel: прозрачный PNG 1×1.
var TransparentPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=",
)

type TrackingHandler struct {
	recordUC *tracking.RecordEventUseCase
}

func NewTrackingHandler(recordUC *tracking.RecordEventUseCase) *TrackingHandler {
	return &TrackingHandler{recordUC: recordUC}
}

// TrackEvent обрабатывает POST /api/track/event.
func (h *TrackingHandler) TrackEvent(c *gin.Context) {
	var req dto.TrackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	proposalID, err := uuid.Parse(req.ProposalID)
	if err != nil {
		response.BadRequest(c, "proposal_id должен быть валидным UUID")
		return
	}
	input := tracking.RecordInput{
		ProposalID: proposalID,
		Type:       req.Type,
		Metadata:   req.Metadata,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
	if req.VersionID != nil && *req.VersionID != "" {
		versionID, err := uuid.Parse(*req.VersionID)
		if err != nil {
			response.BadRequest(c, "version_id должен быть валидным UUID")
			return
		}
		input.VersionID = &versionID
	}

	result, err := h.recordUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.TrackEventResponse{Event: dto.ToEventResponse(result.Event)}
	if result.Transition != nil {
		to := string(*result.Transition)
		resp.StatusChangedTo = &to
	}
	response.Created(c, resp)
}

// TrackOpen обрабатывает GET /api/track/open?pid=&vid=. Всегда отдаёт пиксель,
// сверх лимита открытие не записывается.
func (h *TrackingHandler) TrackOpen(c *gin.Context) {
	if !middleware.IsRateLimited(c) {
		h.recordUC.TrackOpen(c.Request.Context(), c.Query("pid"), c.Query("vid"), c.ClientIP(), c.Request.UserAgent())
	}

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Header("Pragma", "no-cache")
	c.Data(http.StatusOK, "image/png", TransparentPixel)
}
