package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/dto"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/response"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
	"github.com/ignatzorin/proposal-engine/internal/usecase/catalog"
)

type CatalogHandler struct {
	createUC *catalog.CreateItemUseCase
	getUC    *catalog.GetItemUseCase
	listUC   *catalog.ListItemsUseCase
	updateUC *catalog.UpdateItemUseCase
}

func NewCatalogHandler(
	createUC *catalog.CreateItemUseCase,
	getUC *catalog.GetItemUseCase,
	listUC *catalog.ListItemsUseCase,
	updateUC *catalog.UpdateItemUseCase,
) *CatalogHandler {
	return &CatalogHandler{createUC: createUC, getUC: getUC, listUC: listUC, updateUC: updateUC}
}

func (h *CatalogHandler) CreateItem(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	var req dto.CreateCatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), catalog.CreateItemInput{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		UnitPrice:   req.UnitPrice,
		Currency:    req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToCatalogItemResponse(created))
}

// ListItems обрабатывает GET /api/catalog/items?category=&search=&active=true.
func (h *CatalogHandler) ListItems(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	limit, offset := common.Paginate(pagination(c))
	items, total, err := h.listUC.Execute(c.Request.Context(), repository.CatalogFilter{
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		ActiveOnly: c.Query("active") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToCatalogItemResponses(items), total, limit, offset)
}

func (h *CatalogHandler) GetItem(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	itemID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.getUC.Execute(c.Request.Context(), itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCatalogItemResponse(item))
}

func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	itemID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	updated, err := h.updateUC.Execute(c.Request.Context(), itemID, req.ToChanges())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCatalogItemResponse(updated))
}
