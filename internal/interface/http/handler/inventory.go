package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/flashorder/internal/application/inventory"
	"github.com/xiebiao/flashorder/internal/interface/http/dto"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
	"github.com/xiebiao/flashorder/pkg/response"
)

// InventoryHandler 库存HTTP处理器
type InventoryHandler struct {
	useCase *appinventory.UseCase
}

func NewInventoryHandler(useCase *appinventory.UseCase) *InventoryHandler {
	return &InventoryHandler{useCase: useCase}
}

// Initialize 初始化库存
// @Summary      初始化商品库存
// @Description  每个商品只能初始化一次，全部库存可售，version从1开始
// @Tags         库存
// @Accept       json
// @Produce      json
// @Param        request body dto.InitializeInventoryRequest true "库存信息"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "库存已存在"
// @Router       /api/v1/inventory [post]
func (h *InventoryHandler) Initialize(c *gin.Context) {
	var req dto.InitializeInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	rec, err := h.useCase.InitializeInventory(c.Request.Context(), appinventory.InitializeRequest{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		TotalStock:  req.TotalStock,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryResponse(rec))
}

// Get 库存快照
// @Summary      查询库存
// @Tags         库存
// @Produce      json
// @Param        productId path string true "商品ID"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      404 {object} response.Response "库存不存在"
// @Router       /api/v1/inventory/{productId} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	rec, err := h.useCase.GetInventory(c.Request.Context(), c.Param("productId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryResponse(rec))
}

// ListLogs 库存流水
// @Summary      库存流水
// @Tags         库存
// @Produce      json
// @Param        productId path string true "商品ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页条数" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.InventoryLogResponse}}
// @Router       /api/v1/inventory/{productId}/logs [get]
func (h *InventoryHandler) ListLogs(c *gin.Context) {
	var req dto.ListInventoryLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	logs, total, err := h.useCase.ListInventoryLogs(c.Request.Context(), c.Param("productId"), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	list := make([]dto.InventoryLogResponse, 0, len(logs))
	for _, l := range logs {
		list = append(list, dto.NewInventoryLogResponse(l))
	}
	page, size := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	response.SuccessWithPage(c, list, total, page, size)
}
