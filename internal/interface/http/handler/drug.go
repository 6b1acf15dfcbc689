package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appdrug "github.com/weihan/medstock/internal/application/drug"
	"github.com/weihan/medstock/internal/interface/http/dto"
	apperrors "github.com/weihan/medstock/pkg/errors"
	"github.com/weihan/medstock/pkg/response"
)

// DrugHandler 药品HTTP处理器
type DrugHandler struct {
	createUseCase      *appdrug.CreateDrugUseCase
	listUseCase        *appdrug.ListDrugsUseCase
	lowStockUseCase    *appdrug.LowStockUseCase
	updateStockUseCase *appdrug.UpdateStockUseCase
}

// NewDrugHandler 创建药品处理器
func NewDrugHandler(
	createUseCase *appdrug.CreateDrugUseCase,
	listUseCase *appdrug.ListDrugsUseCase,
	lowStockUseCase *appdrug.LowStockUseCase,
	updateStockUseCase *appdrug.UpdateStockUseCase,
) *DrugHandler {
	return &DrugHandler{
		createUseCase:      createUseCase,
		listUseCase:        listUseCase,
		lowStockUseCase:    lowStockUseCase,
		updateStockUseCase: updateStockUseCase,
	}
}

// Create 录入药品
// @Summary      录入药品
// @Description  名称+剂型+规格三元组唯一
// @Tags         药品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateDrugRequest true "药品信息"
// @Success      200 {object} response.Response{data=appdrug.DrugItem} "录入成功"
// @Failure      400 {object} response.Response "参数错误或三元组重复"
// @Router       /api/v1/drugs [post]
func (h *DrugHandler) Create(c *gin.Context) {
	var req dto.CreateDrugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), appdrug.CreateDrugRequest{
		Name:              req.Name,
		Form:              req.Form,
		Strength:          req.Strength,
		InitialStock:      req.InitialStock,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// List 药品目录
// @Summary      药品目录
// @Description  游标分页；传skip参数时走偏移分页兼容旧客户端
// @Tags         药品
// @Produce      json
// @Security     BearerAuth
// @Param        cursor query string false "上一页返回的游标"
// @Param        limit  query int    false "页大小(默认20,最大100)"
// @Param        kind   query string false "排序键: name(默认)或id"
// @Param        skip   query int    false "偏移量(旧接口)"
// @Success      200 {object} response.Response{data=appdrug.ListDrugsResponse} "查询成功"
// @Router       /api/v1/drugs [get]
func (h *DrugHandler) List(c *gin.Context) {
	// 旧客户端以skip参数区分
	if skipStr := c.Query("skip"); skipStr != "" {
		skip, _ := strconv.Atoi(skipStr)
		limit, _ := strconv.Atoi(c.Query("limit"))
		result, err := h.listUseCase.ExecuteOffset(c.Request.Context(), appdrug.ListDrugsOffsetRequest{
			Skip:  skip,
			Limit: limit,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, result)
		return
	}

	var query dto.CursorQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appdrug.ListDrugsRequest{
		Cursor: query.Cursor,
		Limit:  query.Limit,
		Kind:   query.Kind,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// LowStock 低库存视图
// @Summary      低库存药品
// @Description  库存不高于阈值的药品，补货巡检入口
// @Tags         药品
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appdrug.LowStockResponse} "查询成功"
// @Router       /api/v1/drugs/low-stock [get]
func (h *DrugHandler) LowStock(c *gin.Context) {
	result, err := h.lowStockUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStock 直接调整库存
// @Summary      调整库存
// @Description  以非负值替换当前库存(盘点/入库)
// @Tags         药品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                    true "药品ID"
// @Param        request body dto.UpdateStockRequest true "替换后的库存值"
// @Success      200 {object} response.Response{data=appdrug.DrugItem} "调整成功"
// @Failure      400 {object} response.Response "参数错误或负库存"
// @Router       /api/v1/drugs/{id}/stock [put]
func (h *DrugHandler) UpdateStock(c *gin.Context) {
	drugID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "药品ID不合法")
		return
	}

	var req dto.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.updateStockUseCase.Execute(c.Request.Context(), appdrug.UpdateStockRequest{
		DrugID: drugID,
		Stock:  *req.Stock,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parseIDParam 解析路径中的数字ID
func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrInvalidParams
	}
	return uint(id), nil
}
