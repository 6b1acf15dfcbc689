package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weihan/medstock/internal/application/fulfillment"
	apporder "github.com/weihan/medstock/internal/application/order"
	"github.com/weihan/medstock/internal/interface/http/dto"
	"github.com/weihan/medstock/internal/interface/http/middleware"
	apperrors "github.com/weihan/medstock/pkg/errors"
	"github.com/weihan/medstock/pkg/response"
)

// OrderHandler 医嘱HTTP处理器
type OrderHandler struct {
	createUseCase      *apporder.CreateOrderUseCase
	listUseCase        *apporder.ListOrdersUseCase
	listByDoctor       *apporder.ListByDoctorUseCase
	marDashboard       *apporder.MARDashboardUseCase
	discontinueUseCase *apporder.DiscontinueOrderUseCase
	fulfillUseCase     *fulfillment.FulfillUseCase
	fulfillBulkUseCase *fulfillment.FulfillBulkUseCase
}

// NewOrderHandler 创建医嘱处理器
func NewOrderHandler(
	createUseCase *apporder.CreateOrderUseCase,
	listUseCase *apporder.ListOrdersUseCase,
	listByDoctor *apporder.ListByDoctorUseCase,
	marDashboard *apporder.MARDashboardUseCase,
	discontinueUseCase *apporder.DiscontinueOrderUseCase,
	fulfillUseCase *fulfillment.FulfillUseCase,
	fulfillBulkUseCase *fulfillment.FulfillBulkUseCase,
) *OrderHandler {
	return &OrderHandler{
		createUseCase:      createUseCase,
		listUseCase:        listUseCase,
		listByDoctor:       listByDoctor,
		marDashboard:       marDashboard,
		discontinueUseCase: discontinueUseCase,
		fulfillUseCase:     fulfillUseCase,
		fulfillBulkUseCase: fulfillBulkUseCase,
	}
}

// Create 开立医嘱
// @Summary      开立医嘱
// @Description  医生为患者开立用药医嘱，初始状态为active
// @Tags         医嘱
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateOrderRequest true "医嘱信息"
// @Success      200 {object} response.Response{data=apporder.CreateOrderResponse} "开立成功"
// @Failure      400 {object} response.Response "参数错误或药品不存在"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		PatientName: req.PatientName,
		DrugID:      req.DrugID,
		DoctorID:    middleware.GetUserID(c),
		Dosage:      req.Dosage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// List 医嘱列表
// @Summary      医嘱列表
// @Description  游标分页，药品/医生/给药记录全量装配；传skip走偏移分页
// @Tags         医嘱
// @Produce      json
// @Security     BearerAuth
// @Param        cursor query string false "上一页返回的游标"
// @Param        limit  query int    false "页大小(默认20,最大100)"
// @Param        kind   query string false "排序键: created_at(默认)或id"
// @Param        skip   query int    false "偏移量(旧接口)"
// @Success      200 {object} response.Response{data=apporder.ListOrdersResponse} "查询成功"
// @Router       /api/v1/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	if skipStr := c.Query("skip"); skipStr != "" {
		skip, _ := strconv.Atoi(skipStr)
		limit, _ := strconv.Atoi(c.Query("limit"))
		result, err := h.listUseCase.ExecuteOffset(c.Request.Context(), apporder.ListOrdersOffsetRequest{
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

	result, err := h.listUseCase.Execute(c.Request.Context(), apporder.ListOrdersRequest{
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

// ListByDoctor 某医生的全部医嘱
// @Summary      按医生查询医嘱
// @Tags         医嘱
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "医生ID"
// @Success      200 {object} response.Response{data=apporder.ListByDoctorResponse} "查询成功"
// @Router       /api/v1/orders/by-doctor/{id} [get]
func (h *OrderHandler) ListByDoctor(c *gin.Context) {
	doctorID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "医生ID不合法")
		return
	}

	result, err := h.listByDoctor.Execute(c.Request.Context(), doctorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// MARDashboard MAR给药看板
// @Summary      MAR给药看板
// @Description  执行中医嘱按患者分组，含每组待给药次数
// @Tags         医嘱
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=apporder.MARDashboardResponse} "查询成功"
// @Router       /api/v1/orders/mar [get]
func (h *OrderHandler) MARDashboard(c *gin.Context) {
	result, err := h.marDashboard.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Fulfill 履约医嘱
// @Summary      履约医嘱
// @Description  护士执行给药：行锁内校验状态与库存，扣库存、完成医嘱、落给药记录
// @Tags         医嘱
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "医嘱ID"
// @Success      200 {object} response.Response{data=fulfillment.FulfillmentResult} "履约成功"
// @Failure      400 {object} response.Response "状态冲突或库存不足"
// @Failure      503 {object} response.Response "持久层故障，可重试"
// @Router       /api/v1/orders/{id}/fulfill [post]
func (h *OrderHandler) Fulfill(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "医嘱ID不合法")
		return
	}

	result, err := h.fulfillUseCase.Execute(c.Request.Context(), fulfillment.FulfillRequest{
		OrderID: orderID,
		NurseID: middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// FulfillBulk 批量履约
// @Summary      批量履约
// @Description  单事务内逐个履约，任一失败整批回滚并报告失败的医嘱ID
// @Tags         医嘱
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.FulfillBulkRequest true "医嘱ID列表"
// @Success      200 {object} response.Response{data=fulfillment.FulfillBulkResponse} "全部履约成功"
// @Failure      400 {object} response.Response "任一医嘱校验失败，整批已回滚"
// @Router       /api/v1/orders/fulfill-bulk [post]
func (h *OrderHandler) FulfillBulk(c *gin.Context) {
	var req dto.FulfillBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.fulfillBulkUseCase.Execute(c.Request.Context(), fulfillment.FulfillBulkRequest{
		OrderIDs: req.OrderIDs,
		NurseID:  middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Discontinue 停用医嘱
// @Summary      停用医嘱
// @Description  active→discontinued，终态医嘱不可再履约
// @Tags         医嘱
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "医嘱ID"
// @Success      200 {object} response.Response{data=apporder.DiscontinueOrderResponse} "停用成功"
// @Failure      400 {object} response.Response "状态冲突"
// @Router       /api/v1/orders/{id}/discontinue [put]
func (h *OrderHandler) Discontinue(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "医嘱ID不合法")
		return
	}

	result, err := h.discontinueUseCase.Execute(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
