package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apptransfer "github.com/weihan/medstock/internal/application/transfer"
	"github.com/weihan/medstock/internal/interface/http/dto"
	"github.com/weihan/medstock/internal/interface/http/middleware"
	apperrors "github.com/weihan/medstock/pkg/errors"
	"github.com/weihan/medstock/pkg/response"
)

// TransferHandler 库存转移HTTP处理器
type TransferHandler struct {
	transferUseCase *apptransfer.TransferStockUseCase
	listUseCase     *apptransfer.ListTransfersUseCase
}

// NewTransferHandler 创建库存转移处理器
func NewTransferHandler(
	transferUseCase *apptransfer.TransferStockUseCase,
	listUseCase *apptransfer.ListTransfersUseCase,
) *TransferHandler {
	return &TransferHandler{
		transferUseCase: transferUseCase,
		listUseCase:     listUseCase,
	}
}

// Transfer 科室间库存转移
// @Summary      库存转移
// @Description  行锁内校验数量与库存，同一事务扣减库存并落审计行
// @Tags         库存转移
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                      true "药品ID"
// @Param        request body dto.TransferStockRequest true "转移信息"
// @Success      200 {object} response.Response{data=apptransfer.TransferRecord} "转移成功"
// @Failure      400 {object} response.Response "参数错误、同科室或库存不足"
// @Router       /api/v1/drugs/{id}/transfers [post]
func (h *TransferHandler) Transfer(c *gin.Context) {
	drugID, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "药品ID不合法")
		return
	}

	var req dto.TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.transferUseCase.Execute(c.Request.Context(), apptransfer.TransferStockRequest{
		DrugID:          drugID,
		SourceWard:      req.SourceWard,
		DestinationWard: req.DestinationWard,
		Quantity:        req.Quantity,
		ActorID:         middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// List 转移记录列表
// @Summary      转移记录
// @Description  游标分页，转移时间降序；传skip走偏移分页
// @Tags         库存转移
// @Produce      json
// @Security     BearerAuth
// @Param        cursor query string false "上一页返回的游标"
// @Param        limit  query int    false "页大小(默认20,最大100)"
// @Param        kind   query string false "排序键: date(默认)或id"
// @Param        skip   query int    false "偏移量(旧接口)"
// @Success      200 {object} response.Response{data=apptransfer.ListTransfersResponse} "查询成功"
// @Router       /api/v1/transfers [get]
func (h *TransferHandler) List(c *gin.Context) {
	if skipStr := c.Query("skip"); skipStr != "" {
		skip, _ := strconv.Atoi(skipStr)
		limit, _ := strconv.Atoi(c.Query("limit"))
		result, err := h.listUseCase.ExecuteOffset(c.Request.Context(), apptransfer.ListTransfersOffsetRequest{
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

	result, err := h.listUseCase.Execute(c.Request.Context(), apptransfer.ListTransfersRequest{
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
