package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/weihan/medstock/pkg/errors"
)

// Response 统一响应结构
// Code是业务错误码（0表示成功），Message是提示信息，Data是业务数据
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应（自动提取AppError）
// 业务错误（4xxxx）返回200+业务码，持久层错误（5xxxx）返回503，调用方可重试
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)

	status := http.StatusOK
	if !apperrors.IsBusinessError(appErr) {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// ErrorWithCode 指定错误码的错误响应
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// PageData 偏移分页响应数据（兼容旧接口）
type PageData struct {
	List       interface{} `json:"list"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// NewPageData 构建偏移分页数据
func NewPageData(list interface{}, total int64, page, pageSize int) *PageData {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// CursorPageData 游标分页响应数据
// NextCursor为不透明游标，客户端原样回传；HasNext为false时翻页结束
type CursorPageData struct {
	Items      interface{} `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasNext    bool        `json:"has_next"`
}

// SuccessWithCursor 游标分页成功响应
func SuccessWithCursor(c *gin.Context, items interface{}, nextCursor string, hasNext bool) {
	Success(c, &CursorPageData{
		Items:      items,
		NextCursor: nextCursor,
		HasNext:    hasNext,
	})
}
