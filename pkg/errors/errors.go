package errors

import (
	"errors"
	"fmt"
)

// AppError 应用统一错误类型
// 设计说明：
// 1. Code是业务错误码（非HTTP状态码），客户端据此判断错误类型
// 2. Message是用户可读的提示信息
// 3. Err是底层错误，仅记录日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装持久层错误（数据库、Redis、网络）
// 业务错误用New定义，这里只处理基础设施故障
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// 错误码规范：
// - 4xxxx: 业务错误（参数不合法、状态冲突、库存不足），事务回滚后返回，不重试
// - 5xxxx: 持久层错误（数据库异常、锁等待超时、Redis故障），调用方可重试
const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeMQError       = 50003 // 消息队列错误

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 密码错误
	ErrCodeForbidden       = 40104 // 无权限

	// 资源不存在错误（40400-40499）
	ErrCodeNotFound      = 40400 // 资源不存在(通用)
	ErrCodeUserNotFound  = 40401 // 用户不存在
	ErrCodeDrugNotFound  = 40402 // 药品不存在
	ErrCodeOrderNotFound = 40403 // 医嘱不存在

	// 参数错误（40000-40099）
	ErrCodeInvalidParams = 40000 // 参数不合法
	ErrCodeInvalidCursor = 40001 // 分页游标不合法

	// 业务规则错误（40900-40999）
	ErrCodeBusinessError     = 40900 // 业务规则错误(通用)
	ErrCodeDuplicateEntry    = 40901 // 唯一键冲突
	ErrCodeInsufficientStock = 40902 // 库存不足
	ErrCodeStateConflict     = 40903 // 状态冲突(医嘱已完成/已停用)
	ErrCodeInvalidTransfer   = 40904 // 转移参数不合法
)

// 预定义错误（避免每次都New）
var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")

	// 认证授权
	ErrUnauthorized    = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "密码错误")
	ErrForbidden       = New(ErrCodeForbidden, "无权限访问")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrInvalidCursor = New(ErrCodeInvalidCursor, "分页游标不合法")
)

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError，非AppError统一归为内部错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "服务器内部错误")
}

// IsBusinessError 判断是否为业务错误（4xxxx）
// 业务错误事务回滚后直接返回，不应由调用方自动重试
func IsBusinessError(err error) bool {
	appErr := GetAppError(err)
	return appErr.Code >= 40000 && appErr.Code < 50000
}
