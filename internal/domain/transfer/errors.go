package transfer

import (
	apperrors "github.com/weihan/medstock/pkg/errors"
)

// 库存转移领域错误定义
var (
	// ErrTransferNotFound 转移记录不存在
	ErrTransferNotFound = apperrors.New(apperrors.ErrCodeNotFound, "转移记录不存在")

	// ErrInvalidTransfer 转移参数不合法
	ErrInvalidTransfer = apperrors.New(apperrors.ErrCodeInvalidTransfer, "来源与目的科室不能为空")

	// ErrSameWard 来源与目的科室相同
	ErrSameWard = apperrors.New(apperrors.ErrCodeInvalidTransfer, "来源与目的科室不能相同")

	// ErrInvalidQuantity 转移数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidTransfer, "转移数量必须大于0")
)
