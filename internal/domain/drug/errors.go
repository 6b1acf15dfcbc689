package drug

import (
	apperrors "github.com/weihan/medstock/pkg/errors"
)

// 药品领域错误定义
var (
	// ErrDrugNotFound 药品不存在
	ErrDrugNotFound = apperrors.New(apperrors.ErrCodeDrugNotFound, "药品不存在")

	// ErrDrugDuplicate 名称+剂型+规格已存在
	ErrDrugDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "相同名称、剂型、规格的药品已存在")

	// ErrInvalidDrug 药品字段不合法
	ErrInvalidDrug = apperrors.New(apperrors.ErrCodeInvalidParams, "药品名称、剂型、规格不能为空")

	// ErrNegativeStock 库存不能为负
	ErrNegativeStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")

	// ErrInvalidThreshold 阈值不合法
	ErrInvalidThreshold = apperrors.New(apperrors.ErrCodeInvalidParams, "低库存阈值不能为负数")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")
)
