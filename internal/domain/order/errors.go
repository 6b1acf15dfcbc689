package order

import (
	apperrors "github.com/weihan/medstock/pkg/errors"
)

// 医嘱领域错误定义
var (
	// ErrOrderNotFound 医嘱不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "医嘱不存在")

	// ErrOrderAlreadyCompleted 医嘱已完成，不可重复履约
	ErrOrderAlreadyCompleted = apperrors.New(apperrors.ErrCodeStateConflict, "医嘱已完成")

	// ErrInvalidStatusTransition 非法的状态转换（如对已停用医嘱履约）
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeStateConflict, "医嘱状态不允许此操作")

	// ErrInvalidOrder 医嘱字段不合法
	ErrInvalidOrder = apperrors.New(apperrors.ErrCodeInvalidParams, "患者姓名不能为空")

	// ErrInvalidDosage 剂量不合法
	ErrInvalidDosage = apperrors.New(apperrors.ErrCodeInvalidParams, "剂量必须大于0")

	// ErrEmptyBatch 批量履约的医嘱列表为空
	ErrEmptyBatch = apperrors.New(apperrors.ErrCodeInvalidParams, "医嘱ID列表不能为空")
)
