package user

import (
	apperrors "github.com/weihan/medstock/pkg/errors"
)

// 用户领域错误定义
var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.New(apperrors.ErrCodeUserNotFound, "用户不存在")

	// ErrEmailDuplicate 邮箱已注册
	ErrEmailDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "邮箱已注册")

	// ErrInvalidPassword 密码错误
	ErrInvalidPassword = apperrors.New(apperrors.ErrCodeInvalidPassword, "邮箱或密码错误")

	// ErrWeakPassword 密码强度不足
	ErrWeakPassword = apperrors.New(apperrors.ErrCodeInvalidParams, "密码应为8-20位且同时包含字母和数字")

	// ErrInvalidRole 角色不合法
	ErrInvalidRole = apperrors.New(apperrors.ErrCodeInvalidParams, "角色必须是doctor/nurse/pharmacist/admin之一")
)
