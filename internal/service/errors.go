package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 表示输入不合法，操作在任何修改发生前被拒绝
	ErrValidation = errors.New("validation failed")
	// ErrStorage 表示持久化读写失败，内存中的状态仍然有效
	ErrStorage = errors.New("storage failure")
	// ErrPermissionDenied 表示通知权限未授予
	ErrPermissionDenied = errors.New("notification permission not granted")
	// ErrIntakeNotFound 在指定饮水记录不存在时返回
	ErrIntakeNotFound = errors.New("intake record not found")
	// ErrReminderNotFound 在指定提醒不存在时返回
	ErrReminderNotFound = errors.New("reminder not found")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
