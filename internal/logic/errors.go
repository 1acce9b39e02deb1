package logic

import (
	"errors"
	"fmt"

	"github.com/blues/civicops/internal/repository"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("not found")
	// ErrValidation 请求参数不合法
	ErrValidation = errors.New("validation failed")
	// ErrInvalidAction 当前状态下不允许的审批操作
	ErrInvalidAction = errors.New("invalid action")
	// ErrVersionConflict 提交的版本号与存储不一致
	ErrVersionConflict = errors.New("version conflict")
)

// notFound 将仓储层的 ErrNotFound 转换为业务层错误
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
