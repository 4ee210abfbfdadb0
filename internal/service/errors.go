package service

import (
	"fmt"

	"github.com/Laisky/errors/v2"
)

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrBlogNotFound      = errors.New("blog not found")
	ErrGuestPostNotFound = errors.New("guest post not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrUserNotFound      = errors.New("user not found")

	ErrCategoryExists    = errors.New("category already exists")
	ErrCategoryInUse     = errors.New("category is used by blogs")
	ErrSlugTaken         = errors.New("slug already taken")
	ErrUserExists        = errors.New("user already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid status")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrRateLimited        = errors.New("too many requests")

	// ErrValidation 匹配所有 *ValidationError。
	ErrValidation = errors.New("validation failed")
)

// ValidationError 描述单个字段的校验失败，Message 可直接返回给调用方。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is 让 errors.Is(err, ErrValidation) 成立。
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidField(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
