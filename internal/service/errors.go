package service

import (
	"errors"
	"fmt"

	"crowdguard/internal/validation"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrNoChange           = errors.New("no changes made")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

// Error 业务错误：Kind 为上面的哨兵错误之一，Message 直接返回给前端
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// validate 校验请求体，失败时包装为 ErrInvalidInput
func validate(v interface{}) error {
	if err := validation.ValidateStruct(v); err != nil {
		return newError(ErrInvalidInput, "%s", err.Error())
	}
	return nil
}
