package service

import (
	"errors"
)

// 媒体操作的错误类别，处理器据此映射 HTTP 状态码.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream error")
	ErrInternal   = errors.New("internal error")
)

// MediaError 携带类别、面向调用方的说明与可选的上游错误负载.
type MediaError struct {
	Kind    error
	Message string
	// Detail 上游原始错误负载（JSON 或文本），没有时为 nil
	Detail any
	Err    error
}

func (e *MediaError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

// Unwrap 同时暴露类别与底层错误.
func (e *MediaError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}

	return []error{e.Kind}
}

func badRequest(msg string) *MediaError {
	return &MediaError{Kind: ErrBadRequest, Message: msg}
}

func notFound(msg string) *MediaError {
	return &MediaError{Kind: ErrNotFound, Message: msg}
}

func upstream(msg string, detail any, err error) *MediaError {
	return &MediaError{Kind: ErrUpstream, Message: msg, Detail: detail, Err: err}
}

func internal(msg string, err error) *MediaError {
	return &MediaError{Kind: ErrInternal, Message: msg, Err: err}
}

// AsMediaError 提取 MediaError，其他错误视为内部错误.
func AsMediaError(err error) *MediaError {
	var me *MediaError
	if errors.As(err, &me) {
		return me
	}

	return internal("internal error", err)
}
