package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
)

// APIError 上游返回非成功状态（或 ok=false）时的错误，保留原始响应体.
type APIError struct {
	Method     string
	StatusCode int
	Body       []byte
}

func newAPIError(method string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return &APIError{Method: method, StatusCode: resp.StatusCode, Body: body}
}

func (e *APIError) Error() string {
	var envelope apiResponse
	if err := sonic.Unmarshal(e.Body, &envelope); err == nil && envelope.Description != "" {
		return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.StatusCode, envelope.Description)
	}

	return fmt.Sprintf("telegram %s: status %d", e.Method, e.StatusCode)
}

// Payload 返回可直接放进 JSON 响应的错误负载：合法 JSON 原样返回，否则返回文本.
func (e *APIError) Payload() any {
	if len(e.Body) == 0 {
		return nil
	}

	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}

	return string(e.Body)
}

// TransportError 请求没有拿到上游响应（构造失败、连接失败、超时等）.
// 请求 URL 中带有 bot token，这里只保留方法名与底层原因.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telegram %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// requestError 剥离 *url.Error 携带的 URL.
func requestError(method string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	return &TransportError{Method: method, Err: err}
}
