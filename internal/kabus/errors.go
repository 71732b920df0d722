package kabus

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrUnauthorized 表示令牌失效，需要重新取得后再试。
	ErrUnauthorized = errors.New("kabus: token rejected")
	// ErrNotFound 表示请求的资源不存在。
	ErrNotFound = errors.New("kabus: not found")
)

// APIError 为网关返回的业务错误。
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kabus: 网关返回错误 status=%d code=%d message=%s", e.HTTPStatus, e.Code, e.Message)
}

// IsRetryable 判断错误是否可重试。令牌失效不在此列，由客户端刷新令牌后单独重放。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatus == 429:
			return true
		case apiErr.HTTPStatus >= 500:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}
