package kabus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TokenProvider 持有令牌与其有效期，失效时按需重新取得。
// 替代以往在进程级共享可变令牌的做法，所有状态封装在实例内部。
type TokenProvider struct {
	httpc    *http.Client
	baseURL  string
	password string
	ttl      time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenProvider 创建令牌提供器。
func NewTokenProvider(httpc *http.Client, baseURL, password string, ttl time.Duration, logger *zap.Logger) *TokenProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenProvider{
		httpc:    httpc,
		baseURL:  baseURL,
		password: password,
		ttl:      ttl,
		logger:   logger,
	}
}

// Token 返回当前有效令牌，必要时向网关重新申请。
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expires) {
		return p.token, nil
	}

	body, err := json.Marshal(map[string]string{"APIPassword": p.password})
	if err != nil {
		return "", fmt.Errorf("kabus: 序列化令牌请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("kabus: 构造令牌请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("kabus: 请求令牌失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("kabus: 读取令牌响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorPayload
		_ = json.Unmarshal(raw, &apiErr)
		return "", &APIError{HTTPStatus: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
	}

	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("kabus: 解析令牌响应失败: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("kabus: 网关返回空令牌 result_code=%d", payload.ResultCode)
	}

	p.token = payload.Token
	p.expires = time.Now().Add(p.ttl)
	p.logger.Info("kabus 令牌已刷新", zap.Time("expires", p.expires))

	return p.token, nil
}

// Invalidate 主动作废当前令牌，下次调用 Token 时强制重新申请。
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expires = time.Time{}
}
