package kabus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"kabuscalp/internal/config"
)

// Client 负责与 kabu STATION 本地网关交互并实现重试机制。
type Client struct {
	cfg    config.KabusConfig
	httpc  *http.Client
	tokens *TokenProvider
	logger *zap.Logger
}

// NewClient 构造网关客户端。
func NewClient(cfg config.KabusConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("kabus: base_url 不能为空")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpc := &http.Client{Timeout: timeout}

	return &Client{
		cfg:    cfg,
		httpc:  httpc,
		tokens: NewTokenProvider(httpc, cfg.BaseURL, cfg.APIPassword, cfg.TokenTTL, logger),
		logger: logger,
	}, nil
}

// GetBoard 获取指定标的的行情快照。
func (c *Client) GetBoard(ctx context.Context, symbol string) (BoardSnapshot, error) {
	var payload boardPayload
	err := c.callWithRetry(ctx, "get_board", func() error {
		return c.doJSON(ctx, http.MethodGet, "/board/"+url.PathEscape(symbol), nil, nil, &payload)
	})
	if err != nil {
		return BoardSnapshot{}, err
	}
	return convertBoard(payload), nil
}

// GetOrders 查询订单，filter 的零值字段不参与过滤。
func (c *Client) GetOrders(ctx context.Context, filter OrdersFilter) ([]Order, error) {
	query := url.Values{}
	if filter.Product != "" {
		query.Set("product", filter.Product)
	}
	if filter.Symbol != "" {
		query.Set("symbol", filter.Symbol)
	}
	if filter.Side != "" {
		query.Set("side", filter.Side)
	}
	if filter.ID != "" {
		query.Set("id", filter.ID)
	}
	if !filter.Updtime.IsZero() {
		query.Set("updtime", filter.Updtime.Format("20060102150405"))
	}

	var payload []orderPayload
	err := c.callWithRetry(ctx, "get_orders", func() error {
		return c.doJSON(ctx, http.MethodGet, "/orders", query, nil, &payload)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(payload))
	for _, p := range payload {
		orders = append(orders, convertOrder(p))
	}
	return orders, nil
}

// GetPositions 查询持仓。
func (c *Client) GetPositions(ctx context.Context, filter PositionsFilter) ([]Position, error) {
	query := url.Values{}
	if filter.Product != "" {
		query.Set("product", filter.Product)
	}
	if filter.Symbol != "" {
		query.Set("symbol", filter.Symbol)
	}
	if filter.Side != "" {
		query.Set("side", filter.Side)
	}
	query.Set("addinfo", "false")

	var payload []positionPayload
	err := c.callWithRetry(ctx, "get_positions", func() error {
		return c.doJSON(ctx, http.MethodGet, "/positions", query, nil, &payload)
	})
	if err != nil {
		return nil, err
	}

	positions := make([]Position, 0, len(payload))
	for _, p := range payload {
		positions = append(positions, convertPosition(p))
	}
	return positions, nil
}

// GetCashBalance 查询现物买付余力。
func (c *Client) GetCashBalance(ctx context.Context) (float64, error) {
	var payload walletPayload
	err := c.callWithRetry(ctx, "get_cash", func() error {
		return c.doJSON(ctx, http.MethodGet, "/wallet/cash", nil, nil, &payload)
	})
	if err != nil {
		return 0, err
	}
	return deref(payload.StockAccountWallet), nil
}

// SendOrder 提交现物委托并返回订单号。下单不做自动重试，避免重复委托。
func (c *Client) SendOrder(ctx context.Context, req OrderRequest) (string, error) {
	exchange := req.Exchange
	if exchange == 0 {
		exchange = c.cfg.Exchange
	}
	delivType := 0
	fundType := "  "
	if req.Side == SideBuy {
		delivType = 2
		fundType = "02"
	}

	body := map[string]interface{}{
		"Symbol":         req.Symbol,
		"Exchange":       exchange,
		"SecurityType":   1,
		"Side":           req.Side,
		"CashMargin":     1,
		"DelivType":      delivType,
		"FundType":       fundType,
		"AccountType":    4,
		"Qty":            req.Qty,
		"FrontOrderType": 20,
		"Price":          req.Price,
		"ExpireDay":      0,
	}

	var payload sendOrderPayload
	if err := c.doJSON(ctx, http.MethodPost, "/sendorder", nil, body, &payload); err != nil {
		return "", err
	}
	if payload.OrderID == "" {
		return "", fmt.Errorf("kabus: 下单响应缺少订单号 result=%d", payload.Result)
	}
	return payload.OrderID, nil
}

// CancelOrder 撤销指定订单。仅尝试一次，失败由上层记录。
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	body := map[string]interface{}{"OrderId": orderID}
	var payload sendOrderPayload
	return c.doJSON(ctx, http.MethodPut, "/cancelorder", nil, body, &payload)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("kabus: 序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("kabus: 构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-KEY", token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("kabus: 请求 %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("kabus: 读取响应失败: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.tokens.Invalidate()
		return fmt.Errorf("%w: %s", ErrUnauthorized, path)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		var apiErr apiErrorPayload
		_ = json.Unmarshal(raw, &apiErr)
		return &APIError{HTTPStatus: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("kabus: 解析 %s 响应失败: %w", path, err)
	}
	return nil
}

func (c *Client) callWithRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	delay := c.cfg.Retry.MinDelay
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	maxDelay := c.cfg.Retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 3 * time.Second
	}
	maxAttempts := c.cfg.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		attempt++
		start := time.Now()
		err := fn()
		duration := time.Since(start)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("网关调用重试后成功",
					zap.String("operation", operation),
					zap.Int("attempts", attempt),
					zap.Duration("latency", duration),
				)
			}
			return nil
		}

		// 令牌失效已在 doJSON 中作废，重放一次即可拿到新令牌。
		retry := IsRetryable(err) || errors.Is(err, ErrUnauthorized)

		if !retry || attempt >= maxAttempts {
			c.logger.Error("网关调用失败",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Duration("latency", duration),
				zap.Error(err),
			)
			return err
		}

		wait := delay
		if wait > maxDelay {
			wait = maxDelay
		}

		c.logger.Warn("网关调用失败，等待重试",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
