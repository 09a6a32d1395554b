package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxBodySize = 32 << 20

// Client 对上游HTTP接口的薄封装，统一超时、错误分类和日志
type Client struct {
	hc  *http.Client
	log *zap.SugaredLogger
}

func NewClient(log *zap.SugaredLogger) *Client {
	return &Client{
		hc:  &http.Client{Timeout: 15 * time.Second},
		log: log.Named("upstream"),
	}
}

// NewClientWithHTTP 测试时注入自定义http.Client
func NewClientWithHTTP(hc *http.Client, log *zap.SugaredLogger) *Client {
	return &Client{hc: hc, log: log.Named("upstream")}
}

func (c *Client) do(ctx context.Context, api, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{API: api, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Warnw("request failed", "api", api, "url", url, "error", err)
		return nil, &NetworkError{API: api, Err: err}
	}
	return resp, nil
}

// GetJSON 获取并解析JSON响应，非200视为上游错误
func (c *Client) GetJSON(ctx context.Context, api, url string, headers map[string]string, out any) error {
	resp, err := c.do(ctx, api, url, headers)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return &UpstreamError{API: api, StatusCode: resp.StatusCode, Detail: string(snippet)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &NetworkError{API: api, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{API: api, Detail: "invalid json: " + err.Error()}
	}
	return nil
}

// GetBytes 下载原始字节，用于图片
func (c *Client) GetBytes(ctx context.Context, api, url string) ([]byte, error) {
	resp, err := c.do(ctx, api, url, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{API: api, StatusCode: resp.StatusCode, Detail: "unexpected status"}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{API: api, Err: err}
	}
	if len(data) == 0 {
		return nil, &UpstreamError{API: api, Detail: "empty body"}
	}
	return data, nil
}
