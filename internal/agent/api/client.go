// Package api 客户端核心访问后端的 HTTP 客户端
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"pair_chat_server/pkg/errorx"
)

// envelope 后端统一响应结构
type envelope struct {
	Code int             `json:"code"`
	Msg  json.RawMessage `json:"msg"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Client 携带访问令牌的后端客户端，并发安全
type Client struct {
	rest *resty.Client
}

// New timeout 为单次请求的兜底超时，状态变更类调用另由 ctx 控制
func New(baseURL, token string, timeout time.Duration) *Client {
	rest := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetLogger(zap.S())
	if token != "" {
		rest.SetAuthToken(token)
	}
	return &Client{rest: rest}
}

// option 调整单个请求，如路径参数、查询参数
type option func(*resty.Request)

func withPath(key, value string) option {
	return func(r *resty.Request) { r.SetPathParam(key, value) }
}

func withQuery(key, value string) option {
	return func(r *resty.Request) {
		if value != "" {
			r.SetQueryParam(key, value)
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, opts ...option) error {
	req := c.rest.R().SetContext(ctx)
	if in != nil {
		req.SetBody(in)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return transportError(err, method, path)
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		return errorx.Newf(errorx.CodeServerBusy, "%s %s: HTTP %d", method, path, resp.StatusCode())
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.StatusCode() != http.StatusOK {
			return errorx.Newf(errorx.CodeServerBusy, "%s %s: HTTP %d", method, path, resp.StatusCode())
		}
		return errorx.Wrapf(err, errorx.CodeServerBusy, "%s %s: 无法解析响应", method, path)
	}
	if env.Code != errorx.CodeSuccess {
		code := env.Code
		if code == 0 {
			code = errorx.CodeOfKind(env.Kind)
		}
		return errorx.New(code, message(env.Msg))
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errorx.Wrapf(err, errorx.CodeServerBusy, "%s %s: 无法解析数据", method, path)
		}
	}
	return nil
}

// message msg 可能是字符串，也可能是参数校验的字段映射
func message(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func transportError(err error, method, path string) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errorx.Wrapf(err, errorx.CodeTimeout, "%s %s 超时", method, path)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return errorx.Wrapf(err, errorx.CodeNetwork, "%s %s", method, path)
}
