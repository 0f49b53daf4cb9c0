// Package vds 封装远端暴力检测服务 (violence detection service) 的 HTTP 客户端
package vds

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Config struct {
	Addr    string // 服务地址，如 http://127.0.0.1:8000
	Timeout time.Duration
}

type Engine struct {
	cfg Config
	cli *http.Client
}

func NewEngine() Engine {
	return Engine{
		cli: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        30,
				MaxIdleConnsPerHost: 30,
				MaxConnsPerHost:     100,
			},
		},
	}
}

func (e Engine) SetConfig(cfg Config) Engine {
	e.cfg = cfg
	if cfg.Timeout > 0 {
		e.cli.Timeout = cfg.Timeout
	}
	return e
}

// ArtifactURL 将服务端相对路径解析为完整下载地址
// path 为空时返回空串，不视为错误
func (e Engine) ArtifactURL(path string) string {
	if path == "" {
		return ""
	}
	link, err := url.JoinPath(e.cfg.Addr, path)
	if err != nil {
		return ""
	}
	return link
}

// ErrMalformedResponse 响应体无法按所选模型的结构解析
var ErrMalformedResponse = errors.New("vds: malformed response")

// NetworkError 传输层失败，请求未得到 HTTP 响应
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("vds: network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceError 服务端返回非成功状态码
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("vds: service error: status %d", e.StatusCode)
}
