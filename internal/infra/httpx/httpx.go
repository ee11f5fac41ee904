package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultUserAgent 是访问 catalog API 时使用的 UA。
const DefaultUserAgent = "mvbrowse/1.0 (+https://github.com/John-Robertt/mvbrowse)"

// Transport 把“固定 UA + JSON Accept + keep-alive 策略”固化为统一策略。
//
// 约束：不做重试、不做限速、不做缓存；超时由调用方的 ctx 控制。
type Transport struct {
	Base *http.Transport

	UserAgent string

	// DisableKeepAlives 决定是否对 Request 设置 Close=true。
	// 真正禁用 keep-alive 依赖 Base.DisableKeepAlives。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// Clone：不在 RoundTripper 内部修改调用方的 request。
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" {
		ua := t.UserAgent
		if ua == "" {
			ua = DefaultUserAgent
		}
		r.Header.Set("User-Agent", ua)
	}
	if r.Header.Get("Accept") == "" {
		r.Header.Set("Accept", "application/json")
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return t.Base.RoundTrip(r)
}

// NewCatalogClient 构造访问 catalog API 的 HTTP client。
//
// 规则：
// - proxyURL 非空：走代理，且禁用 keep-alive
// - 单请求超时由 Fetcher 用 ctx 控制；这里的 Timeout 只是兜底（2 倍）
// - 扇出时所有请求同时在途，连接池按 region 数放宽
func NewCatalogClient(proxyURL string, requestTimeout time.Duration) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		MaxIdleConnsPerHost:   16,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	disableKeepAlives := false
	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	var timeout time.Duration
	if requestTimeout > 0 {
		timeout = 2 * requestTimeout
	}

	return &http.Client{
		Transport: &Transport{
			Base:              base,
			UserAgent:         DefaultUserAgent,
			DisableKeepAlives: disableKeepAlives,
		},
		Timeout: timeout,
	}, nil
}
