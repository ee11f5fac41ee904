package catalog

import (
	"fmt"
	"net/url"
	"time"
)

// NetworkError 表示传输失败或 catalog 返回了非 2xx 状态码。
type NetworkError struct {
	URL        string // 已脱敏
	StatusCode int    // 0 表示没有拿到响应
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog 请求失败：HTTP %d url=%s", e.StatusCode, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("catalog 请求失败：url=%s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("catalog 请求失败：url=%s", e.URL)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError 表示响应体不是合法 JSON，或缺少期望的字段。
type DecodeError struct {
	URL string // 已脱敏；解码离线数据时可为空
	Err error
}

func (e *DecodeError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("catalog 响应解析失败：%v", e.Err)
	}
	return fmt.Sprintf("catalog 响应解析失败：url=%s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TimeoutError 表示单个请求超过了配置的超时时间。
type TimeoutError struct {
	URL   string // 已脱敏
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("catalog 请求超时（%s）：url=%s", e.After, e.URL)
}

// Timeout 让 TimeoutError 满足 net.Error 风格的判断。
func (e *TimeoutError) Timeout() bool { return true }

// Redact 把 URL 中的 api_key 替换为 REDACTED，用于日志与错误信息。
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
