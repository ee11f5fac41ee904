// Package catalog 负责对 catalog API 发起 GET 请求并解码 JSON。
//
// 约束：
// - 不缓存、不重试、不限速
// - FetchMany 同时发出全部请求；任一失败则整批失败，不返回部分结果
// - 结果按请求下标回填，顺序与输入一致（与完成顺序无关）
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/mvbrowse/internal/metrics"
)

// maxBodyBytes 限制单个响应体大小（catalog 列表页通常 < 100KB）。
const maxBodyBytes = 8 << 20

type Options struct {
	// Timeout 是单个请求的超时；<=0 表示不单独设超时。
	Timeout time.Duration
	Logger  hclog.Logger
	Metrics *metrics.Collectors
}

type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	log     hclog.Logger
	metrics *metrics.Collectors
}

func New(c *http.Client, opts Options) *Fetcher {
	if c == nil {
		c = http.DefaultClient
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Fetcher{
		client:  c,
		timeout: opts.Timeout,
		log:     log,
		metrics: opts.Metrics,
	}
}

// FetchOne 抓取单个 URL。
func (f *Fetcher) FetchOne(ctx context.Context, rawURL string) (json.RawMessage, error) {
	b, err := f.get(ctx, rawURL)
	if err != nil {
		f.log.Debug("fetch failed", "url", Redact(rawURL), "error", err)
		return nil, err
	}
	return b, nil
}

// FetchMany 并发抓取全部 URL，等待全部完成后按输入顺序返回。
// 任一请求失败会取消其余请求并返回该错误。
func (f *Fetcher) FetchMany(ctx context.Context, urls []string) ([]json.RawMessage, error) {
	batch := uuid.NewString()
	f.metrics.ObserveBatch(len(urls))
	f.log.Debug("fetch batch start", "batch", batch, "size", len(urls))

	out := make([]json.RawMessage, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			b, err := f.get(gctx, u)
			if err != nil {
				return err
			}
			// 每个 goroutine 只写自己的下标，无需加锁。
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		f.log.Debug("fetch batch failed", "batch", batch, "error", err)
		return nil, err
	}
	f.log.Debug("fetch batch done", "batch", batch)
	return out, nil
}

func (f *Fetcher) get(parent context.Context, rawURL string) (body json.RawMessage, err error) {
	started := time.Now()
	redacted := Redact(rawURL)
	defer func() {
		f.metrics.ObserveRequest(outcome(err), time.Since(started))
	}()

	ctx := parent
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &NetworkError{URL: redacted, Err: stripURL(err)}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.transportError(parent, ctx, redacted, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &NetworkError{URL: redacted, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, f.transportError(parent, ctx, redacted, err)
	}
	if !json.Valid(b) {
		return nil, &DecodeError{URL: redacted, Err: errors.New("响应体不是合法 JSON")}
	}
	return json.RawMessage(b), nil
}

// transportError 区分“本请求超时”与其他传输错误。
// 父 ctx 被取消（同批次失败/调用方取消）不算超时，按 NetworkError 返回并保留 ctx 错误。
func (f *Fetcher) transportError(parent, ctx context.Context, redacted string, err error) error {
	if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: redacted, After: f.timeout}
	}
	var ne net.Error
	if parent.Err() == nil && errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{URL: redacted, After: f.timeout}
	}
	if pe := parent.Err(); pe != nil {
		return &NetworkError{URL: redacted, Err: pe}
	}
	return &NetworkError{URL: redacted, Err: stripURL(err)}
}

// stripURL 去掉 *url.Error 外壳（其中含未脱敏的完整 URL）。
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var te *TimeoutError
	var de *DecodeError
	switch {
	case errors.As(err, &te):
		return metrics.OutcomeTimeout
	case errors.As(err, &de):
		return metrics.OutcomeDecode
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeNetwork
	}
}
