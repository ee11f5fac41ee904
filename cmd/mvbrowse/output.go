package main

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/John-Robertt/mvbrowse/internal/app/browse"
	"github.com/John-Robertt/mvbrowse/internal/config"
	"github.com/John-Robertt/mvbrowse/internal/domain"
)

// report 是 stdout 非 TTY 时输出的唯一 JSON 文档。
type report struct {
	Command   string          `json:"command"`
	OK        bool            `json:"ok"`
	Count     int             `json:"count"`
	Items     any             `json:"items,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Out       string          `json:"out,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// presenter 是 CLI 的结果输出端，每个命令恰好输出一次。
type presenter struct {
	command   string
	stdout    io.Writer
	stderr    io.Writer
	tty       bool
	imageBase string
	started   time.Time

	mu     sync.Mutex
	failed bool
}

var _ browse.Presenter = (*presenter)(nil)

func (c *cli) presenter(command string) *presenter {
	return &presenter{
		command:   command,
		stdout:    c.stdout,
		stderr:    c.stderr,
		tty:       c.tty,
		imageBase: c.eff.ImageBaseURL,
		started:   time.Now(),
	}
}

func (p *presenter) ShowMovies(res domain.Result[[]domain.Movie]) {
	rep := p.base(res.Err)
	rep.Items = nonNil(res.Value)
	rep.Count = len(res.Value)
	p.emit(rep, func(u listUI) { u.movies(res.Value) })
}

func (p *presenter) ShowCredits(res domain.Result[[]domain.Actor]) {
	rep := p.base(res.Err)
	rep.Items = nonNil(res.Value)
	rep.Count = len(res.Value)
	p.emit(rep, func(u listUI) { u.cast(res.Value, p.imageBase) })
}

func (p *presenter) ShowDetail(res domain.Result[domain.Detail]) {
	rep := p.base(res.Err)
	if res.OK() {
		rep.Detail = json.RawMessage(res.Value)
		rep.Count = 1
	}
	p.emit(rep, func(u listUI) { u.detail(res.Value) })
}

// ShowRendered 输出 render 命令的结果（HTML 已写入 out）。
func (p *presenter) ShowRendered(out string, count int, err error) {
	rep := p.base(err)
	if err == nil {
		rep.Out = out
		rep.Count = count
	}
	p.emit(rep, nil)
}

// ShowError 输出配置等前置阶段的失败。
func (p *presenter) ShowError(err error) {
	p.emit(p.base(err), nil)
}

func (p *presenter) base(err error) report {
	rep := report{Command: p.command, OK: err == nil}
	if err != nil {
		rep.ErrorCode = errorCode(err)
		rep.Error = err.Error()
	}
	return rep
}

func (p *presenter) emit(rep report, human func(listUI)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !rep.OK {
		p.failed = true
	}
	if p.tty {
		if rep.OK && human != nil {
			human(listUI{w: p.stdout})
		}
	} else {
		// stdout 非 TTY：stdout 必须且仅输出一个 JSON 文档（日志/摘要走 stderr）。
		_ = json.NewEncoder(p.stdout).Encode(rep)
	}
	summary(p.stderr, rep, time.Since(p.started))
}

// exit 把结果转换为命令返回值（失败时退出码 1）。
func (p *presenter) exit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed {
		return failed
	}
	return nil
}

func errorCode(err error) string {
	if c := config.Code(err); c != "" {
		return c
	}
	return browse.ErrorCode(err)
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
