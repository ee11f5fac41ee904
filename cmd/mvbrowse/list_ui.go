package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/John-Robertt/mvbrowse/internal/config"
	"github.com/John-Robertt/mvbrowse/internal/domain"
)

// listUI 是交互终端下的人类可读输出（表格 + 摘要），只在 stdout 是 TTY 时使用。
type listUI struct {
	w io.Writer
}

func (u listUI) movies(ms []domain.Movie) {
	if len(ms) == 0 {
		fmt.Fprintln(u.w, "（没有结果）")
		return
	}
	width := len(strconv.Itoa(len(ms)))
	for i, m := range ms {
		fmt.Fprintf(u.w, "%*d. %s  %s  ★%s  #%d\n",
			width, i+1,
			padRight(truncate(m.Title, 40), 40),
			m.ReleaseDate,
			strconv.FormatFloat(m.VoteAverage, 'f', 1, 64),
			m.ID,
		)
	}
}

func (u listUI) cast(as []domain.Actor, imageBase string) {
	if len(as) == 0 {
		fmt.Fprintln(u.w, "（没有出演者）")
		return
	}
	width := len(strconv.Itoa(len(as)))
	for i, a := range as {
		img := "-"
		if a.ProfilePath != "" {
			img = strings.TrimRight(imageBase, "/") + a.ProfilePath
		}
		fmt.Fprintf(u.w, "%*d. %s  %s  %s\n",
			width, i+1,
			padRight(truncate(a.Name, 24), 24),
			padRight(truncate(a.Character, 24), 24),
			img,
		)
	}
}

func (u listUI) detail(d domain.Detail) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d, "", "  "); err != nil {
		fmt.Fprintln(u.w, string(d))
		return
	}
	fmt.Fprintln(u.w, buf.String())
}

func (u listUI) served(eff config.EffectiveConfig) {
	fmt.Fprintf(u.w, "[%s] mvbrowse serve\n", time.Now().Format("15:04:05"))
	fmt.Fprintln(u.w, "配置（生效）:")
	if eff.Source != "" {
		fmt.Fprintf(u.w, "  config: %s\n", eff.Source)
	}
	fmt.Fprintf(u.w, "  listen: http://%s/\n", eff.Listen)
	fmt.Fprintf(u.w, "  catalog: %s (%s)\n", eff.Catalog.BaseURL, eff.Catalog.Language)
	fmt.Fprintf(u.w, "  regions: %s\n", formatRegions(eff.Catalog.Regions))
	fmt.Fprintf(u.w, "  request_timeout: %s\n", eff.Catalog.RequestTimeout)
	fmt.Fprintf(u.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintln(u.w)
}

// summary 打印最终摘要行（TTY 与非 TTY 都写 stderr）。
func summary(w io.Writer, rep report, dur time.Duration) {
	if !rep.OK {
		fmt.Fprintf(w, "失败：%s %s: %s (%s)\n", rep.Command, rep.ErrorCode, rep.Error, formatShortDuration(dur))
		return
	}
	if rep.Out != "" {
		fmt.Fprintf(w, "完成：%s count=%d out=%s (%s)\n", rep.Command, rep.Count, rep.Out, formatShortDuration(dur))
		return
	}
	fmt.Fprintf(w, "完成：%s count=%d (%s)\n", rep.Command, rep.Count, formatShortDuration(dur))
}

func formatRegions(rs []domain.Region) string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}

// formatProxy 只展示 scheme/host 与是否带认证，不打印凭据。
func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

// truncate 按字符截断（标题多为 CJK，不能按字节切）。
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func padRight(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
