package browse

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/John-Robertt/mvbrowse/internal/domain"
)

// Presenter 接收每次用户操作的终态结果。
//
// 约束：
// - 每次 SearchChanged / MenuSelected 恰好调用一次 ShowMovies（成功或失败二选一）。
// - 失败结果的 Value 为空切片；实现自行决定如何提示（不得渲染部分结果）。
// - 实现必须并发安全：前一次操作的结果可能与后一次并发到达。
type Presenter interface {
	ShowMovies(res domain.Result[[]domain.Movie])
}

// PresenterFunc 让普通函数满足 Presenter。
type PresenterFunc func(res domain.Result[[]domain.Movie])

func (f PresenterFunc) ShowMovies(res domain.Result[[]domain.Movie]) { f(res) }

// Dispatcher 把 UI 事件（检索框变化、地区菜单选择）翻译为 Service 调用，并把结果交给 Presenter。
type Dispatcher struct {
	svc *Service
	p   Presenter
	log hclog.Logger
}

func NewDispatcher(svc *Service, p Presenter, log hclog.Logger) *Dispatcher {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Dispatcher{svc: svc, p: p, log: log}
}

// SearchChanged 对应检索框输入：总是查询全部地区，再用检索词过滤。
func (d *Dispatcher) SearchChanged(ctx context.Context, text string) {
	d.log.Trace("search changed", "len", len(text))
	d.p.ShowMovies(d.svc.AllMovies(ctx, text))
}

// MenuSelected 对应地区菜单：RegionAll 等价于空检索词的全部地区，其余按国家浏览第 1 页。
func (d *Dispatcher) MenuSelected(ctx context.Context, selection string) {
	if strings.EqualFold(strings.TrimSpace(selection), domain.RegionAll) {
		d.p.ShowMovies(d.svc.AllMovies(ctx, ""))
		return
	}
	d.p.ShowMovies(d.svc.MoviesByRegion(ctx, domain.Region(selection), 1))
}
