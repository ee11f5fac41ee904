// Package render 把影片列表渲染到内嵌的 HTML 页面（#movieList 中的卡片）。
package render

import (
	_ "embed"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-hclog"

	"github.com/John-Robertt/mvbrowse/internal/app/browse"
	"github.com/John-Robertt/mvbrowse/internal/domain"
)

//go:embed page.html
var pageHTML string

const cardHTML = `<div class="movie-card"><a class="poster-link"><img class="poster"></a><h2></h2><div class="content-box"><span class="release-date"></span><span class="vote"></span></div></div>`

// DetailPath 是卡片链接指向的详情页。
const DetailPath = "/detail/detail.html"

type Options struct {
	ImageBaseURL string
	Regions      []domain.Region
	Logger       hclog.Logger
}

// Page 持有一份页面 DOM；每次渲染整体替换 #movieList 的卡片。
//
// 一个 Page 只服务一个观看者（一次 HTTP 请求或一次 render 命令），不同观看者之间不得共享。
// Page 实现 browse.Presenter，可被并发调用。
type Page struct {
	mu        sync.Mutex
	doc       *goquery.Document
	card      *goquery.Selection
	imageBase string
	log       hclog.Logger
}

var _ browse.Presenter = (*Page)(nil)

func New(opts Options) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("解析页面模板失败：%w", err)
	}
	cardDoc, err := goquery.NewDocumentFromReader(strings.NewReader(cardHTML))
	if err != nil {
		return nil, fmt.Errorf("解析卡片模板失败：%w", err)
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	menu := doc.Find("#regionMenu")
	for _, r := range opts.Regions {
		opt := doc.Find("#regionMenu option").First().Clone()
		opt.SetAttr("value", string(r))
		opt.SetText(string(r))
		menu.AppendSelection(opt)
	}

	return &Page{
		doc:       doc,
		card:      cardDoc.Find(".movie-card"),
		imageBase: strings.TrimRight(opts.ImageBaseURL, "/"),
		log:       log,
	}, nil
}

// ShowMovies 渲染一次结果。失败时不动 #movieList，只更新 #status。
func (p *Page) ShowMovies(res domain.Result[[]domain.Movie]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apply(res)
}

// Controls 是页面上检索框与地区菜单的当前值。
type Controls struct {
	Search string
	Region string
}

// Render 回填控件、渲染结果并返回完整 HTML（三步在同一把锁内完成）。
func (p *Page) Render(res domain.Result[[]domain.Movie], c Controls) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setControls(c)
	p.apply(res)
	return goquery.OuterHtml(p.doc.Selection)
}

func (p *Page) setControls(c Controls) {
	p.doc.Find("#searchInput").SetAttr("value", c.Search)
	sel := strings.ToUpper(strings.TrimSpace(c.Region))
	if sel == "" {
		sel = domain.RegionAll
	}
	p.doc.Find("#regionMenu option").Each(func(_ int, s *goquery.Selection) {
		if v, _ := s.Attr("value"); v == sel {
			s.SetAttr("selected", "selected")
		} else {
			s.RemoveAttr("selected")
		}
	})
}

func (p *Page) apply(res domain.Result[[]domain.Movie]) {
	status := p.doc.Find("#status")
	if !res.OK() {
		code := browse.ErrorCode(res.Err)
		p.log.Warn("render skipped", "code", code, "error", res.Err)
		status.SetAttr("class", "error")
		status.SetText("영화 목록을 불러오지 못했습니다 (" + code + ")")
		return
	}

	list := p.doc.Find("#movieList")
	list.Find(".movie-card").Remove()
	for _, m := range res.Value {
		list.AppendSelection(p.newCard(m))
	}
	status.RemoveAttr("class")
	status.SetText(strconv.Itoa(len(res.Value)) + "편")
	p.log.Debug("rendered", "cards", len(res.Value))
}

func (p *Page) newCard(m domain.Movie) *goquery.Selection {
	c := p.card.Clone()

	c.Find("a.poster-link").SetAttr("href", DetailURL(m.ID))
	img := c.Find("img.poster")
	img.SetAttr("alt", m.Title)
	if m.PosterPath != "" {
		img.SetAttr("src", p.imageBase+m.PosterPath)
	}
	c.Find("h2").SetText(m.Title)
	c.Find(".release-date").SetText(m.ReleaseDate)
	c.Find(".vote").SetText(strconv.FormatFloat(m.VoteAverage, 'f', 1, 64))
	return c
}

// DetailURL 返回卡片的详情链接。
func DetailURL(id int) string {
	return DetailPath + "?" + url.Values{"id": {strconv.Itoa(id)}}.Encode()
}
