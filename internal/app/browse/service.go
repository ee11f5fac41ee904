// Package browse 编排 QueryBuilder -> Fetcher -> Aggregator，
// 为每种调用形态返回一个确定的终态（domain.Result）。
package browse

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/John-Robertt/mvbrowse/internal/aggregate"
	"github.com/John-Robertt/mvbrowse/internal/catalog"
	"github.com/John-Robertt/mvbrowse/internal/config"
	"github.com/John-Robertt/mvbrowse/internal/domain"
	"github.com/John-Robertt/mvbrowse/internal/query"
)

// MaxCast 是 credits 保留的出演者数量（按源顺序截断）。
const MaxCast = 15

// Fetcher 是 Service 依赖的抓取能力（*catalog.Fetcher 实现它）。
type Fetcher interface {
	FetchOne(ctx context.Context, url string) (json.RawMessage, error)
	FetchMany(ctx context.Context, urls []string) ([]json.RawMessage, error)
}

type Service struct {
	cfg     config.Catalog
	builder *query.Builder
	fetcher Fetcher
	log     hclog.Logger
}

func NewService(cfg config.Catalog, f Fetcher, log hclog.Logger) *Service {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{
		cfg:     cfg,
		builder: query.NewBuilder(cfg),
		fetcher: f,
		log:     log,
	}
}

// AllMovies 扇出到全部地区，合并后按 popularity 降序，再按检索词过滤。
// 任一地区失败则整批失败（不返回部分结果）。
func (s *Service) AllMovies(ctx context.Context, search string) domain.Result[[]domain.Movie] {
	urls, err := s.builder.Build(domain.KindAllRegions, query.Params{Genres: s.cfg.DefaultGenres})
	if err != nil {
		return s.failMovies("all", err)
	}

	raws, err := s.fetcher.FetchMany(ctx, urls)
	if err != nil {
		return s.failMovies("all", err)
	}

	batches := make([][]domain.Movie, len(raws))
	for i, raw := range raws {
		ms, err := catalog.DecodeMovies(raw)
		if err != nil {
			return s.failMovies("all", withURL(err, urls[i]))
		}
		batches[i] = ms
	}

	merged := aggregate.MergeAndSort(batches)
	out := aggregate.FilterBySearch(merged, search)
	s.log.Debug("all regions merged", "regions", len(urls), "merged", len(merged), "matched", len(out))
	return domain.Ok(out)
}

// MoviesByRegion 按国家浏览（单次请求），保持 API 返回顺序，不排序不过滤。
func (s *Service) MoviesByRegion(ctx context.Context, region domain.Region, page int) domain.Result[[]domain.Movie] {
	region, err := s.parseRegion(domain.KindByCountry, region)
	if err != nil {
		return s.failMovies("region", err)
	}
	return s.fetchMovies(ctx, "region", domain.KindByCountry, query.Params{
		Region: region,
		Genres: s.cfg.DefaultGenres,
		Page:   page,
	})
}

// MoviesByKind 分发 topRated / genres / upcoming 三种列表。
func (s *Service) MoviesByKind(ctx context.Context, kind domain.Kind, region domain.Region, genres []domain.Genre, page int) domain.Result[[]domain.Movie] {
	switch kind {
	case domain.KindTopRated, domain.KindGenres:
		r, err := s.parseRegion(kind, region)
		if err != nil {
			return s.failMovies(string(kind), err)
		}
		region = r
	case domain.KindUpcoming:
	default:
		return s.failMovies(string(kind), &query.ParameterError{Kind: kind, Param: "kind"})
	}
	return s.fetchMovies(ctx, string(kind), kind, query.Params{
		Region: region,
		Genres: genres,
		Page:   page,
	})
}

// TV 返回 TV 列表；name 已复制到 title。
func (s *Service) TV(ctx context.Context, region domain.Region, genres []domain.Genre, page int) domain.Result[[]domain.Movie] {
	region, err := s.parseRegion(domain.KindTV, region)
	if err != nil {
		return s.failMovies("tv", err)
	}
	u, err := s.builder.BuildOne(domain.KindTV, query.Params{Region: region, Genres: genres, Page: page})
	if err != nil {
		return s.failMovies("tv", err)
	}
	raw, err := s.fetcher.FetchOne(ctx, u)
	if err != nil {
		return s.failMovies("tv", err)
	}
	shows, err := catalog.DecodeShows(raw)
	if err != nil {
		return s.failMovies("tv", withURL(err, u))
	}
	return domain.Ok(aggregate.AliasTitles(shows))
}

// Detail 透传影片详情对象。
func (s *Service) Detail(ctx context.Context, movieID int) domain.Result[domain.Detail] {
	u, err := s.builder.BuildOne(domain.KindDetail, query.Params{MovieID: movieID})
	if err != nil {
		return s.failDetail(err)
	}
	raw, err := s.fetcher.FetchOne(ctx, u)
	if err != nil {
		return s.failDetail(err)
	}
	d, err := catalog.DecodeDetail(raw)
	if err != nil {
		return s.failDetail(withURL(err, u))
	}
	return domain.Ok(d)
}

// Credits 返回前 MaxCast 位出演者，并并发查询每位的人物图片。
//
// 图片查询按人降级：某人查询失败只记录诊断，该出演者原样保留（ProfilePath 为空）。
func (s *Service) Credits(ctx context.Context, movieID int) domain.Result[[]domain.Actor] {
	u, err := s.builder.BuildOne(domain.KindCredits, query.Params{MovieID: movieID})
	if err != nil {
		return s.failActors(err)
	}
	raw, err := s.fetcher.FetchOne(ctx, u)
	if err != nil {
		return s.failActors(err)
	}
	cast, err := catalog.DecodeCast(raw)
	if err != nil {
		return s.failActors(withURL(err, u))
	}
	if len(cast) > MaxCast {
		cast = cast[:MaxCast]
	}

	actors := make([]domain.Actor, len(cast))
	copy(actors, cast)

	var wg sync.WaitGroup
	for i := range actors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// 每个 goroutine 只写 actors[i]。
			p, ok, err := s.profileImage(ctx, actors[i].ID)
			if err != nil {
				s.log.Warn("actor image lookup failed", "movie_id", movieID, "actor_id", actors[i].ID, "error", err)
				return
			}
			if ok {
				actors[i].ProfilePath = p
			}
		}(i)
	}
	wg.Wait()
	return domain.Ok(actors)
}

func (s *Service) profileImage(ctx context.Context, actorID int) (string, bool, error) {
	u, err := s.builder.BuildOne(domain.KindActorImages, query.Params{ActorID: actorID})
	if err != nil {
		return "", false, err
	}
	raw, err := s.fetcher.FetchOne(ctx, u)
	if err != nil {
		return "", false, err
	}
	p, ok, err := catalog.DecodeFirstProfile(raw)
	if err != nil {
		return "", false, withURL(err, u)
	}
	return p, ok, nil
}

func (s *Service) fetchMovies(ctx context.Context, op string, kind domain.Kind, p query.Params) domain.Result[[]domain.Movie] {
	u, err := s.builder.BuildOne(kind, p)
	if err != nil {
		return s.failMovies(op, err)
	}
	raw, err := s.fetcher.FetchOne(ctx, u)
	if err != nil {
		return s.failMovies(op, err)
	}
	ms, err := catalog.DecodeMovies(raw)
	if err != nil {
		return s.failMovies(op, withURL(err, u))
	}
	return domain.Ok(ms)
}

// parseRegion 规范化（去空白、转大写）并校验 region 属于配置闭集。
// 空 region 原样返回，交给 QueryBuilder 报“缺少参数”。
func (s *Service) parseRegion(kind domain.Kind, raw domain.Region) (domain.Region, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return "", nil
	}
	r, err := domain.ParseRegion(string(raw), s.cfg.Regions)
	if err != nil {
		s.log.Debug("region rejected", "kind", kind, "error", err)
		return "", &query.ParameterError{Kind: kind, Param: "region"}
	}
	return r, nil
}

func (s *Service) failMovies(op string, err error) domain.Result[[]domain.Movie] {
	s.log.Warn("movie list request failed", "op", op, "code", ErrorCode(err), "error", err)
	return domain.Fail([]domain.Movie{}, err)
}

func (s *Service) failActors(err error) domain.Result[[]domain.Actor] {
	s.log.Warn("credits request failed", "code", ErrorCode(err), "error", err)
	return domain.Fail([]domain.Actor{}, err)
}

func (s *Service) failDetail(err error) domain.Result[domain.Detail] {
	s.log.Warn("detail request failed", "code", ErrorCode(err), "error", err)
	return domain.Fail[domain.Detail](nil, err)
}

// withURL 给离线解码得到的 DecodeError 补上（脱敏后的）来源 URL。
func withURL(err error, u string) error {
	var de *catalog.DecodeError
	if errors.As(err, &de) && de.URL == "" {
		return &catalog.DecodeError{URL: catalog.Redact(u), Err: de.Err}
	}
	return err
}
