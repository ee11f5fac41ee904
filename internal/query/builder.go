// Package query 把请求类型 + 参数映射为完整的 catalog URL。
//
// Build 是纯函数：不做 I/O，不读全局状态；缺少必填参数时必须失败，
// 绝不拼出残缺的 URL。
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/mvbrowse/internal/config"
	"github.com/John-Robertt/mvbrowse/internal/domain"
)

const (
	SortPopularityDesc = "popularity.desc"
	SortVoteCountDesc  = "vote_count.desc"
)

// Params 是请求参数袋。零值表示“未提供”（ID/Page 非正数同样视为未提供）。
type Params struct {
	Region  domain.Region
	Genres  []domain.Genre
	Page    int
	MovieID int
	ActorID int
}

// ParameterError 表示某个 Kind 缺少必填参数（或 Kind 本身非法）。
type ParameterError struct {
	Kind  domain.Kind
	Param string
}

func (e *ParameterError) Error() string {
	if e.Param == "kind" {
		return fmt.Sprintf("参数错误：未知请求类型 %q", e.Kind)
	}
	return fmt.Sprintf("参数错误：%s 缺少必填参数 %s", e.Kind, e.Param)
}

// Builder 持有只读的 catalog 配置。
type Builder struct {
	cfg config.Catalog
}

func NewBuilder(cfg config.Catalog) *Builder {
	return &Builder{cfg: cfg}
}

// Build 返回 kind 对应的 URL 集合：除 allRegions 外恒为 1 个；
// allRegions 按配置的 region 顺序每个 region 一个 URL。
func (b *Builder) Build(kind domain.Kind, p Params) ([]string, error) {
	if err := checkRequired(kind, p); err != nil {
		return nil, err
	}

	switch kind {
	case domain.KindTopRated:
		q := b.baseQuery()
		q.Set("with_origin_country", string(p.Region))
		q.Set("page", pageOrDefault(p.Page))
		return b.one(config.PathTopRated, nil, q)

	case domain.KindUpcoming:
		q := b.baseQuery()
		q.Set("page", strconv.Itoa(p.Page))
		return b.one(config.PathUpcoming, nil, q)

	case domain.KindGenres:
		q := b.discoverQuery(p.Region, p.Genres[0].ID)
		q.Set("page", strconv.Itoa(p.Page))
		q.Set("sort_by", SortPopularityDesc)
		return b.one(config.PathDiscoverMovie, nil, q)

	case domain.KindByCountry:
		// JP 与其他地区共用一条路径，差异只在 genre 选择上。
		q := b.discoverQuery(p.Region, b.genreFor(p.Region, p.Genres))
		q.Set("page", pageOrDefault(p.Page))
		return b.one(config.PathDiscoverMovie, nil, q)

	case domain.KindDetail:
		return b.one(config.PathDetail, map[string]int{"movie_id": p.MovieID}, b.baseQuery())

	case domain.KindCredits:
		return b.one(config.PathCredits, map[string]int{"movie_id": p.MovieID}, b.baseQuery())

	case domain.KindActorImages:
		return b.one(config.PathPersonImages, map[string]int{"actor_id": p.ActorID}, b.baseQuery())

	case domain.KindAllRegions:
		if len(b.cfg.Regions) == 0 {
			return nil, &ParameterError{Kind: kind, Param: "regions"}
		}
		out := make([]string, 0, len(b.cfg.Regions))
		for _, r := range b.cfg.Regions {
			q := b.discoverQuery(r, b.genreFor(r, p.Genres))
			q.Set("sort_by", SortVoteCountDesc)
			u, err := b.url(config.PathDiscoverMovie, nil, q)
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
		return out, nil

	case domain.KindTV:
		q := b.discoverQuery(p.Region, p.Genres[0].ID)
		q.Set("page", pageOrDefault(p.Page))
		q.Set("sort_by", TVSort(p.Region))
		return b.one(config.PathDiscoverTV, nil, q)
	}
	return nil, &ParameterError{Kind: kind, Param: "kind"}
}

// BuildOne 用于非扇出的 Kind；对 allRegions 返回错误。
func (b *Builder) BuildOne(kind domain.Kind, p Params) (string, error) {
	if kind == domain.KindAllRegions {
		return "", fmt.Errorf("%s 会产生多个 URL，请使用 Build", kind)
	}
	urls, err := b.Build(kind, p)
	if err != nil {
		return "", err
	}
	return urls[0], nil
}

// TVSort 按地区决定 TV 列表的排序：美国按投票数（“名作”优先），其他按热度。
func TVSort(r domain.Region) string {
	if r == domain.RegionUnitedStates {
		return SortVoteCountDesc
	}
	return SortPopularityDesc
}

// checkRequired 按 Kind 校验必填参数。
func checkRequired(kind domain.Kind, p Params) error {
	missing := func(name string) error { return &ParameterError{Kind: kind, Param: name} }
	hasRegion := strings.TrimSpace(string(p.Region)) != ""
	hasGenres := len(p.Genres) > 0 && p.Genres[0].ID > 0

	switch kind {
	case domain.KindTopRated:
		if !hasRegion {
			return missing("region")
		}
	case domain.KindUpcoming:
		if p.Page <= 0 {
			return missing("page")
		}
	case domain.KindGenres:
		if !hasGenres {
			return missing("genres")
		}
		if !hasRegion {
			return missing("region")
		}
		if p.Page <= 0 {
			return missing("page")
		}
	case domain.KindDetail, domain.KindCredits:
		if p.MovieID <= 0 {
			return missing("movie_id")
		}
	case domain.KindByCountry, domain.KindTV:
		if !hasRegion {
			return missing("region")
		}
		if !hasGenres {
			return missing("genres")
		}
	case domain.KindActorImages:
		if p.ActorID <= 0 {
			return missing("actor_id")
		}
	case domain.KindAllRegions:
		if !hasGenres {
			return missing("genres")
		}
	default:
		return missing("kind")
	}
	return nil
}

// genreFor：JP 固定使用配置的动画类型，其他地区使用 genres[0]。
func (b *Builder) genreFor(r domain.Region, genres []domain.Genre) int {
	if r == domain.RegionJapan {
		return b.cfg.JapanGenreID
	}
	return genres[0].ID
}

func (b *Builder) baseQuery() url.Values {
	q := url.Values{}
	q.Set("api_key", b.cfg.APIKey)
	q.Set("language", b.cfg.Language)
	return q
}

// discoverQuery 是发现类查询的公共部分（地区 + 类型 + 排除类型）。
func (b *Builder) discoverQuery(r domain.Region, genreID int) url.Values {
	q := b.baseQuery()
	q.Set("with_origin_country", string(r))
	q.Set("with_genres", strconv.Itoa(genreID))
	if len(b.cfg.ExcludedGenres) > 0 {
		ids := make([]string, 0, len(b.cfg.ExcludedGenres))
		for _, id := range b.cfg.ExcludedGenres {
			ids = append(ids, strconv.Itoa(id))
		}
		q.Set("without_genres", strings.Join(ids, ","))
	}
	return q
}

func (b *Builder) one(pathKey string, ids map[string]int, q url.Values) ([]string, error) {
	u, err := b.url(pathKey, ids, q)
	if err != nil {
		return nil, err
	}
	return []string{u}, nil
}

func (b *Builder) url(pathKey string, ids map[string]int, q url.Values) (string, error) {
	tmpl, ok := b.cfg.Paths[pathKey]
	if !ok || tmpl == "" {
		return "", fmt.Errorf("未配置 path 模板：%q", pathKey)
	}
	path := tmpl
	for name, id := range ids {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(strconv.Itoa(id)))
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("path 模板 %q 含未替换的占位符：%q", pathKey, path)
	}
	return strings.TrimRight(b.cfg.BaseURL, "/") + path + "?" + q.Encode(), nil
}

func pageOrDefault(p int) string {
	if p <= 0 {
		return "1"
	}
	return strconv.Itoa(p)
}
