// Package aggregate 负责把多地区结果合并、排序与检索过滤。
package aggregate

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/John-Robertt/mvbrowse/internal/domain"
	"github.com/John-Robertt/mvbrowse/internal/hangul"
)

// MergeAndSort 把多批结果展平一层（批次顺序、批内顺序保持），
// 然后按 popularity 降序稳定排序。不修改输入。
func MergeAndSort(batches [][]domain.Movie) []domain.Movie {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	out := make([]domain.Movie, 0, n)
	for _, b := range batches {
		out = append(out, b...)
	}
	SortByPopularity(out)
	return out
}

// SortByPopularity 原地按 popularity 降序稳定排序；NaN 排在最后。
// 直接比较大小而不是相减，避免极端值溢出/NaN 破坏排序。
func SortByPopularity(ms []domain.Movie) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i].Popularity, ms[j].Popularity
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a > b
	})
}

// AliasTitles 把 TV 条目规范化为 Movie：name 复制到 title，first_air_date 作为上映日期。
func AliasTitles(shows []domain.Show) []domain.Movie {
	out := make([]domain.Movie, 0, len(shows))
	for _, s := range shows {
		out = append(out, domain.Movie{
			ID:          s.ID,
			Title:       s.Name,
			PosterPath:  s.PosterPath,
			ReleaseDate: domain.NormalizeReleaseDate(s.FirstAirDate),
			Overview:    s.Overview,
			Popularity:  s.Popularity,
			VoteAverage: domain.RoundVote(s.VoteAverage),
			VoteCount:   s.VoteCount,
		})
	}
	return out
}

// titlePunct 是标题规范化时去掉的标点集合。
const titlePunct = "`~!@#$%^&*()_|+-=?;:'\",.<>{}[]\\/"

// FilterBySearch 按检索词过滤，保持原有顺序。
// 检索词去掉空白后为空时原样返回输入。
func FilterBySearch(ms []domain.Movie, term string) []domain.Movie {
	q := fold(stripSpace(term))
	if q == "" {
		return ms
	}
	out := make([]domain.Movie, 0, len(ms))
	for _, m := range ms {
		if hangul.Contains(fold(NormalizeTitle(m.Title)), q) {
			out = append(out, m)
		}
	}
	return out
}

// NormalizeTitle 去掉标题中的空白与固定标点。
func NormalizeTitle(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(titlePunct, r) {
			return -1
		}
		return r
	}, s)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// fold 统一为大写。cases.Caser 非并发安全，每次新建。
func fold(s string) string {
	return cases.Upper(language.Und).String(s)
}
