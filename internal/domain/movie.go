package domain

import (
	"encoding/json"
	"math"
	"time"
)

// SentinelReleaseDate 用于替换缺失/无法解析的上映日期，保证下游排序与展示稳定。
const SentinelReleaseDate = "2024-01-01"

// Movie 是对外稳定的影片记录（TV 条目在离开聚合层前也会被规范化为 Movie）。
//
// 不变量：
// - Title 非空
// - ReleaseDate 总是合法的 YYYY-MM-DD（缺失时为 SentinelReleaseDate）
// - VoteAverage 已四舍五入到一位小数
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

// Actor 是出演者条目。ProfilePath 只由人物图片查询填充。
type Actor struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// Detail 是影片详情的原样透传（不做任何字段变换）。
type Detail json.RawMessage

func (d Detail) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return []byte(d), nil
}

// Genre 对应 catalog 的类型条目。当前策略只使用列表的第一个元素。
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NormalizeReleaseDate 校验日期格式；空串或非法日期返回 SentinelReleaseDate。
func NormalizeReleaseDate(s string) string {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return SentinelReleaseDate
	}
	return s
}

// RoundVote 把评分四舍五入到一位小数。
func RoundVote(v float64) float64 {
	return math.Round(v*10) / 10
}

// Show 是 TV 列表条目（catalog 使用 name / first_air_date）。
// 离开聚合层前会被规范化为 Movie（Title 取自 Name）。
type Show struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	PosterPath   string  `json:"poster_path,omitempty"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
}
