package catalog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/John-Robertt/mvbrowse/internal/domain"
)

// movieWire / showWire 对应列表端点 results[] 的条目（只取用到的字段）。
type movieWire struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

type showWire struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	PosterPath   *string `json:"poster_path"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
}

type castWire struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

type creditsWire struct {
	Cast *[]castWire `json:"cast"`
}

type imagesWire struct {
	Profiles *[]struct {
		FilePath string `json:"file_path"`
	} `json:"profiles"`
}

// results 解析 {"results": [...]}；缺少 results 字段视为解码失败。
func results[T any](raw json.RawMessage) ([]T, error) {
	var env struct {
		Results *[]T `json:"results"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if env.Results == nil {
		return nil, &DecodeError{Err: errors.New("缺少 results 字段")}
	}
	return *env.Results, nil
}

// DecodeMovies 把列表响应解码为 Movie（日期兜底、评分取一位小数）。
func DecodeMovies(raw json.RawMessage) ([]domain.Movie, error) {
	items, err := results[movieWire](raw)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Movie, 0, len(items))
	for i, it := range items {
		if it.Title == "" {
			return nil, &DecodeError{Err: fmt.Errorf("results[%d] 缺少 title（id=%d）", i, it.ID)}
		}
		out = append(out, domain.Movie{
			ID:          it.ID,
			Title:       it.Title,
			PosterPath:  deref(it.PosterPath),
			ReleaseDate: domain.NormalizeReleaseDate(it.ReleaseDate),
			Overview:    it.Overview,
			Popularity:  it.Popularity,
			VoteAverage: domain.RoundVote(it.VoteAverage),
			VoteCount:   it.VoteCount,
		})
	}
	return out, nil
}

// DecodeShows 把 TV 列表响应解码为 Show（仍保留 name，由聚合层做标题别名）。
func DecodeShows(raw json.RawMessage) ([]domain.Show, error) {
	items, err := results[showWire](raw)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Show, 0, len(items))
	for i, it := range items {
		if it.Name == "" {
			return nil, &DecodeError{Err: fmt.Errorf("results[%d] 缺少 name（id=%d）", i, it.ID)}
		}
		out = append(out, domain.Show{
			ID:           it.ID,
			Name:         it.Name,
			PosterPath:   deref(it.PosterPath),
			FirstAirDate: it.FirstAirDate,
			Overview:     it.Overview,
			Popularity:   it.Popularity,
			VoteAverage:  it.VoteAverage,
			VoteCount:    it.VoteCount,
		})
	}
	return out, nil
}

// DecodeCast 解码 credits 响应的 cast 列表（保持源顺序）。
// ProfilePath 不从 cast 继承，只由人物图片查询填充。
func DecodeCast(raw json.RawMessage) ([]domain.Actor, error) {
	var w creditsWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if w.Cast == nil {
		return nil, &DecodeError{Err: errors.New("缺少 cast 字段")}
	}
	out := make([]domain.Actor, 0, len(*w.Cast))
	for _, c := range *w.Cast {
		out = append(out, domain.Actor{ID: c.ID, Name: c.Name, Character: c.Character})
	}
	return out, nil
}

// DecodeFirstProfile 返回人物图片响应中的第一张 profile；没有图片时 ok=false。
func DecodeFirstProfile(raw json.RawMessage) (path string, ok bool, err error) {
	var w imagesWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return "", false, &DecodeError{Err: err}
	}
	if w.Profiles == nil {
		return "", false, &DecodeError{Err: errors.New("缺少 profiles 字段")}
	}
	if len(*w.Profiles) == 0 {
		return "", false, nil
	}
	return (*w.Profiles)[0].FilePath, true, nil
}

// DecodeDetail 校验详情响应是 JSON 对象，然后原样透传。
func DecodeDetail(raw json.RawMessage) (domain.Detail, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("详情不是 JSON 对象：%w", err)}
	}
	if obj == nil {
		return nil, &DecodeError{Err: errors.New("详情为 null")}
	}
	return domain.Detail(append(json.RawMessage(nil), raw...)), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
