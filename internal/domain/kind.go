package domain

import "fmt"

// Kind 是请求形态的闭集枚举；每种 Kind 有各自的必填参数集合（见 query 包）。
type Kind string

const (
	KindTopRated    Kind = "topRated"
	KindUpcoming    Kind = "upcoming"
	KindGenres      Kind = "genres"
	KindDetail      Kind = "detail"
	KindByCountry   Kind = "byCountry"
	KindCredits     Kind = "credits"
	KindActorImages Kind = "actorImages"
	KindAllRegions  Kind = "allRegions"
	KindTV          Kind = "tv"
)

var kinds = []Kind{
	KindTopRated, KindUpcoming, KindGenres, KindDetail, KindByCountry,
	KindCredits, KindActorImages, KindAllRegions, KindTV,
}

// Kinds 返回全部 Kind（固定顺序）。
func Kinds() []Kind { return append([]Kind(nil), kinds...) }

func (k Kind) Valid() bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// ParseKind 严格匹配（区分大小写），未知值返回错误。
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("未知请求类型：%q", s)
	}
	return k, nil
}
