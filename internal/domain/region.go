package domain

import (
	"fmt"
	"strings"
)

// Region 是 catalog 查询使用的国家/产地代码（ISO 3166-1 alpha-2，大写）。
type Region string

const (
	RegionJapan        Region = "JP"
	RegionUnitedStates Region = "US"
)

// RegionAll 是菜单里“全部地区”的哨兵值，不是合法的 Region。
const RegionAll = "ALL"

// ParseRegion 规范化并校验 region 必须属于 allowed（配置注入的闭集）。
func ParseRegion(s string, allowed []Region) (Region, error) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	if r == "" {
		return "", fmt.Errorf("region 不能为空")
	}
	for _, a := range allowed {
		if a == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("未配置的 region：%q", s)
}
