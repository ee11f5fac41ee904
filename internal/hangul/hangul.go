// Package hangul 实现基于初声（choseong）的检索：
// 查询中单独的辅音（ㄱ..ㅎ）可以匹配以该辅音开头的任意完整音节。
package hangul

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	syllableFirst = 0xAC00 // 가
	syllableLast  = 0xD7A3 // 힣

	leadingJamoFirst = 0x1100 // ᄀ（组合用初声）
	leadingJamoLast  = 0x1112 // ᄒ
)

// compat 是 19 个初声对应的兼容字母（键盘输入得到的形态），下标与 U+1100 起的初声一致。
var compat = [...]rune{
	'ㄱ', 'ㄲ', 'ㄴ', 'ㄷ', 'ㄸ', 'ㄹ', 'ㅁ', 'ㅂ', 'ㅃ', 'ㅅ',
	'ㅆ', 'ㅇ', 'ㅈ', 'ㅉ', 'ㅊ', 'ㅋ', 'ㅌ', 'ㅍ', 'ㅎ',
}

// IsSyllable 判断 r 是否为预组合的 Hangul 音节。
func IsSyllable(r rune) bool { return r >= syllableFirst && r <= syllableLast }

// IsChoseong 判断 r 是否为可作初声的兼容辅音。
func IsChoseong(r rune) bool {
	for _, c := range compat {
		if c == r {
			return true
		}
	}
	return false
}

// Choseong 返回音节的初声（兼容字母形态）；非音节返回 ok=false。
func Choseong(r rune) (rune, bool) {
	if !IsSyllable(r) {
		return 0, false
	}
	// NFD 把音节拆为 初声+中声(+终声)，第一个 rune 就是初声。
	lead, _ := utf8.DecodeRuneInString(norm.NFD.String(string(r)))
	if lead < leadingJamoFirst || lead > leadingJamoLast {
		return 0, false
	}
	return compat[lead-leadingJamoFirst], true
}

// Normalize 做 NFC 组合，并把孤立的组合用初声（U+1100..U+1112）转为兼容字母，
// 让“分解形态输入”和“键盘输入”得到同一形式。
func Normalize(s string) string {
	s = norm.NFC.String(s)
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= leadingJamoFirst && r <= leadingJamoLast {
			r = compat[r-leadingJamoFirst]
		}
		out = append(out, r)
	}
	return string(out)
}

// Contains 判断 query 是否是 target 的连续子序列，其中：
// - query 中的兼容辅音匹配 target 中相同辅音，或以该辅音为初声的音节
// - 其他字符要求完全相等
//
// 调用方负责大小写折叠与空白/标点清理；空 query 恒为 true。
func Contains(target, query string) bool {
	t := []rune(Normalize(target))
	q := []rune(Normalize(query))
	if len(q) == 0 {
		return true
	}
	for start := 0; start+len(q) <= len(t); start++ {
		if matchAt(t[start:start+len(q)], q) {
			return true
		}
	}
	return false
}

func matchAt(t, q []rune) bool {
	for i := range q {
		if !runeMatch(t[i], q[i]) {
			return false
		}
	}
	return true
}

func runeMatch(tr, qr rune) bool {
	if tr == qr {
		return true
	}
	if !IsChoseong(qr) {
		return false
	}
	c, ok := Choseong(tr)
	return ok && c == qr
}
