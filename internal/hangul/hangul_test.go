package hangul

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChoseong(t *testing.T) {
	cases := map[rune]rune{
		'가': 'ㄱ', '까': 'ㄲ', '어': 'ㅇ', '벤': 'ㅂ', '저': 'ㅈ', '스': 'ㅅ', '힣': 'ㅎ', '쌍': 'ㅆ',
	}
	for in, want := range cases {
		got, ok := Choseong(in)
		assert.True(t, ok, "%q", in)
		assert.Equal(t, string(want), string(got), "%q", in)
	}

	for _, r := range []rune{'A', '1', 'ㄱ', ' ', 'あ'} {
		_, ok := Choseong(r)
		assert.False(t, ok, "%q 不是音节", r)
	}
}

func TestContains_ChoseongQuery(t *testing.T) {
	assert.True(t, Contains("어벤저스", "ㅇㅂㅈㅅ"))
	assert.True(t, Contains("어벤저스", "ㅂㅈ"))
	assert.True(t, Contains("어벤저스", "어ㅂ"), "完整音节与初声可混用")
	assert.True(t, Contains("어벤저스", "벤저"))
	assert.False(t, Contains("어벤저스", "ㅈㅂ"))
	assert.False(t, Contains("어벤저스", "아벤"), "完整音节必须精确匹配")
}

func TestContains_NonHangul(t *testing.T) {
	assert.False(t, Contains("어벤저스", "abc"))
	assert.True(t, Contains("IRONMAN3", "MAN"))
	assert.False(t, Contains("IRONMAN", "IRONMAN3"))
	assert.True(t, Contains("anything", ""))
}

func TestContains_DecomposedInput(t *testing.T) {
	// "어" 的 NFD 形态（ᄋ + ᅥ）+ 组合用初声 ᄇ
	decomposed := "\u110B\u1165\u1107"
	assert.True(t, Contains("어벤저스", decomposed))
}
