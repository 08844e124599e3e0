package domain

import "strings"

// NewsCategory is the closed set of supported headline feeds.
type NewsCategory int

const (
	NewsGeneral NewsCategory = iota
	NewsTechnology
	NewsBusiness
	NewsSports
	NewsEntertainment
)

var newsCategoryNames = [...]string{
	NewsGeneral:       "一般",
	NewsTechnology:    "テクノロジー",
	NewsBusiness:      "ビジネス",
	NewsSports:        "スポーツ",
	NewsEntertainment: "エンタメ",
}

// MaxHeadlines is the number of headlines included in a briefing.
const MaxHeadlines = 3

// NewsUnavailableText replaces the digest when the feed cannot be read.
const NewsUnavailableText = "ニュースの取得に失敗しました"

// ParseNewsCategory resolves a configured category name. Blank or
// unrecognized names fall back to NewsGeneral.
func ParseNewsCategory(name string) NewsCategory {
	name = strings.TrimSpace(name)
	for i, n := range newsCategoryNames {
		if n == name {
			return NewsCategory(i)
		}
	}
	return NewsGeneral
}

// NewsCategories lists every supported category in declaration order.
func NewsCategories() []NewsCategory {
	out := make([]NewsCategory, len(newsCategoryNames))
	for i := range newsCategoryNames {
		out[i] = NewsCategory(i)
	}
	return out
}

func (c NewsCategory) String() string {
	if c < 0 || int(c) >= len(newsCategoryNames) {
		return newsCategoryNames[NewsGeneral]
	}
	return newsCategoryNames[c]
}

// NewsDigest holds up to MaxHeadlines headlines in feed order.
type NewsDigest struct {
	Headlines []string
}
