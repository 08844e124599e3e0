package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = [...]string{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"}

// Briefing gathers everything one run fetched. Sources that are absent or
// unavailable are rendered according to the section rules in Compose.
type Briefing struct {
	Identity      IdentitySnapshot
	Date          time.Time
	Weather       Source[WeatherSnapshot]
	WeatherAlerts string
	News          Source[NewsDigest]
	NewsCategory  NewsCategory
	Transit       Source[TransitStatus]
	RouteName     string
	Environment   Source[EnvironmentalReport]
	Quote         Source[Quote]
}

// Compose renders a briefing. Sections appear in a fixed order and are
// omitted entirely when their data is missing:
//
//  1. greeting with name, date and weekday
//  2. weather, or a could-not-retrieve sentence
//  3. weather alerts
//  4. pollen (in season only)
//  5. transit (route requested only)
//  6. news, or its placeholder
//  7. quotation
//  8. closing line
//
// Compose is pure: equal briefings yield byte-identical messages.
func Compose(b Briefing) ComposedMessage {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%sさん、おはようございます！\n", b.Identity.DisplayName)
	fmt.Fprintf(&sb, "今日は%d月%d日(%s)です。\n\n", int(b.Date.Month()), b.Date.Day(), weekdayNames[b.Date.Weekday()])

	sb.WriteString("【今日の天気】\n")
	if b.Weather.OK() {
		w := b.Weather.Value
		sb.WriteString(w.ConditionText)
		if w.MaxTemp != nil && w.MinTemp != nil {
			fmt.Fprintf(&sb, "\n（気温：最高%s度 / 最低%s度）", formatTemp(*w.MaxTemp), formatTemp(*w.MinTemp))
		}
		sb.WriteString("\n降水確率：" + strconv.Itoa(w.PrecipitationProbability) + "%")
	} else {
		sb.WriteString("天気情報を取得できませんでした")
	}
	if b.WeatherAlerts != "" {
		sb.WriteString("\n" + b.WeatherAlerts)
	}
	sb.WriteString("\n\n")

	if b.Environment.OK() {
		sb.WriteString("【花粉情報】\n")
		sb.WriteString(b.Environment.Value.Message + "\n\n")
	}

	if b.Transit.Present() {
		t := b.Transit.Value
		sb.WriteString("【運行情報】\n")
		sb.WriteString("🚃 " + b.RouteName + "\n")
		sb.WriteString(t.State.Label() + "\n")
		if t.Detail != "" {
			sb.WriteString(t.Detail + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("【最新ニュース")
	if b.NewsCategory != NewsGeneral {
		sb.WriteString("（" + b.NewsCategory.String() + "）")
	}
	sb.WriteString("】\n")
	if b.News.OK() {
		for i, h := range b.News.Value.Headlines {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "%d. %s", i+1, h)
		}
	} else {
		sb.WriteString(NewsUnavailableText)
	}
	sb.WriteString("\n\n")

	if b.Quote.OK() {
		sb.WriteString("📜 今日の言葉\n「" + b.Quote.Value.Text + "」\n\n")
	}

	sb.WriteString("今日も一日頑張りましょう！")

	return ComposedMessage(sb.String())
}
