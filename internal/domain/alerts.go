package domain

import (
	"strconv"
	"strings"
)

// alertBanner heads the alert block. The leading newline leaves a blank line
// between the weather section and the block.
const alertBanner = "\n⚡アラート⚡\n"

// weatherKeywords are scanned in order; only the first match is reported.
var weatherKeywords = []string{"大雨", "暴風", "雪", "警報", "注意報", "雷"}

// WeatherAlerts evaluates the alert rules over a forecast. Alerts appear in
// a fixed order: precipitation, heat, cold, keyword. It returns "" when the
// forecast is unavailable or no rule applies.
func WeatherAlerts(weather Source[WeatherSnapshot]) string {
	if !weather.OK() {
		return ""
	}
	w := weather.Value

	var alerts []string

	pop := strconv.Itoa(w.PrecipitationProbability)
	switch {
	case w.PrecipitationProbability >= 50:
		alerts = append(alerts, "☂️ 傘を忘れずに！（降水確率"+pop+"%）")
	case w.PrecipitationProbability >= 30:
		alerts = append(alerts, "☁️ 傘があると安心です（降水確率"+pop+"%）")
	}

	if w.MaxTemp != nil {
		switch {
		case *w.MaxTemp >= 30:
			alerts = append(alerts, "🌡️ 熱中症に注意！こまめに水分補給を")
		case *w.MaxTemp >= 25:
			alerts = append(alerts, "🌞 暑くなりそうです")
		}
	}

	if w.MinTemp != nil {
		switch {
		case *w.MinTemp <= 5:
			alerts = append(alerts, "🧥 しっかり防寒してください（最低気温"+formatTemp(*w.MinTemp)+"度）")
		case *w.MinTemp <= 10:
			alerts = append(alerts, "🍃 朝晩は冷えます。上着があると安心")
		}
	}

	for _, kw := range weatherKeywords {
		if strings.Contains(w.RawText, kw) {
			alerts = append(alerts, "⚠️ "+kw+"に注意してください")
			break
		}
	}

	if len(alerts) == 0 {
		return ""
	}
	return alertBanner + strings.Join(alerts, "\n")
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
