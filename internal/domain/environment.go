package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoReading is returned by a PollenProvider when the page has no level
// for today.
var ErrNoReading = errors.New("no environmental reading")

var (
	pollenLevelTexts  = [...]string{"", "少ない", "やや多い", "多い", "非常に多い"}
	pollenLevelEmojis = [...]string{"", "😊", "😐", "😷", "🤧"}
)

// EnvironmentalReport is the day's pollen level and its rendered message.
type EnvironmentalReport struct {
	Level   int
	Message string
}

// InPollenSeason reports whether month falls in the February–May window.
func InPollenSeason(month time.Month) bool {
	return month >= time.February && month <= time.May
}

// NewEnvironmentalReport renders a level between 1 and 4. Levels 3 and above
// carry a protective-measures suggestion.
func NewEnvironmentalReport(level int) (EnvironmentalReport, error) {
	if level < 1 || level > 4 {
		return EnvironmentalReport{}, fmt.Errorf("pollen level %d out of range", level)
	}
	msg := pollenLevelEmojis[level] + " 花粉：" + pollenLevelTexts[level]
	if level >= 3 {
		msg += "（マスク・メガネの着用をおすすめします）"
	}
	return EnvironmentalReport{Level: level, Message: msg}, nil
}
