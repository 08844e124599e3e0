package domain

import "strings"

// DefaultRegionCode is the JMA office code for Tokyo, used when a
// subscription leaves the region blank.
const DefaultRegionCode = "130000"

// NormalizeRegionCode trims the code, substitutes the default for a blank
// value and left-pads numeric codes to six digits ("13000" -> "013000").
func NormalizeRegionCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultRegionCode
	}
	if len(code) < 6 {
		code = strings.Repeat("0", 6-len(code)) + code
	}
	return code
}

// PrefectureCode returns the two-digit province prefix of a region code.
func PrefectureCode(regionCode string) string {
	code := NormalizeRegionCode(regionCode)
	return code[:2]
}
