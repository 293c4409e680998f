package model

import (
	"regexp"
	"strconv"
	"strings"
)

var measurementRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseMeasurement extracts the first numeric value from dimension text.
// The "<>" placeholder stands for the measured value itself and carries no
// number, so nothing can be recovered from it.
func ParseMeasurement(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.Contains(text, "<>") {
		return 0, false
	}
	match := measurementRe.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
