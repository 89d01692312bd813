package models

import (
	"regexp"
	"strconv"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*(?:hr|hrs|hour|hours|h)\b`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*(?:min|mins|minute|minutes|m)\b`)
)

// DurationMinutes parses display durations like "5 hr 30 min". Missing
// components count as zero, so "N/A" is 0.
func DurationMinutes(s string) int {
	var hours, mins int
	if m := hoursPattern.FindStringSubmatch(s); len(m) >= 2 {
		hours, _ = strconv.Atoi(m[1])
	}
	if m := minutesPattern.FindStringSubmatch(s); len(m) >= 2 {
		mins, _ = strconv.Atoi(m[1])
	}
	return hours*60 + mins
}
