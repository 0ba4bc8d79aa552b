package match

import (
	"regexp"
	"strings"
)

// CategoryInfo is the decomposition of a category heading like
// "Adult / Black / Gi / 85KG (Sun)".
type CategoryInfo struct {
	Category string
	Belt     string
	Type     string
	Weight   string
	Day      string
}

var weightPattern = regexp.MustCompile(`^(\d+KG)(?:\s*\((\w+)\))?`)

// ParseCategory splits a category heading on "/" into up to four parts:
// category, belt, type and weight-with-optional-day. The fourth part is
// matched against "<digits>KG" optionally followed by a parenthesized
// day code; if it does not match, the whole segment is kept verbatim as
// the weight with no day. Missing parts are empty strings.
func ParseCategory(s string) CategoryInfo {
	parts := strings.Split(s, "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var info CategoryInfo
	if len(parts) > 0 {
		info.Category = parts[0]
	}
	if len(parts) > 1 {
		info.Belt = parts[1]
	}
	if len(parts) > 2 {
		info.Type = parts[2]
	}
	if len(parts) > 3 {
		if m := weightPattern.FindStringSubmatch(parts[3]); m != nil {
			info.Weight = m[1]
			info.Day = m[2]
		} else {
			info.Weight = parts[3]
		}
	}
	return info
}

var (
	victoryWithTime = regexp.MustCompile(`Won by ([\w ]+)\s*-\s*(\d{2}:\d{2})`)
	victoryNoTime   = regexp.MustCompile(`Won by ([\w ]+)`)
)

// ParseVictory extracts the victory method and elapsed time from a
// result line like "Won by Submission - 03:45". Without a time suffix
// only the method is returned; text with no "Won by" yields two empty
// strings.
func ParseVictory(s string) (via, elapsed string) {
	if m := victoryWithTime.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := victoryNoTime.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), ""
	}
	return "", ""
}
