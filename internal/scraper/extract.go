package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mgorriz/ajp-results/internal/match"
)

const matchRowSelector = "div.match-row.well.well-inverted.well-extra-condensed.end"

var yearPattern = regexp.MustCompile(`(\d{4})`)

// extractEventInfo pulls the event name and year from a page. The name is
// the first top-level heading; the year is the first 4-digit number inside
// the event date element, falling back to a scan of common containers.
// Missing data yields an empty name / zero year, never an error.
func extractEventInfo(doc *goquery.Document) match.EventInfo {
	var info match.EventInfo

	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		info.Name = strings.TrimSpace(h1.Text())
	}

	if date := doc.Find("div.event-header-date").First(); date.Length() > 0 {
		info.Year = firstYear(date.Text())
		return info
	}

	doc.Find("div, span, h2, h3").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if y := firstYear(sel.Text()); y != 0 {
			info.Year = y
			return false
		}
		return true
	})
	return info
}

func firstYear(text string) int {
	m := yearPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return y
}

// pageCount returns the item count of the pagination control, or 2 when no
// control is present (exactly one content page). The count includes any
// prev/next items the control renders; content pages are 1..count-1.
func pageCount(doc *goquery.Document) int {
	pagination := doc.Find("ul.pagination").First()
	if pagination.Length() == 0 {
		return 2
	}
	return pagination.Find("li").Length()
}

// extractMatches walks a page in document order, tracking the current
// category heading, and builds one record per bout container. Each bout is
// parsed independently: a malformed fragment produces empty fields for
// that bout only.
func extractMatches(doc *goquery.Document, info match.EventInfo, eventID int) []match.Match {
	var (
		records  []match.Match
		category match.CategoryInfo
	)

	doc.Find("div.category-row, " + matchRowSelector).Each(func(i int, sel *goquery.Selection) {
		if sel.HasClass("category-row") {
			category = match.ParseCategory(strings.TrimSpace(sel.Text()))
			return
		}
		records = append(records, extractBout(sel, category, info, eventID))
	})

	return records
}

// extractBout parses one bout container against the nearest preceding
// category heading.
func extractBout(row *goquery.Selection, category match.CategoryInfo, info match.EventInfo, eventID int) match.Match {
	m := match.Match{
		Category:  category.Category,
		Belt:      category.Belt,
		Type:      category.Type,
		Weight:    category.Weight,
		Day:       category.Day,
		EventName: info.Name,
		Year:      info.Year,
		EventID:   eventID,
	}

	participants := row.Find("span.participant")
	clubs := row.Find("span.club")

	if participants.Length() > 0 {
		m.Athlete1 = participantName(participants.Eq(0))
	}
	if participants.Length() > 1 {
		m.Athlete2 = participantName(participants.Eq(1))
	}
	if clubs.Length() > 0 {
		m.Team1 = strings.TrimSpace(clubs.Eq(0).Text())
	}
	if clubs.Length() > 1 {
		m.Team2 = strings.TrimSpace(clubs.Eq(1).Text())
	}

	if via := row.Find("span.text-success").First(); via.Length() > 0 {
		m.WinnerVia, m.Time = match.ParseVictory(strings.TrimSpace(via.Text()))
	}
	if m.WinnerVia == "" || m.Time == "" {
		participants.EachWithBreak(func(i int, p *goquery.Selection) bool {
			via, elapsed := match.ParseVictory(strings.TrimSpace(p.Text()))
			if via != "" && elapsed != "" {
				m.WinnerVia, m.Time = via, elapsed
				return false
			}
			return true
		})
	}

	participants.EachWithBreak(func(i int, p *goquery.Selection) bool {
		if p.HasClass("ok") {
			m.Winner = participantName(p)
			return false
		}
		return true
	})

	return m
}

// participantName returns the element's own text nodes only, so result
// annotations nested inside the participant span don't leak into the name.
func participantName(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Contents().Not("*").Text())
}
