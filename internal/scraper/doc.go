// Package scraper provides HTTP fetching and HTML extraction for AJP Tour
// match-list pages.
//
// The scraper fetches the paginated match list of one event at a time and
// extracts bout records (participants, teams, winner, victory method and
// time, category decomposition) together with best-effort event metadata.
// Extraction is deliberately tolerant: a malformed fragment degrades to
// empty fields rather than failing the page, and a failed pagination page
// is skipped rather than aborting the event.
package scraper
