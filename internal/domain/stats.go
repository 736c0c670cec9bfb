package domain

import "sort"

// DayCount is the number of bookmarks created on one calendar day (UTC).
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// GroupByDate counts entries per day of BookmarkedAt, oldest day first.
func GroupByDate(entries []BookmarkEntry) []DayCount {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.BookmarkedAt.UTC().Format("2006-01-02")]++
	}

	days := make([]DayCount, 0, len(counts))
	for date, n := range counts {
		days = append(days, DayCount{Date: date, Count: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
