package core

import "sort"

// MonthAll is the sentinel month value meaning "no filter".
const MonthAll = "all"

// MonthOptions returns the distinct YYYY-MM prefixes present in the
// entries, most recent first. The MonthAll sentinel is not part of the
// result; consumers prepend it themselves.
func MonthOptions(entries []Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	months := make([]string, 0, len(entries))
	for _, e := range entries {
		m := monthOf(e.Date)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// FilterMonth returns the entries matching the selected month in their
// original relative order, together with the sum of their amounts.
// MonthAll selects everything.
func FilterMonth(entries []Entry, month string) ([]Entry, float64) {
	filtered := make([]Entry, 0, len(entries))
	var total float64
	for _, e := range entries {
		if month != MonthAll && monthOf(e.Date) != month {
			continue
		}
		filtered = append(filtered, e)
		total += e.Amount
	}
	return filtered, total
}

// monthOf slices the YYYY-MM prefix without assuming a well-formed
// date. Short strings pass through whole and simply never match a
// real month.
func monthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}
