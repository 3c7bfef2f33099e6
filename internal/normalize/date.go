// Package normalize holds the pure transforms applied between extraction
// and publication: date canonicalization, document keys, derived counters
// and lenient cell parsing.
package normalize

import "strings"

// Date converts a loosely formatted date ("1/2/26", "15-03-2025") into
// DD/MM/YYYY. Day and month are zero-padded and two-digit years are
// expanded to 20YY. Input that does not split into exactly three parts is
// returned unchanged.
func Date(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	parts := strings.Split(strings.ReplaceAll(s, "-", "/"), "/")
	if len(parts) != 3 {
		return raw
	}

	day := padTwo(parts[0])
	month := padTwo(parts[1])
	year := parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return day + "/" + month + "/" + year
}

func padTwo(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}
