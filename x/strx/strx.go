// Package strx has string helpers for parameter defaults.
package strx

// Coalesce returns the first non-empty value, or "" if all are empty.
func Coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
