package accounts

import "strings"

// Match resolves candidate against directory names, case-insensitively.
// It returns the directory entry's own casing on a hit, otherwise candidate
// unchanged so the ledger can auto-create the account. Rules, first hit wins:
// exact equality, then entry contains candidate, then (reverse only) candidate
// contains entry.
func Match(candidate string, directory []string, reverse bool) string {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return candidate
	}

	for _, name := range directory {
		if strings.ToLower(strings.TrimSpace(name)) == c {
			return name
		}
	}
	for _, name := range directory {
		n := strings.ToLower(strings.TrimSpace(name))
		if n != "" && strings.Contains(n, c) {
			return name
		}
	}
	if reverse {
		for _, name := range directory {
			n := strings.ToLower(strings.TrimSpace(name))
			if n != "" && strings.Contains(c, n) {
				return name
			}
		}
	}
	return candidate
}
