// Package normalize canonicalizes raw merchant and payer strings from bank exports.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sentinels used when stripping leaves nothing behind.
const (
	UnknownMerchant = "Unknown Merchant"
	UnknownPayer    = "Unknown Payer"
)

// DefaultCities are stripped from the end of merchant strings.
var DefaultCities = []string{
	"Dubai", "Abu Dhabi", "Sharjah", "Ajman", "Al Ain", "Ras Al Khaimah",
	"Fujairah", "Umm Al Quwain", "Deira", "Jumeirah", "Business Bay",
}

var (
	// "(971+, AE)", "(DUBAI, AE)"
	parenLocation = regexp.MustCompile(`\s*\(\s*(?:[\d+]+|[\p{L} .'-]+)\s*,\s*\p{L}{2}\s*\)$`)
	// storefront billing tails such as "AMZN.COM/BILL" or "AMZN MKTP AE"
	storefrontSuffix = regexp.MustCompile(`(?i)\s+(?:[a-z0-9.-]+\.com/bill|(?:amzn\s+)?mktp\s+[a-z]{2})$`)
	// trailing token carrying a reference number of six or more digits
	referenceCode = regexp.MustCompile(`(?i)\s+[#*]?[a-z0-9-]*\d{6,}[a-z0-9-]*$`)
	// payment processor in front of the real merchant: "PAYPAL *NETFLIX"
	processorPrefix = regexp.MustCompile(`(?i)^(?:paypal|sq|sp|tst|py|iz|sumup)\s?\*\s*`)
	// brand followed by a star and a product/order code: "AMAZON* AB12CD"
	vendorStar = regexp.MustCompile(`^([^*]*[^*\s])\s*\*.*$`)
)

// Normalizer strips location and payment-rail noise and title-cases shouted words.
// It is deterministic and safe to reuse; it is not safe for concurrent use.
type Normalizer struct {
	cityTail *regexp.Regexp
}

// New returns a Normalizer stripping the given trailing city names.
// A nil list uses DefaultCities.
func New(cities []string) *Normalizer {
	if cities == nil {
		cities = DefaultCities
	}
	n := &Normalizer{}
	if alt := cityAlternation(cities); alt != "" {
		n.cityTail = regexp.MustCompile(`(?i)\s+(?:` + alt + `)$`)
	}
	return n
}

// cityAlternation builds a regexp alternation with the longest names first
// so "Abu Dhabi" wins over a hypothetical "Dhabi".
func cityAlternation(cities []string) string {
	quoted := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.Join(strings.Fields(c), " ")
		if c == "" {
			continue
		}
		quoted = append(quoted, strings.ReplaceAll(regexp.QuoteMeta(c), " ", `\s+`))
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return strings.Join(quoted, "|")
}

// Normalize returns the canonical form of raw, or "" if nothing is left.
func (n *Normalizer) Normalize(raw string) string {
	s := collapse(raw)
	for {
		next := n.strip(s)
		if next == s {
			break
		}
		s = next
	}
	return titleCase(s)
}

// NormalizeOr is Normalize with a fallback for empty results.
func (n *Normalizer) NormalizeOr(raw, fallback string) string {
	if s := n.Normalize(raw); s != "" {
		return s
	}
	return fallback
}

// Key is the case-folded canonical form, used to group the same merchant.
func (n *Normalizer) Key(raw string) string {
	return strings.ToLower(n.Normalize(raw))
}

// strip applies one round of every removal rule.
func (n *Normalizer) strip(s string) string {
	s = parenLocation.ReplaceAllString(s, "")
	if n.cityTail != nil {
		s = n.cityTail.ReplaceAllString(s, "")
	}
	s = storefrontSuffix.ReplaceAllString(s, "")
	s = referenceCode.ReplaceAllString(s, "")
	if loc := processorPrefix.FindStringIndex(s); loc != nil && loc[1] < len(s) {
		s = s[loc[1]:]
	}
	s = vendorStar.ReplaceAllString(s, "$1")
	return collapse(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// titleCase rewrites fully upper-case words longer than three characters.
// Short acronyms and mixed-case words are left alone.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	caser := cases.Title(language.Und)
	words := strings.Split(s, " ")
	for i, w := range words {
		if utf8.RuneCountInString(w) > 3 && isShouted(w) {
			words[i] = caser.String(w)
		}
	}
	return strings.Join(words, " ")
}

func isShouted(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
