package importer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// foreignCodes are the currencies recognized in free-text narrations.
var foreignCodes = map[string]bool{
	"AED": true, "USD": true, "EUR": true, "GBP": true, "INR": true,
	"SAR": true, "QAR": true, "OMR": true, "KWD": true, "BHD": true,
	"JPY": true, "CHF": true, "CAD": true, "AUD": true, "PKR": true,
	"PHP": true, "EGP": true, "TRY": true, "THB": true, "SGD": true,
	"CNY": true, "HKD": true, "LKR": true,
}

// narrationAmount matches "<amount>,<CODE>" as in "12.99,USD".
var narrationAmount = regexp.MustCompile(`(\d+(?:\.\d{1,3})?)\s?,\s?([A-Za-z]{3})\b`)

type foreignAmount struct {
	amount   decimal.Decimal
	currency string
}

// scanForeign looks for a whitelisted "<amount>,<CODE>" pair that differs
// from the settlement currency.
func scanForeign(settlement string, texts ...string) (foreignAmount, bool) {
	for _, text := range texts {
		for _, m := range narrationAmount.FindAllStringSubmatch(text, -1) {
			code := strings.ToUpper(m[2])
			if !foreignCodes[code] || strings.EqualFold(code, settlement) {
				continue
			}
			amt, err := decimal.NewFromString(m[1])
			if err != nil || amt.IsZero() {
				continue
			}
			return foreignAmount{amount: amt, currency: code}, true
		}
	}
	return foreignAmount{}, false
}

// parseAmount reads a statement amount, tolerating thousands separators and
// surrounding blanks. Empty means zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
