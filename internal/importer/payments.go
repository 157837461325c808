package importer

import (
	"strings"

	"github.com/ledgerfeed/ledgerfeed/internal/normalize"
	"github.com/ledgerfeed/ledgerfeed/internal/recurring"
)

// paymentExcluded are bank statuses that never count as a payment.
var paymentExcluded = map[string]bool{
	"FAILED":    true,
	"CANCELLED": true,
	"CANCELED":  true,
	"REVERSED":  true,
	"REFUNDED":  true,
	"DECLINED":  true,
}

// Payments extracts the debits of a parsed statement for recurrence
// analysis, keyed by normalized merchant name. Nothing is written.
func Payments(records []Record, names *normalize.Normalizer, lang string) []recurring.Payment {
	if names == nil {
		names = normalize.New(nil)
	}
	var out []recurring.Payment
	for _, rec := range records {
		switch r := rec.(type) {
		case *BankRecord:
			if !r.debit || paymentExcluded[strings.ToUpper(strings.TrimSpace(r.tx.Status))] {
				continue
			}
			amount := r.tx.Amount.Abs()
			if r.tx.AccountAmount != nil && !r.tx.AccountAmount.Amount.IsZero() {
				amount = r.tx.AccountAmount.Amount.Abs()
			}
			if amount.IsZero() {
				continue
			}
			out = append(out, recurring.Payment{
				Merchant: names.NormalizeOr(r.merchantKey(lang), "Unknown"),
				Date:     r.date,
				Amount:   amount,
			})
		case *CardRecord:
			if !r.debit || r.signed.IsZero() || classifyCard(r) != cardPurchase {
				continue
			}
			out = append(out, recurring.Payment{
				Merchant: names.NormalizeOr(r.description, "Unknown"),
				Date:     r.date,
				Amount:   r.signed.Abs(),
			})
		}
	}
	return out
}
