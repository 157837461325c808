package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// UnidentifiedMerchant receives card payments whose card is not in the card map.
const UnidentifiedMerchant = "Unidentified Merchant"

// Tags attached by the mapping functions.
const (
	TagPOSPurchase       = "pos-purchase"
	TagOnlinePurchase    = "online-purchase"
	TagCardPurchase      = "card-purchase"
	TagRefund            = "refund"
	TagATMWithdrawal     = "atm-withdrawal"
	TagSalary            = "salary"
	TagTransferIn        = "transfer-in"
	TagTransferOut       = "transfer-out"
	TagCreditCardPayment = "credit-card-payment"
	TagBankFee           = "bank-fee"
	TagCardFee           = "card-fee"
	TagInterest          = "interest"
	TagCashback          = "cashback"
	TagForeignCurrency   = "foreign-currency"
)

func withdrawal(rc *RunContext, description, destination string, tags ...string) model.Transaction {
	return model.Transaction{
		Kind:        model.KindWithdrawal,
		Description: description,
		Source:      rc.own(),
		Destination: model.Named(destination),
		Tags:        tags,
	}
}

func deposit(rc *RunContext, description, source string, tags ...string) model.Transaction {
	return model.Transaction{
		Kind:        model.KindDeposit,
		Description: description,
		Source:      model.Named(source),
		Destination: rc.own(),
		Tags:        tags,
	}
}

func transfer(from, to model.Account, description string, tags ...string) model.Transaction {
	return model.Transaction{
		Kind:        model.KindTransfer,
		Description: description,
		Source:      model.Known(from.ID),
		Destination: model.Known(to.ID),
		Tags:        tags,
	}
}

// settle fills the amount fields and tags foreign charges.
func settle(tx *model.Transaction, amount decimal.Decimal, currency string, foreign *foreignAmount) {
	tx.Amount = amount.Abs()
	tx.CurrencyCode = strings.ToUpper(currency)
	if foreign != nil && !strings.EqualFold(foreign.currency, currency) {
		tx.ForeignAmount = decimal.NewNullDecimal(foreign.amount.Abs())
		tx.ForeignCurrencyCode = strings.ToUpper(foreign.currency)
		tx.Tags = append(tx.Tags, TagForeignCurrency)
	}
}

// auditNotes renders the line number followed by non-empty label/value pairs.
func auditNotes(line int, pairs ...string) string {
	parts := []string{fmt.Sprintf("line %d", line)}
	for i := 0; i+1 < len(pairs); i += 2 {
		if v := strings.TrimSpace(pairs[i+1]); v != "" {
			parts = append(parts, pairs[i]+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}
