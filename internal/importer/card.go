package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/ledgerfeed/internal/dedup"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// CardRecord is one validated card statement row. Both card CSV layouts
// parse into it.
type CardRecord struct {
	line        int
	date        time.Time
	description string
	raw         string          // description as exported, used for fingerprinting
	signed      decimal.Decimal // as the file states it
	debit       bool
	origCode    string
	origAmount  decimal.Decimal
}

// Line returns the row's line number in the file.
func (c *CardRecord) Line() int { return c.line }

// Date returns the posting day.
func (c *CardRecord) Date() time.Time { return c.date }

// Summary returns the row description.
func (c *CardRecord) Summary() string { return c.description }

type cardSubtype int

const (
	cardPurchase cardSubtype = iota
	cardFee
	cardPayment
	cardCashback
	cardRefund
)

var (
	cardPaymentPattern  = regexp.MustCompile(`(?i)payment\s+(received|thank)|thank\s*you|auto\s*pay|^payment\b|direct\s+debit`)
	cardCashbackPattern = regexp.MustCompile(`(?i)cash\s*back|reward`)
	cardFeePattern      = regexp.MustCompile(`(?i)\b(fee|fees|charges?|interest|vat)\b`)
)

func classifyCard(c *CardRecord) cardSubtype {
	text := c.description + " " + c.raw
	if c.debit {
		if cardFeePattern.MatchString(text) {
			return cardFee
		}
		return cardPurchase
	}
	switch {
	case cardPaymentPattern.MatchString(text):
		return cardPayment
	case cardCashbackPattern.MatchString(text):
		return cardCashback
	default:
		return cardRefund
	}
}

type cardHandler func(rc *RunContext, c *CardRecord) (model.Transaction, error)

var cardDispatch = map[cardSubtype]cardHandler{
	cardPurchase: cardPurchaseTx,
	cardFee:      cardFeeTx,
	cardPayment:  cardPaymentTx,
	cardCashback: cardCashbackTx,
	cardRefund:   cardRefundTx,
}

func cardPurchaseTx(rc *RunContext, c *CardRecord) (model.Transaction, error) {
	desc, acct := rc.merchant(c.description)
	return withdrawal(rc, desc, acct, TagCardPurchase), nil
}

func cardFeeTx(rc *RunContext, c *CardRecord) (model.Transaction, error) {
	desc := rc.Names.NormalizeOr(c.description, "Card Fee")
	return withdrawal(rc, desc, rc.Accounts.MatchExpense("Card Fees"), TagCardFee), nil
}

// Payments to the card are imported from the paying account as transfers.
func cardPaymentTx(_ *RunContext, _ *CardRecord) (model.Transaction, error) {
	return model.Transaction{}, skip("card payment is imported as a transfer from the paying account")
}

func cardCashbackTx(rc *RunContext, _ *CardRecord) (model.Transaction, error) {
	return deposit(rc, "Cashback", rc.Accounts.MatchRevenue("Cashback"), TagCashback), nil
}

func cardRefundTx(rc *RunContext, c *CardRecord) (model.Transaction, error) {
	desc, acct := rc.payer(c.description)
	return deposit(rc, desc, acct, TagRefund), nil
}

// mapCard is shared by both card layouts.
func mapCard(rc *RunContext, rec Record) (model.Transaction, error) {
	c, ok := rec.(*CardRecord)
	if !ok {
		return model.Transaction{}, fmt.Errorf("card: unexpected record type %T", rec)
	}
	if c.signed.IsZero() {
		return model.Transaction{}, skip("zero amount")
	}

	tx, err := cardDispatch[classifyCard(c)](rc, c)
	if err != nil {
		return model.Transaction{}, err
	}

	currency := rc.currency()
	var foreign *foreignAmount
	if c.origCode != "" && !strings.EqualFold(c.origCode, currency) && !c.origAmount.IsZero() {
		foreign = &foreignAmount{amount: c.origAmount.Abs(), currency: strings.ToUpper(c.origCode)}
	} else if f, ok := scanForeign(currency, c.raw, c.description); ok {
		foreign = &f
	}
	settle(&tx, c.signed, currency, foreign)

	tx.Date = c.date
	tx.ExternalID = dedup.Fingerprint(c.date, c.raw, c.signed, strconv.Itoa(c.line))
	tx.Notes = auditNotes(c.line, "raw", c.raw)
	return tx, nil
}
