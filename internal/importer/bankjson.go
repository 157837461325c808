package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/ledgerfeed/internal/dedup"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// FormatBankJSON is the bank's JSON statement export.
const FormatBankJSON = "bankjson"

type bankStatement struct {
	Transactions *[]bankTransaction `json:"transactions"`
}

type bankTransaction struct {
	Type                 string              `json:"type"`
	CreditDebitIndicator string              `json:"creditDebitIndicator"`
	Amount               decimal.Decimal     `json:"amount"`
	CurrencyCode         string              `json:"currencyCode"`
	Date                 *int64              `json:"date"`
	TransactionDate      string              `json:"transactionDate"`
	Status               string              `json:"status"`
	Terminal             *bankTerminal       `json:"terminal"`
	Purpose              bankPurpose         `json:"purpose"`
	AccountAmount        *bankMoney          `json:"accountAmount"`
	ExchangeRate         decimal.NullDecimal `json:"exchangeRate"`
	ReferenceNumber      string              `json:"referenceNumber"`
	BookingReference     string              `json:"bookingReference"`
	MerchantKey          string              `json:"merchantKey"`
}

type bankTerminal struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type bankPurpose struct {
	Narrations         []string            `json:"narrations"`
	ExtendedNarrations []extendedNarration `json:"extendedNarrations"`
}

// extendedNarration keeps the upstream "languange" spelling.
type extendedNarration struct {
	Language string `json:"languange"`
	Title    string `json:"title"`
	SubTitle string `json:"subTitle"`
}

type bankMoney struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// BankRecord is one validated element of the transactions array.
type BankRecord struct {
	index int
	date  time.Time
	debit bool
	tx    bankTransaction
}

// Line returns the 1-based position in the transactions array.
func (b *BankRecord) Line() int { return b.index }

// Date returns the posting day.
func (b *BankRecord) Date() time.Time { return b.date }

// Summary returns the best raw label for the record.
func (b *BankRecord) Summary() string {
	if s := b.merchantName(""); s != "" {
		return s
	}
	return b.tx.Type
}

func (b *BankRecord) code() string { return strings.ToUpper(strings.TrimSpace(b.tx.Type)) }

func (b *BankRecord) reference() string {
	if b.tx.ReferenceNumber != "" {
		return b.tx.ReferenceNumber
	}
	return b.tx.BookingReference
}

// localizedTitle returns the extended narration title in lang, or the first
// title when lang is empty.
func (b *BankRecord) localizedTitle(lang string) string {
	for _, n := range b.tx.Purpose.ExtendedNarrations {
		if strings.TrimSpace(n.Title) == "" {
			continue
		}
		if lang == "" || strings.EqualFold(n.Language, lang) {
			return n.Title
		}
	}
	return ""
}

// merchantName prefers the localized title, then the terminal name, then the
// first narration line.
func (b *BankRecord) merchantName(lang string) string {
	if t := b.localizedTitle(lang); t != "" {
		return t
	}
	if b.tx.Terminal != nil && strings.TrimSpace(b.tx.Terminal.Name) != "" {
		return b.tx.Terminal.Name
	}
	if len(b.tx.Purpose.Narrations) > 0 {
		return b.tx.Purpose.Narrations[0]
	}
	return ""
}

// narration joins every free-text field.
func (b *BankRecord) narration() string {
	parts := append([]string(nil), b.tx.Purpose.Narrations...)
	for _, n := range b.tx.Purpose.ExtendedNarrations {
		parts = append(parts, n.Title, n.SubTitle)
	}
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " | ")
}

// BankJSONAdapter reads the bank's JSON statement export.
type BankJSONAdapter struct {
	Location *time.Location
}

// Format returns the adapter name.
func (a *BankJSONAdapter) Format() string { return FormatBankJSON }

// Parse decodes the statement and returns its records in chronological
// order. The export does not guarantee ordering.
func (a *BankJSONAdapter) Parse(r io.Reader) ([]Record, error) {
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}

	var stmt bankStatement
	if err := json.NewDecoder(r).Decode(&stmt); err != nil {
		return nil, parseErr("decoding bank JSON: %v", err)
	}
	if stmt.Transactions == nil {
		return nil, parseErr("bank JSON has no transactions array")
	}

	recs := make([]*BankRecord, 0, len(*stmt.Transactions))
	for i, tx := range *stmt.Transactions {
		rec, err := newBankRecord(i+1, tx, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", ErrParse, i+1, err)
		}
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].date.Before(recs[j].date) })

	out := make([]Record, len(recs))
	for i, rec := range recs {
		out[i] = rec
	}
	return out, nil
}

func newBankRecord(index int, tx bankTransaction, loc *time.Location) (*BankRecord, error) {
	if strings.TrimSpace(tx.Type) == "" {
		return nil, fmt.Errorf("missing type")
	}
	rec := &BankRecord{index: index, tx: tx}
	switch strings.ToUpper(strings.TrimSpace(tx.CreditDebitIndicator)) {
	case "DR":
		rec.debit = true
	case "CR":
	default:
		return nil, fmt.Errorf("creditDebitIndicator %q is neither DR nor CR", tx.CreditDebitIndicator)
	}
	switch {
	case tx.Date != nil:
		rec.date = fromEpochMillis(*tx.Date, loc)
	case tx.TransactionDate != "":
		d, err := parseDate(tx.TransactionDate, loc)
		if err != nil {
			return nil, err
		}
		rec.date = d
	default:
		return nil, fmt.Errorf("missing date")
	}
	return rec, nil
}

// excludedStatuses never reach the ledger.
var excludedStatuses = map[string]bool{
	"FAILED":    true,
	"CANCELLED": true,
	"CANCELED":  true,
	"REVERSED":  true,
	"DECLINED":  true,
	"REJECTED":  true,
}

type bankKey struct {
	code  string
	debit bool
}

type bankHandler func(rc *RunContext, b *BankRecord) (model.Transaction, error)

var bankDispatch = map[bankKey]bankHandler{
	{"POS", true}:          bankPOSPurchase,
	{"ECOMMERCE", true}:    bankOnlinePurchase,
	{"POS", false}:         bankMerchantRefund,
	{"ECOMMERCE", false}:   bankMerchantRefund,
	{"REFUND", false}:      bankMerchantRefund,
	{"ATM", true}:          bankATMWithdrawal,
	{"SALARY", false}:      bankSalary,
	{"TRANSFER", true}:     bankTransferOut,
	{"TRANSFER", false}:    bankTransferIn,
	{"CARD_PAYMENT", true}: bankCardPayment,
	{"FEE", true}:          bankFee,
	{"CHARGE", true}:       bankFee,
	{"INTEREST", false}:    bankInterest,
	{"PROFIT", false}:      bankInterest,
}

// Map turns one bank record into a canonical transaction.
func (a *BankJSONAdapter) Map(rc *RunContext, rec Record) (model.Transaction, error) {
	b, ok := rec.(*BankRecord)
	if !ok {
		return model.Transaction{}, fmt.Errorf("bankjson: unexpected record type %T", rec)
	}
	if status := strings.ToUpper(strings.TrimSpace(b.tx.Status)); excludedStatuses[status] {
		return model.Transaction{}, skip("status %s", status)
	}
	if b.tx.Amount.IsZero() {
		return model.Transaction{}, skip("zero amount")
	}

	handler, ok := bankDispatch[bankKey{code: b.code(), debit: b.debit}]
	if !ok {
		handler = bankOtherCredit
		if b.debit {
			handler = bankOtherDebit
		}
	}
	tx, err := handler(rc, b)
	if err != nil {
		return model.Transaction{}, err
	}

	amount, currency, foreign := bankAmounts(rc, b)
	settle(&tx, amount, currency, foreign)

	signed := b.tx.Amount.Abs()
	if b.debit {
		signed = signed.Neg()
	}
	recordID := b.reference()
	if recordID == "" {
		recordID = strconv.Itoa(b.index)
	}
	tx.Date = b.date
	tx.ExternalID = dedup.Fingerprint(b.date, b.narration(), signed, recordID)
	tx.InternalReference = b.reference()
	tx.Notes = auditNotes(b.index,
		"type", b.tx.Type+" "+b.tx.CreditDebitIndicator,
		"reference", b.tx.ReferenceNumber,
		"booking", b.tx.BookingReference,
		"narration", b.narration(),
	)
	return tx, nil
}

// bankAmounts picks the settlement amount and detects a foreign charge from
// the exchange rate, the account amount, or the narration text.
func bankAmounts(rc *RunContext, b *BankRecord) (decimal.Decimal, string, *foreignAmount) {
	ledger := rc.currency()
	amount := b.tx.Amount.Abs()
	code := strings.ToUpper(strings.TrimSpace(b.tx.CurrencyCode))
	if code == "" {
		code = ledger
	}
	rateDiffers := b.tx.ExchangeRate.Valid && !b.tx.ExchangeRate.Decimal.Equal(decimal.NewFromInt(1))

	if acct := b.tx.AccountAmount; acct != nil && !acct.Amount.IsZero() {
		settleCode := strings.ToUpper(strings.TrimSpace(acct.CurrencyCode))
		if settleCode == "" {
			settleCode = ledger
		}
		if settleCode != code || rateDiffers {
			return acct.Amount.Abs(), settleCode, &foreignAmount{amount: amount, currency: code}
		}
		return acct.Amount.Abs(), settleCode, nil
	}
	if rateDiffers && code != ledger {
		settled := amount.Mul(b.tx.ExchangeRate.Decimal).Round(2)
		return settled, ledger, &foreignAmount{amount: amount, currency: code}
	}
	if f, ok := scanForeign(code, b.tx.Purpose.Narrations...); ok {
		return amount, code, &f
	}
	return amount, code, nil
}

func bankPOSPurchase(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	desc, acct := rc.merchant(b.merchantName(rc.Language))
	return withdrawal(rc, desc, acct, TagPOSPurchase), nil
}

func bankOnlinePurchase(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	desc, acct := rc.merchant(b.merchantName(rc.Language))
	return withdrawal(rc, desc, acct, TagOnlinePurchase), nil
}

func bankMerchantRefund(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	desc, acct := rc.payer(b.merchantName(rc.Language))
	return deposit(rc, desc, acct, TagRefund), nil
}

func bankATMWithdrawal(rc *RunContext, _ *BankRecord) (model.Transaction, error) {
	return withdrawal(rc, "ATM Cash Withdrawal", rc.Accounts.MatchExpense("Cash"), TagATMWithdrawal), nil
}

// employerPattern captures the payer after a SALARY marker.
var employerPattern = regexp.MustCompile(`(?i)\bsal(?:ary)?\b[\s/:-]*(?:from\s+|credit\s+)?([^/|]+)`)

func bankSalary(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	raw := ""
	for _, n := range b.tx.Purpose.Narrations {
		if m := employerPattern.FindStringSubmatch(n); m != nil {
			raw = m[1]
			break
		}
	}
	if strings.TrimSpace(raw) == "" {
		raw = b.merchantName(rc.Language)
	}
	desc, acct := rc.payer(raw)
	return deposit(rc, desc, acct, TagSalary), nil
}

// maskedCard captures the visible last four digits of a masked card number
// such as "XXXX XXXX XXXX 4321" or "************4321".
var maskedCard = regexp.MustCompile(`(?i)[x*]{2,}[x*\s-]*(\d{4})\b`)

func cardSuffix(text string) (string, bool) {
	m := maskedCard.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (rc *RunContext) cardTransfer(b *BankRecord) (model.Transaction, bool) {
	suffix, ok := cardSuffix(b.narration())
	if !ok {
		return model.Transaction{}, false
	}
	card, ok := rc.card(suffix)
	if !ok || card.ID == rc.Source.ID {
		return model.Transaction{}, false
	}
	return transfer(rc.Source, card, "Credit Card Payment "+card.Name, TagCreditCardPayment), true
}

func bankTransferOut(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	if tx, ok := rc.cardTransfer(b); ok {
		return tx, nil
	}
	desc, acct := rc.merchant(b.merchantName(rc.Language))
	return withdrawal(rc, desc, acct, TagTransferOut), nil
}

func bankTransferIn(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	desc, acct := rc.payer(b.merchantName(rc.Language))
	return deposit(rc, desc, acct, TagTransferIn), nil
}

func bankCardPayment(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	if tx, ok := rc.cardTransfer(b); ok {
		return tx, nil
	}
	return withdrawal(rc, "Credit Card Payment", UnidentifiedMerchant, TagCreditCardPayment), nil
}

func bankFee(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	desc := rc.Names.NormalizeOr(b.merchantName(rc.Language), "Bank Fee")
	return withdrawal(rc, desc, rc.Accounts.MatchExpense("Bank Fees"), TagBankFee), nil
}

func bankInterest(rc *RunContext, _ *BankRecord) (model.Transaction, error) {
	return deposit(rc, "Bank Interest", rc.Accounts.MatchRevenue("Bank Interest"), TagInterest), nil
}

func bankOtherDebit(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	desc, acct := rc.merchant(b.merchantName(rc.Language))
	return withdrawal(rc, desc, acct), nil
}

func bankOtherCredit(rc *RunContext, b *BankRecord) (model.Transaction, error) {
	desc, acct := rc.payer(b.merchantName(rc.Language))
	return deposit(rc, desc, acct), nil
}

// merchantKey is the grouping label used for recurrence analysis.
func (b *BankRecord) merchantKey(lang string) string {
	if t := b.localizedTitle(lang); t != "" {
		return t
	}
	if b.tx.Terminal != nil && strings.TrimSpace(b.tx.Terminal.Name) != "" {
		return b.tx.Terminal.Name
	}
	if k := strings.TrimSpace(b.tx.MerchantKey); k != "" {
		return k
	}
	return "Unknown"
}
