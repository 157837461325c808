// Package recurring detects subscriptions, salaries and other repeating
// payments in transaction history.
package recurring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// Payment is one historical debit attributed to a merchant.
type Payment struct {
	Merchant string
	Date     time.Time
	Amount   decimal.Decimal
}

// Finding describes one recurring payment pattern.
type Finding struct {
	Merchant        string          `json:"merchant"`
	Frequency       Frequency       `json:"frequency"`
	AvgIntervalDays float64         `json:"avg_interval_days"`
	Occurrences     int             `json:"occurrences"`
	MinAmount       decimal.Decimal `json:"min_amount"`
	AvgAmount       decimal.Decimal `json:"avg_amount"`
	MaxAmount       decimal.Decimal `json:"max_amount"`
	FixedAmount     bool            `json:"fixed_amount"`
	FirstDate       time.Time       `json:"first_date"`
	LastDate        time.Time       `json:"last_date"`
	NextDate        time.Time       `json:"predicted_next_date"`
}

// Report is the analyzer output.
type Report struct {
	Findings []Finding `json:"findings"`
	// MonthlyTotal sums AvgAmount over monthly findings only.
	MonthlyTotal decimal.Decimal `json:"monthly_total"`
}

// group is a merchant's entries, in input order until sorted.
type group struct {
	label   string
	entries []Payment
}

// Analyze groups payments by merchant, splits groups that mix distinct
// amounts, and keeps the groups whose intervals land in a frequency band.
func Analyze(payments []Payment, cfg Config) Report {
	cfg = cfg.withDefaults()

	var groups []group
	for _, g := range groupByMerchant(payments) {
		groups = append(groups, splitByAmount(g, cfg)...)
	}

	type ranked struct {
		finding Finding
		rank    int
	}
	var found []ranked
	for _, g := range groups {
		f, ok := classify(g, cfg)
		if !ok {
			continue
		}
		found = append(found, ranked{finding: f, rank: bandRank(cfg.Bands, f.Frequency)})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].rank < found[j].rank })

	report := Report{MonthlyTotal: decimal.Zero}
	for _, r := range found {
		report.Findings = append(report.Findings, r.finding)
		if r.finding.Frequency == Monthly {
			report.MonthlyTotal = report.MonthlyTotal.Add(r.finding.AvgAmount)
		}
	}
	return report
}

// FromTransactions turns stored withdrawals into payments. The merchant is
// the destination account name, or the description for known destinations.
func FromTransactions(txns []model.Transaction) []Payment {
	var out []Payment
	for _, tx := range txns {
		if tx.Kind != model.KindWithdrawal || !tx.Amount.IsPositive() {
			continue
		}
		merchant := tx.Destination.Name
		if merchant == "" {
			merchant = tx.Description
		}
		out = append(out, Payment{Merchant: merchant, Date: tx.Date, Amount: tx.Amount})
	}
	return out
}

func groupByMerchant(payments []Payment) []group {
	index := make(map[string]int)
	var groups []group
	for _, p := range payments {
		label := strings.TrimSpace(p.Merchant)
		if label == "" {
			label = "Unknown"
		}
		key := strings.ToLower(label)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{label: label})
		}
		groups[i].entries = append(groups[i].entries, Payment{Merchant: label, Date: p.Date, Amount: p.Amount.Abs()})
	}
	return groups
}

// splitByAmount separates a group that likely holds two subscriptions at the
// same merchant. The split is kept only if every cluster is large enough.
func splitByAmount(g group, cfg Config) []group {
	if len(g.entries) < cfg.MinSplitEntries {
		return []group{g}
	}
	lo, _, hi := amountStats(g.entries)
	spread := hi.Sub(lo)
	threshold := maxDecimal(lo.Mul(decimal.NewFromFloat(cfg.SplitSpreadRatio)), decimal.NewFromFloat(cfg.SplitSpreadFloor))
	if !spread.GreaterThan(threshold) {
		return []group{g}
	}

	sorted := append([]Payment(nil), g.entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount.LessThan(sorted[j].Amount) })

	var clusters [][]Payment
	var current []Payment
	sum := decimal.Zero
	for _, p := range sorted {
		if len(current) > 0 {
			avg := sum.Div(decimal.NewFromInt(int64(len(current))))
			tol := maxDecimal(avg.Mul(decimal.NewFromFloat(cfg.ClusterTolerance)), decimal.NewFromFloat(cfg.ClusterFloor))
			if p.Amount.Sub(avg).Abs().GreaterThan(tol) {
				clusters = append(clusters, current)
				current, sum = nil, decimal.Zero
			}
		}
		current = append(current, p)
		sum = sum.Add(p.Amount)
	}
	clusters = append(clusters, current)

	if len(clusters) < 2 {
		return []group{g}
	}
	for _, c := range clusters {
		if len(c) < cfg.MinClusterSize {
			return []group{g}
		}
	}

	out := make([]group, 0, len(clusters))
	for _, c := range clusters {
		_, avg, _ := amountStats(c)
		sort.SliceStable(c, func(i, j int) bool { return c[i].Date.Before(c[j].Date) })
		out = append(out, group{label: fmt.Sprintf("%s (%s)", g.label, avg.StringFixed(2)), entries: c})
	}
	return out
}

func classify(g group, cfg Config) (Finding, bool) {
	if len(g.entries) < 2 {
		return Finding{}, false
	}
	entries := append([]Payment(nil), g.entries...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })

	gaps := make([]float64, 0, len(entries)-1)
	total := 0.0
	for i := 1; i < len(entries); i++ {
		d := dayGap(entries[i-1].Date, entries[i].Date)
		gaps = append(gaps, d)
		total += d
	}
	avgGap := total / float64(len(gaps))

	freq, ok := bandFor(cfg.Bands, avgGap)
	if !ok {
		freq, ok = majorityBand(cfg, gaps)
	}
	if !ok {
		return Finding{}, false
	}

	lo, avg, hi := amountStats(entries)
	first, last := entries[0].Date, entries[len(entries)-1].Date
	return Finding{
		Merchant:        g.label,
		Frequency:       freq,
		AvgIntervalDays: math.Round(avgGap*10) / 10,
		Occurrences:     len(entries),
		MinAmount:       lo,
		AvgAmount:       avg.Round(2),
		MaxAmount:       hi,
		FixedAmount:     hi.Sub(lo).LessThan(decimal.NewFromFloat(cfg.FixedAmountTolerance)),
		FirstDate:       first,
		LastDate:        last,
		NextDate:        last.AddDate(0, 0, int(math.Round(avgGap))),
	}, true
}

func bandFor(bands []Band, days float64) (Frequency, bool) {
	for _, b := range bands {
		if days >= b.MinDays && days <= b.MaxDays {
			return b.Frequency, true
		}
	}
	return "", false
}

// majorityBand accepts a band when enough individual gaps fall inside it,
// widened by the slack on both ends.
func majorityBand(cfg Config, gaps []float64) (Frequency, bool) {
	for _, b := range cfg.Bands {
		hits := 0
		for _, g := range gaps {
			if g >= b.MinDays-cfg.VoteSlackDays && g <= b.MaxDays+cfg.VoteSlackDays {
				hits++
			}
		}
		if hits >= cfg.VoteMinGaps && float64(hits)/float64(len(gaps)) >= cfg.VoteShare {
			return b.Frequency, true
		}
	}
	return "", false
}

func bandRank(bands []Band, f Frequency) int {
	for i, b := range bands {
		if b.Frequency == f {
			return i
		}
	}
	return len(bands)
}

func dayGap(a, b time.Time) float64 {
	return math.Round(b.Sub(a).Hours() / 24)
}

func amountStats(entries []Payment) (lo, avg, hi decimal.Decimal) {
	sum := decimal.Zero
	for i, e := range entries {
		if i == 0 || e.Amount.LessThan(lo) {
			lo = e.Amount
		}
		if i == 0 || e.Amount.GreaterThan(hi) {
			hi = e.Amount
		}
		sum = sum.Add(e.Amount)
	}
	if len(entries) > 0 {
		avg = sum.Div(decimal.NewFromInt(int64(len(entries))))
	}
	return lo, avg, hi
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
