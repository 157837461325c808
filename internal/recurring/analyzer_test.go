package recurring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func pay(merchant string, day int, amount string) Payment {
	return Payment{Merchant: merchant, Date: day0.AddDate(0, 0, day), Amount: decimal.RequireFromString(amount)}
}

func TestAnalyze_MonthlyFixedAmount(t *testing.T) {
	report := Analyze([]Payment{
		pay("Gym", 0, "250.00"),
		pay("Gym", 30, "250.00"),
		pay("Gym", 61, "250.00"),
		pay("Gym", 89, "250.00"),
	}, DefaultConfig())

	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, "Gym", f.Merchant)
	assert.Equal(t, Monthly, f.Frequency)
	assert.True(t, f.FixedAmount)
	assert.Equal(t, 4, f.Occurrences)
	assert.InDelta(t, 29.7, f.AvgIntervalDays, 0.001)
	assert.Equal(t, day0.AddDate(0, 0, 89), f.LastDate)
	assert.Equal(t, day0.AddDate(0, 0, 119), f.NextDate)
	assert.True(t, decimal.RequireFromString("250").Equal(report.MonthlyTotal))
}

func TestAnalyze_SplitsMixedSubscriptions(t *testing.T) {
	report := Analyze([]Payment{
		pay("Netflix", 0, "19.99"),
		pay("Netflix", 5, "44.99"),
		pay("Netflix", 30, "19.99"),
		pay("Netflix", 35, "44.99"),
		pay("Netflix", 60, "19.99"),
		pay("Netflix", 65, "44.99"),
	}, DefaultConfig())

	require.Len(t, report.Findings, 2)
	assert.Equal(t, "Netflix (19.99)", report.Findings[0].Merchant)
	assert.Equal(t, "Netflix (44.99)", report.Findings[1].Merchant)
	for _, f := range report.Findings {
		assert.Equal(t, Monthly, f.Frequency)
		assert.Equal(t, 3, f.Occurrences)
		assert.True(t, f.FixedAmount)
	}
	assert.Equal(t, "64.98", report.MonthlyTotal.StringFixed(2))
}

func TestAnalyze_KeepsGroupWhenClustersTooSmall(t *testing.T) {
	report := Analyze([]Payment{
		pay("Careem", 0, "20.00"),
		pay("Careem", 7, "21.00"),
		pay("Careem", 14, "60.00"),
	}, DefaultConfig())

	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, "Careem", f.Merchant)
	assert.Equal(t, Weekly, f.Frequency)
	assert.False(t, f.FixedAmount)
	assert.Equal(t, "20", f.MinAmount.String())
	assert.Equal(t, "60", f.MaxAmount.String())
}

func TestAnalyze_MajorityVote(t *testing.T) {
	// Gaps 30, 31, 300: the average misses every band but two of three
	// gaps sit in the monthly band.
	report := Analyze([]Payment{
		pay("Du", 0, "300"),
		pay("Du", 30, "300"),
		pay("Du", 61, "300"),
		pay("Du", 361, "300"),
	}, DefaultConfig())

	require.Len(t, report.Findings, 1)
	assert.Equal(t, Monthly, report.Findings[0].Frequency)
}

func TestAnalyze_DropsNonRecurring(t *testing.T) {
	report := Analyze([]Payment{
		pay("Ikea", 0, "900"),
		pay("Ikea", 200, "120"),
		pay("Single", 3, "10"),
	}, DefaultConfig())

	assert.Empty(t, report.Findings)
	assert.True(t, report.MonthlyTotal.IsZero())
}

func TestAnalyze_RanksByFrequencyThenInputOrder(t *testing.T) {
	var payments []Payment
	for i := 0; i < 3; i++ {
		payments = append(payments,
			pay("Insurance", i*91, "1200"),
			pay("Spotify", i*30, "21.99"),
			pay("Anghami", i*30+2, "19.99"),
			pay("Carrefour", i*7, "150"),
		)
	}
	report := Analyze(payments, DefaultConfig())

	var order []string
	for _, f := range report.Findings {
		order = append(order, f.Merchant)
	}
	assert.Equal(t, []string{"Carrefour", "Spotify", "Anghami", "Insurance"}, order)
	assert.Equal(t, Quarterly, report.Findings[3].Frequency)
	assert.Equal(t, "41.98", report.MonthlyTotal.StringFixed(2))
}

func TestAnalyze_GroupsCaseInsensitively(t *testing.T) {
	report := Analyze([]Payment{
		pay("SPOTIFY", 0, "21.99"),
		pay("Spotify", 30, "21.99"),
	}, DefaultConfig())

	require.Len(t, report.Findings, 1)
	assert.Equal(t, "SPOTIFY", report.Findings[0].Merchant)
	assert.Equal(t, 2, report.Findings[0].Occurrences)
}

func TestAnalyze_CustomBands(t *testing.T) {
	cfg := Config{Bands: []Band{{Frequency: "daily", MinDays: 1, MaxDays: 1}}}
	report := Analyze([]Payment{
		pay("Coffee", 0, "18"),
		pay("Coffee", 1, "18"),
		pay("Coffee", 2, "18"),
	}, cfg)

	require.Len(t, report.Findings, 1)
	assert.Equal(t, Frequency("daily"), report.Findings[0].Frequency)
}

func TestFromTransactions(t *testing.T) {
	txns := []model.Transaction{
		{Kind: model.KindWithdrawal, Date: day0, Amount: decimal.RequireFromString("45"), Description: "Talabat Postpaid", Destination: model.Named("Talabat")},
		{Kind: model.KindWithdrawal, Date: day0, Amount: decimal.RequireFromString("10"), Description: "Card Fee", Destination: model.Known(5003)},
		{Kind: model.KindDeposit, Date: day0, Amount: decimal.RequireFromString("9000"), Description: "Salary"},
		{Kind: model.KindTransfer, Date: day0, Amount: decimal.RequireFromString("500"), Description: "Card payment"},
	}
	got := FromTransactions(txns)
	require.Len(t, got, 2)
	assert.Equal(t, "Talabat", got[0].Merchant)
	assert.Equal(t, "Card Fee", got[1].Merchant)
}
