package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want int // day of September 2025
	}{
		{"22-Sep-2025", 22},
		{"22-SEP-2025", 22},
		{"2-Sep-2025", 2},
		{"2025-09-22", 22},
		{"22/09/2025", 22},
		{"1758528000000", 22},
		{"2025-09-21T22:30:00Z", 22},
		{" 2025-09-22 ", 22},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in, gst)
		require.NoError(t, err, tt.in)
		assert.Equal(t, day(2025, 9, tt.want), got, tt.in)
	}
}

func TestParseDate_Errors(t *testing.T) {
	for _, in := range []string{"", "yesterday", "31-Foo-2025", "12345"} {
		_, err := parseDate(in, gst)
		assert.Error(t, err, in)
	}
}

func TestScanForeign(t *testing.T) {
	f, ok := scanForeign("AED", "NO MATCH", "SPOTIFY 12.00,EUR")
	require.True(t, ok)
	assert.Equal(t, "EUR", f.currency)
	assert.Equal(t, "12", f.amount.String())

	f, ok = scanForeign("AED", "UBER 25.5, usd")
	require.True(t, ok)
	assert.Equal(t, "USD", f.currency)

	_, ok = scanForeign("AED", "45.00,AED")
	assert.False(t, ok, "settlement currency is not foreign")

	_, ok = scanForeign("AED", "10.00,XYZ")
	assert.False(t, ok, "unknown code")

	_, ok = scanForeign("AED", "0.00,USD")
	assert.False(t, ok, "zero amount")
}

func TestParseAmount(t *testing.T) {
	got, err := parseAmount(" 1,234.50 ")
	require.NoError(t, err)
	assert.Equal(t, "1234.50", got.StringFixed(2))

	got, err = parseAmount("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseAmount("-45.00")
	require.NoError(t, err)
	assert.True(t, got.IsNegative())

	_, err = parseAmount("abc")
	assert.Error(t, err)
}

func TestAuditNotes(t *testing.T) {
	assert.Equal(t, "line 3; reference: R1", auditNotes(3, "reference", "R1", "booking", " "))
	assert.Equal(t, "line 1", auditNotes(1))
}
