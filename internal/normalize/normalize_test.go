package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := New(nil)
	tests := []struct {
		raw  string
		want string
	}{
		{"TALABAT POSTPAID DUBAI", "Talabat Postpaid"},
		{"  CARREFOUR   CITY CENTRE  ", "Carrefour City Centre"},
		{"CARREFOUR (DUBAI, AE)", "Carrefour"},
		{"ETISALAT (971+, AE)", "Etisalat"},
		{"ADNOC 1234567 ABU DHABI", "Adnoc"},
		{"NOON AMZN.COM/BILL", "Noon"},
		{"AMAZON MKTP AE", "Amazon"},
		{"PAYPAL *NETFLIX", "Netflix"},
		{"SQ *BLUE BOTTLE", "Blue Bottle"},
		{"APPLE* AB12CD", "Apple"},
		{"UBER *TRIP", "Uber"},
		{"KFC DUBAI", "KFC"},
		{"Careem Hala", "Careem Hala"},
		{"McDonald's JUMEIRAH", "McDonald's"},
		{"DEWA DUBAI SHARJAH", "Dewa"},
		{"(DUBAI, AE)", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.raw), "Normalize(%q)", tt.raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(nil)
	inputs := []string{
		"TALABAT POSTPAID DUBAI",
		"PAYPAL *SPOTIFY P1A2B3C4D5",
		"NOON MINUTES 9988776655 DUBAI (DUBAI, AE)",
		"7-ELEVEN ABU DHABI",
		"Unknown Merchant",
		"AMAZON* 12345678 MKTP AE",
		"dubai dubai",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "not idempotent for %q", in)
	}
}

func TestNormalizeOr_Fallback(t *testing.T) {
	n := New(nil)
	assert.Equal(t, UnknownMerchant, n.NormalizeOr("   ", UnknownMerchant))
	assert.Equal(t, UnknownPayer, n.NormalizeOr("(SHARJAH, AE)", UnknownPayer))
	assert.Equal(t, "Careem", n.NormalizeOr("CAREEM", UnknownMerchant))
}

func TestNew_CustomCities(t *testing.T) {
	n := New([]string{"Muscat"})
	assert.Equal(t, "Lulu", n.Normalize("LULU MUSCAT"))
	assert.Equal(t, "Lulu Dubai", n.Normalize("LULU DUBAI"))

	none := New([]string{})
	assert.Equal(t, "Lulu Dubai", none.Normalize("LULU DUBAI"))
}

func TestKey(t *testing.T) {
	n := New(nil)
	assert.Equal(t, n.Key("NETFLIX"), n.Key("Netflix"))
	assert.Equal(t, "talabat postpaid", n.Key("TALABAT POSTPAID DUBAI"))
}
