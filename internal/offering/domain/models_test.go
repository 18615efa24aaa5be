package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDisplayPrice(t *testing.T) {
	label := "Sur devis"
	blank := "  "

	cases := []struct {
		name     string
		offering Offering
		want     string
	}{
		{"grouped euros", Offering{Price: decimal.RequireFromString("1200"), Currency: "EUR"}, "1\u00a0200,00 €"},
		{"small amount", Offering{Price: decimal.RequireFromString("490.5"), Currency: "eur"}, "490,50 €"},
		{"millions", Offering{Price: decimal.RequireFromString("1234567.891"), Currency: "USD"}, "1\u00a0234\u00a0567,89 $"},
		{"unknown currency", Offering{Price: decimal.RequireFromString("10"), Currency: "XOF"}, "10,00 XOF"},
		{"zero price", Offering{Currency: "EUR"}, "Nous consulter"},
		{"explicit label", Offering{Price: decimal.RequireFromString("10"), PriceLabel: &label}, "Sur devis"},
		{"blank label ignored", Offering{Price: decimal.RequireFromString("10"), Currency: "EUR", PriceLabel: &blank}, "10,00 €"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.offering.DisplayPrice())
		})
	}
}

func TestDisplayPriceIn(t *testing.T) {
	offering := Offering{Price: decimal.RequireFromString("1200.499"), Currency: "EUR"}

	assert.Equal(t, "1\u00a0200,50 €", offering.DisplayPriceIn("fr"))
	assert.Equal(t, "€1,200.50", offering.DisplayPriceIn("en"))
	assert.Equal(t, "€1,200.50", offering.DisplayPriceIn("en-GB"))
	assert.Equal(t, "1\u00a0200,50 €", offering.DisplayPriceIn("not a tag"))
	assert.Equal(t, "€1,200.50", offering.SummaryIn("en").DisplayPrice)
}
