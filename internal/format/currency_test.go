package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"5000", "USD", "$5,000.00"},
		{"0.5", "USD", "$0.50"},
		{"-100", "USD", "-$100.00"},
		{"12.345", "USD", "$12.35"},
		{"7", "ZZZ", "7.00 ZZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.amount+tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(decimal.RequireFromString(tt.amount), tt.code))
		})
	}
}
