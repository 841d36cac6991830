package utils_test

import (
	"testing"

	"github.com/dukan-market/dukanpay/internal/core/utils"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"0", "0"},
		{"999", "999"},
		{"3000", "3 000"},
		{"12500", "12 500"},
		{"1234567", "1 234 567"},
		{"1234.50", "1 234.50"},
		{"3000.00", "3 000"},
		{"-45000", "-45 000"},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			d := decimal.MustParse(test.in)
			assert.Equal(t, test.out, utils.FormatAmount(d))
		})
	}
}

func TestCoinsRequired(t *testing.T) {
	tests := []struct {
		total string
		coins string
	}{
		{"3000", "3000"},
		{"2999.01", "3000"},
		{"0.5", "1"},
		{"100.00", "100"},
	}

	for _, test := range tests {
		t.Run(test.total, func(t *testing.T) {
			got := utils.CoinsRequired(decimal.MustParse(test.total))
			assert.Equal(t, 0, got.Cmp(decimal.MustParse(test.coins)))
		})
	}
}
