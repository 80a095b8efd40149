package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen",
	"Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// indianScale lists the Indian grouping units, largest first.
var indianScale = []struct {
	value int64
	name  string
}{
	{10000000, "Crore"},
	{100000, "Lakh"},
	{1000, "Thousand"},
	{100, "Hundred"},
}

// NumberToWords spells n using Indian grouping (Lakh, Crore). Zero and
// negative numbers give "".
func NumberToWords(n int64) string {
	if n <= 0 {
		return ""
	}
	if n < 20 {
		return ones[n]
	}
	if n < 100 {
		return strings.TrimSpace(tens[n/10] + " " + ones[n%10])
	}
	for _, s := range indianScale {
		if n >= s.value {
			head := NumberToWords(n/s.value) + " " + s.name
			if rest := n % s.value; rest != 0 {
				return head + " " + NumberToWords(rest)
			}
			return head
		}
	}
	return ""
}

// AmountInWords renders a rupee amount as printed on receipts, e.g.
// "One Hundred Ninety Five Rupees and Fifty Paise Only".
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	rupees := amount.IntPart()
	paise := amount.Sub(decimal.NewFromInt(rupees)).Shift(2).IntPart()

	var parts []string
	if rupees > 0 {
		parts = append(parts, NumberToWords(rupees)+" Rupees")
	}
	if paise > 0 {
		parts = append(parts, NumberToWords(paise)+" Paise")
	}
	if len(parts) == 0 {
		return "Zero Rupees Only"
	}
	return strings.Join(parts, " and ") + " Only"
}
