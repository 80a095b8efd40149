package sms

import (
	"strings"

	"github.com/shopspring/decimal"

	"shopbilling/models"
)

const returnPolicyLine = "Defective return within 24 hrs only with bill."

// FormatBillMessage renders the receipt text sent to the customer. The layout
// is fixed; the admin UI and support staff rely on it.
func FormatBillMessage(shop models.ShopProfile, items []models.Item, total decimal.Decimal) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Name + " ₹" + it.Price.String()
	}

	var b strings.Builder
	b.WriteString("Thank you for shopping at " + shop.Name + "!\n")
	b.WriteString("Items: " + strings.Join(parts, ", ") + "\n")
	b.WriteString("Total: ₹" + total.String() + "\n")
	b.WriteString(returnPolicyLine + "\n")
	b.WriteString("Details: " + shop.Website)
	return b.String()
}
