package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money is written to JSON as a bare number (195.5), the shape the admin
// frontend reads.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Bill struct {
	ID           int64           `json:"id" db:"id"`
	CustomerName string          `json:"customer_name" db:"customer_name"`
	Phone        string          `json:"phone" db:"phone"`
	Items        []Item          `json:"items" db:"items_json"`
	TotalAmount  decimal.Decimal `json:"total_amount" db:"total_amount"`
	SMSStatus    SMSStatus       `json:"sms_status" db:"sms_status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// Item is one line of a bill. Items are stored together as a JSON blob.
type Item struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ItemsTotal sums the item prices rounded to two decimals.
func ItemsTotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price)
	}
	return sum.Round(2)
}
