package models

// ReceiptPDFData is the template payload for a printable bill receipt.
type ReceiptPDFData struct {
	Shop       ShopProfile
	Bill       *Bill
	Date       string // formatted bill date
	Total      string
	TotalWords string
	ItemCount  int
}
