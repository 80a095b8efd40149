package models

// ShopProfile holds the display fields printed on SMS receipts and PDFs.
// It is built once from configuration and never mutated.
type ShopProfile struct {
	Name    string `json:"name"`
	Website string `json:"website"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
