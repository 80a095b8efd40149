package repository

import (
	"context"

	"shopbilling/models"
)

// ReceiptRepository gathers what a printed receipt needs: the bill and the
// shop it was issued by.
type ReceiptRepository struct {
	Bills BillRepository
	Shop  models.ShopProfile
}

func NewReceiptRepository(bills BillRepository, shop models.ShopProfile) *ReceiptRepository {
	return &ReceiptRepository{Bills: bills, Shop: shop}
}

// GetBillForReceipt returns ErrBillNotFound for unknown ids.
func (r *ReceiptRepository) GetBillForReceipt(ctx context.Context, id int64) (*models.Bill, error) {
	return r.Bills.GetBillByID(ctx, id)
}

func (r *ReceiptRepository) GetShopForReceipt() models.ShopProfile {
	return r.Shop
}
