package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopbilling/models"
)

var (
	ErrBillNotFound = errors.New("bill not found")
	// ErrItemsCorrupt wraps a stored items blob that no longer decodes.
	ErrItemsCorrupt = errors.New("stored bill items are corrupt")
)

// BillRepository is the bill store. It alone assigns ID and CreatedAt.
// List methods return newest first (created_at, then id).
type BillRepository interface {
	CreateBill(ctx context.Context, bill *models.Bill) (int64, error)
	GetBillByID(ctx context.Context, id int64) (*models.Bill, error)
	ListBills(ctx context.Context, limit, offset int) ([]*models.Bill, error)
	ListBillsByStatus(ctx context.Context, status models.SMSStatus) ([]*models.Bill, error)
	// UpdateSMSStatus writes the sms_status column and nothing else.
	UpdateSMSStatus(ctx context.Context, id int64, status models.SMSStatus) error
	Ping(ctx context.Context) error
}

func encodeItems(items []models.Item) ([]byte, error) {
	if items == nil {
		items = []models.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding bill items: %w", err)
	}
	return b, nil
}

func decodeItems(billID int64, raw []byte) ([]models.Item, error) {
	var items []models.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("bill %d: %w: %v", billID, ErrItemsCorrupt, err)
	}
	return items, nil
}

func checkStatus(status models.SMSStatus) error {
	if !status.Valid() {
		return fmt.Errorf("refusing to write sms status %q", status)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
