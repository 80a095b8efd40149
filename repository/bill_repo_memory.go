package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"shopbilling/models"
)

// MemoryBillRepo is a process-local store for DB_TYPE=memory and tests.
// Items are kept in their encoded form, like the SQL backends.
type MemoryBillRepo struct {
	mu     sync.RWMutex
	rows   map[int64]memoryRow
	nextID int64
	now    func() time.Time
}

type memoryRow struct {
	bill      models.Bill // Items left nil; see itemsJSON
	itemsJSON []byte
}

func NewMemoryBillRepo() *MemoryBillRepo {
	return &MemoryBillRepo{rows: map[int64]memoryRow{}, now: time.Now}
}

// WithClock replaces the creation timestamp source.
func (r *MemoryBillRepo) WithClock(now func() time.Time) *MemoryBillRepo {
	r.now = now
	return r
}

func (r *MemoryBillRepo) CreateBill(_ context.Context, bill *models.Bill) (int64, error) {
	itemsJSON, err := encodeItems(bill.Items)
	if err != nil {
		return 0, err
	}
	status := bill.SMSStatus
	if status == "" {
		status = models.SMSPending
	}
	if err := checkStatus(status); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	row := memoryRow{
		bill: models.Bill{
			ID:           r.nextID,
			CustomerName: bill.CustomerName,
			Phone:        bill.Phone,
			TotalAmount:  bill.TotalAmount,
			SMSStatus:    status,
			CreatedAt:    r.now().UTC(),
		},
		itemsJSON: itemsJSON,
	}
	r.rows[row.bill.ID] = row

	bill.ID = row.bill.ID
	bill.CreatedAt = row.bill.CreatedAt
	bill.SMSStatus = status
	return bill.ID, nil
}

func (r *MemoryBillRepo) GetBillByID(_ context.Context, id int64) (*models.Bill, error) {
	r.mu.RLock()
	row, ok := r.rows[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrBillNotFound
	}
	return row.toModel()
}

func (r *MemoryBillRepo) ListBills(_ context.Context, limit, offset int) ([]*models.Bill, error) {
	rows := r.sorted(func(memoryRow) bool { return true })
	if offset >= len(rows) {
		return []*models.Bill{}, nil
	}
	rows = rows[offset:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return toModels(rows)
}

func (r *MemoryBillRepo) ListBillsByStatus(_ context.Context, status models.SMSStatus) ([]*models.Bill, error) {
	return toModels(r.sorted(func(row memoryRow) bool { return row.bill.SMSStatus == status }))
}

func (r *MemoryBillRepo) UpdateSMSStatus(_ context.Context, id int64, status models.SMSStatus) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return ErrBillNotFound
	}
	row.bill.SMSStatus = status
	r.rows[id] = row
	return nil
}

func (r *MemoryBillRepo) Ping(context.Context) error { return nil }

// sorted returns matching rows newest first.
func (r *MemoryBillRepo) sorted(keep func(memoryRow) bool) []memoryRow {
	r.mu.RLock()
	out := make([]memoryRow, 0, len(r.rows))
	for _, row := range r.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].bill, out[j].bill
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out
}

func (row memoryRow) toModel() (*models.Bill, error) {
	items, err := decodeItems(row.bill.ID, row.itemsJSON)
	if err != nil {
		return nil, err
	}
	b := row.bill
	b.Items = items
	return &b, nil
}

func toModels(rows []memoryRow) ([]*models.Bill, error) {
	bills := make([]*models.Bill, 0, len(rows))
	for _, row := range rows {
		b, err := row.toModel()
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, nil
}
