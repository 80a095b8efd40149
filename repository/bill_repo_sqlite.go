package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopbilling/models"
)

// SQLiteBillRepo stores created_at as unix microseconds so ordering and
// round-trips do not depend on driver time parsing.
type SQLiteBillRepo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSQLiteBillRepo(db *sql.DB) *SQLiteBillRepo {
	return &SQLiteBillRepo{DB: db, now: time.Now}
}

const sqliteBillColumns = `id, customer_name, phone, items_json, total_amount, sms_status, created_at`

func (r *SQLiteBillRepo) CreateBill(ctx context.Context, bill *models.Bill) (int64, error) {
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

	createdAt := r.now().UTC().Truncate(time.Microsecond)
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO bills (customer_name, phone, items_json, total_amount, sms_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, bill.CustomerName, bill.Phone, string(itemsJSON), bill.TotalAmount.String(), string(status), createdAt.UnixMicro())
	if err != nil {
		return 0, fmt.Errorf("inserting bill: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading bill id: %w", err)
	}

	bill.ID = id
	bill.CreatedAt = createdAt
	bill.SMSStatus = status
	return id, nil
}

func (r *SQLiteBillRepo) GetBillByID(ctx context.Context, id int64) (*models.Bill, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+sqliteBillColumns+` FROM bills WHERE id = ?`, id)
	bill, err := scanSQLiteBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *SQLiteBillRepo) ListBills(ctx context.Context, limit, offset int) ([]*models.Bill, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+sqliteBillColumns+`
		FROM bills
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return collectSQLiteBills(rows)
}

func (r *SQLiteBillRepo) ListBillsByStatus(ctx context.Context, status models.SMSStatus) ([]*models.Bill, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+sqliteBillColumns+`
		FROM bills
		WHERE sms_status = ?
		ORDER BY created_at DESC, id DESC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing bills by status: %w", err)
	}
	return collectSQLiteBills(rows)
}

func (r *SQLiteBillRepo) UpdateSMSStatus(ctx context.Context, id int64, status models.SMSStatus) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE bills SET sms_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating sms status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating sms status: %w", err)
	}
	if n == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *SQLiteBillRepo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func scanSQLiteBill(s rowScanner) (*models.Bill, error) {
	var b models.Bill
	var itemsJSON string
	var status string
	var createdAt int64
	if err := s.Scan(&b.ID, &b.CustomerName, &b.Phone, &itemsJSON, &b.TotalAmount, &status, &createdAt); err != nil {
		return nil, err
	}
	items, err := decodeItems(b.ID, []byte(itemsJSON))
	if err != nil {
		return nil, err
	}
	b.Items = items
	b.SMSStatus = models.SMSStatus(status)
	b.CreatedAt = time.UnixMicro(createdAt).UTC()
	return &b, nil
}

func collectSQLiteBills(rows *sql.Rows) ([]*models.Bill, error) {
	defer rows.Close()

	bills := []*models.Bill{}
	for rows.Next() {
		b, err := scanSQLiteBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bills: %w", err)
	}
	return bills, nil
}
