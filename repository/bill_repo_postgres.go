package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopbilling/models"
)

type PostgresBillRepo struct {
	DB *sql.DB
}

func NewPostgresBillRepo(db *sql.DB) *PostgresBillRepo {
	return &PostgresBillRepo{DB: db}
}

const pgBillColumns = `id, customer_name, phone, items_json, total_amount, sms_status, created_at`

func (r *PostgresBillRepo) CreateBill(ctx context.Context, bill *models.Bill) (int64, error) {
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

	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO bills (customer_name, phone, items_json, total_amount, sms_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, bill.CustomerName, bill.Phone, string(itemsJSON), bill.TotalAmount, string(status)).Scan(&bill.ID, &bill.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting bill: %w", err)
	}
	bill.SMSStatus = status
	return bill.ID, nil
}

func (r *PostgresBillRepo) GetBillByID(ctx context.Context, id int64) (*models.Bill, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+pgBillColumns+` FROM bills WHERE id = $1`, id)
	bill, err := scanPostgresBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *PostgresBillRepo) ListBills(ctx context.Context, limit, offset int) ([]*models.Bill, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+pgBillColumns+`
		FROM bills
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return collectPostgresBills(rows)
}

func (r *PostgresBillRepo) ListBillsByStatus(ctx context.Context, status models.SMSStatus) ([]*models.Bill, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+pgBillColumns+`
		FROM bills
		WHERE sms_status = $1
		ORDER BY created_at DESC, id DESC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing bills by status: %w", err)
	}
	return collectPostgresBills(rows)
}

func (r *PostgresBillRepo) UpdateSMSStatus(ctx context.Context, id int64, status models.SMSStatus) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE bills SET sms_status = $1 WHERE id = $2`, string(status), id)
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

func (r *PostgresBillRepo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func scanPostgresBill(s rowScanner) (*models.Bill, error) {
	var b models.Bill
	var itemsJSON []byte
	if err := s.Scan(&b.ID, &b.CustomerName, &b.Phone, &itemsJSON, &b.TotalAmount, &b.SMSStatus, &b.CreatedAt); err != nil {
		return nil, err
	}
	items, err := decodeItems(b.ID, itemsJSON)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return &b, nil
}

func collectPostgresBills(rows *sql.Rows) ([]*models.Bill, error) {
	defer rows.Close()

	bills := []*models.Bill{}
	for rows.Next() {
		b, err := scanPostgresBill(rows)
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
