package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbilling/db"
	"shopbilling/db/sqlite"
	"shopbilling/models"
)

func newTestSQLiteRepo(t *testing.T) *SQLiteBillRepo {
	t.Helper()

	conn := sqlite.NewSQLiteDB(filepath.Join(t.TempDir(), "bills.db"))
	require.NoError(t, conn.Connect())
	t.Cleanup(func() { conn.Disconnect() })

	require.NoError(t, db.RunSQLiteMigrations(conn.Conn))
	return NewSQLiteBillRepo(conn.Conn)
}

func sampleBill(name string) *models.Bill {
	items := []models.Item{
		{Name: "Mop", Price: decimal.RequireFromString("120.50")},
		{Name: "Broom", Price: decimal.RequireFromString("75")},
	}
	return &models.Bill{
		CustomerName: name,
		Phone:        "9876543210",
		Items:        items,
		TotalAmount:  models.ItemsTotal(items),
		SMSStatus:    models.SMSPending,
	}
}

// fixedClock returns start, start+step, start+2*step, ...
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(step)
		return t
	}
}

func TestSQLiteBillRepo(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()

	t.Run("CreateBill assigns id and created_at", func(t *testing.T) {
		bill := sampleBill("Asha Rao")
		id, err := repo.CreateBill(ctx, bill)
		require.NoError(t, err)

		assert.Positive(t, id)
		assert.Equal(t, id, bill.ID)
		assert.False(t, bill.CreatedAt.IsZero())

		got, err := repo.GetBillByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Asha Rao", got.CustomerName)
		assert.Equal(t, models.SMSPending, got.SMSStatus)
		require.Len(t, got.Items, 2)
		assert.Equal(t, "Mop", got.Items[0].Name)
		assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("120.5")))
		assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("195.5")))
		assert.True(t, got.CreatedAt.Equal(bill.CreatedAt))
	})

	t.Run("GetBillByID unknown id", func(t *testing.T) {
		_, err := repo.GetBillByID(ctx, 999999)
		assert.ErrorIs(t, err, ErrBillNotFound)
	})

	t.Run("UpdateSMSStatus writes status only", func(t *testing.T) {
		bill := sampleBill("Ravi")
		id, err := repo.CreateBill(ctx, bill)
		require.NoError(t, err)

		require.NoError(t, repo.UpdateSMSStatus(ctx, id, models.SMSFailed))
		got, err := repo.GetBillByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.SMSFailed, got.SMSStatus)
		assert.Equal(t, "Ravi", got.CustomerName)
		assert.True(t, got.TotalAmount.Equal(bill.TotalAmount))

		// same value twice still matches the row
		require.NoError(t, repo.UpdateSMSStatus(ctx, id, models.SMSFailed))

		assert.ErrorIs(t, repo.UpdateSMSStatus(ctx, 424242, models.SMSSent), ErrBillNotFound)
		assert.Error(t, repo.UpdateSMSStatus(ctx, id, models.SMSStatus("DELIVERED")))
	})
}

func TestSQLiteBillRepoOrdering(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	// two bills share a timestamp so the id tie-break is exercised
	stamps := []time.Time{base, base.Add(time.Minute), base.Add(time.Minute)}
	i := 0
	repo.now = func() time.Time { ts := stamps[i]; i++; return ts }

	var ids []int64
	for _, name := range []string{"First", "Second", "Third"} {
		id, err := repo.CreateBill(ctx, sampleBill(name))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	bills, err := repo.ListBills(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, bills, 3)
	assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, billIDs(bills))

	again, err := repo.ListBills(ctx, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, billIDs(bills), billIDs(again))

	page, err := repo.ListBills(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1]}, billIDs(page))

	empty, err := repo.ListBills(ctx, 10, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, repo.UpdateSMSStatus(ctx, ids[0], models.SMSFailed))
	require.NoError(t, repo.UpdateSMSStatus(ctx, ids[2], models.SMSFailed))
	failed, err := repo.ListBillsByStatus(ctx, models.SMSFailed)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[0]}, billIDs(failed))

	sent, err := repo.ListBillsByStatus(ctx, models.SMSSent)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestSQLiteBillRepoCorruptItems(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()

	id, err := repo.CreateBill(ctx, sampleBill("Meena"))
	require.NoError(t, err)

	_, err = repo.DB.ExecContext(ctx, `UPDATE bills SET items_json = 'not json' WHERE id = ?`, id)
	require.NoError(t, err)

	_, err = repo.GetBillByID(ctx, id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrItemsCorrupt), "got %v", err)

	_, err = repo.ListBills(ctx, 10, 0)
	assert.ErrorIs(t, err, ErrItemsCorrupt)
}

func billIDs(bills []*models.Bill) []int64 {
	ids := make([]int64, 0, len(bills))
	for _, b := range bills {
		ids = append(ids, b.ID)
	}
	return ids
}
