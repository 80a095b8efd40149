package utils

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbilling/config"
	"shopbilling/models"
	"shopbilling/repository"
)

type fakeRenderer struct {
	html []byte
	err  error
}

func (f *fakeRenderer) RenderPDF(_ context.Context, html []byte) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func receiptBill() *models.Bill {
	items := []models.Item{
		{Name: "Mop", Price: decimal.RequireFromString("120.5")},
		{Name: "Broom <large>", Price: decimal.RequireFromString("75")},
	}
	return &models.Bill{
		ID:           42,
		CustomerName: "Asha Rao",
		Phone:        "9876543210",
		Items:        items,
		TotalAmount:  models.ItemsTotal(items),
		SMSStatus:    models.SMSSent,
		CreatedAt:    time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC),
	}
}

func TestBuildReceiptData(t *testing.T) {
	data := BuildReceiptData(models.ShopProfile{Name: "Sharma Stores"}, receiptBill())
	assert.Equal(t, "01-Mar-2025 12:00 PM", data.Date)
	assert.Equal(t, "195.50", data.Total)
	assert.Equal(t, "One Hundred Ninety Five Rupees and Fifty Paise Only", data.TotalWords)
	assert.Equal(t, 2, data.ItemCount)

	data = BuildReceiptData(models.ShopProfile{}, &models.Bill{TotalAmount: decimal.NewFromInt(1)})
	assert.Equal(t, "-", data.Date)
}

func TestRenderReceiptHTML(t *testing.T) {
	shop := models.ShopProfile{Name: "Sharma Stores", Website: "https://sharma.example", Address: "MG Road"}
	html, err := RenderReceiptHTML(BuildReceiptData(shop, receiptBill()))
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "Sharma Stores")
	assert.Contains(t, out, "MG Road")
	assert.Contains(t, out, "Asha Rao")
	assert.Contains(t, out, "120.50")
	assert.Contains(t, out, "₹195.50")
	assert.Contains(t, out, "Broom &lt;large&gt;")
	assert.NotContains(t, out, "Phone:")
	assert.Equal(t, 3, strings.Count(out, `<td class="amount">`))
}

func TestGenerateReceiptPDF(t *testing.T) {
	ctx := context.Background()
	bills := repository.NewMemoryBillRepo()
	bill := receiptBill()
	_, err := bills.CreateBill(ctx, bill)
	require.NoError(t, err)

	repo := repository.NewReceiptRepository(bills, models.ShopProfile{Name: "Sharma Stores"})

	r := &fakeRenderer{}
	pdf, got, err := GenerateReceiptPDF(ctx, repo, r, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(pdf))
	assert.Equal(t, bill.ID, got.ID)
	assert.Contains(t, string(r.html), "Sharma Stores")

	_, _, err = GenerateReceiptPDF(ctx, repo, r, 999)
	assert.ErrorIs(t, err, repository.ErrBillNotFound)

	_, _, err = GenerateReceiptPDF(ctx, repo, &fakeRenderer{err: errors.New("chrome not found")}, bill.ID)
	assert.ErrorContains(t, err, "chrome not found")
}

func TestR2Store(t *testing.T) {
	_, err := NewR2Store(context.Background(), config.R2Config{})
	assert.Error(t, err)

	store, err := NewR2Store(context.Background(), config.R2Config{
		Bucket:          "receipts",
		AccountID:       "acc123",
		PublicURL:       "https://cdn.example.com/",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/receipts/2025/03/bill%201.pdf", store.ObjectURL("receipts/2025/03/bill 1.pdf"))

	key := ReceiptKey(42, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(key, "receipts/2025/03/bill_42_"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"))
}
