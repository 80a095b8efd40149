package sms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbilling/models"
)

type stubProvider struct {
	id      string
	err     error
	panics  bool
	block   bool
	phone   string
	message string
}

func (p *stubProvider) Name() string { return "Stub" }

func (p *stubProvider) Send(ctx context.Context, phone, message string) (string, error) {
	p.phone, p.message = phone, message
	if p.panics {
		panic("gateway exploded")
	}
	if p.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return p.id, p.err
}

func testBill() *models.Bill {
	return &models.Bill{
		ID:           7,
		CustomerName: "Asha Rao",
		Phone:        "9876543210",
		Items: []models.Item{
			{Name: "Mop", Price: decimal.RequireFromString("120.5")},
			{Name: "Broom", Price: decimal.RequireFromString("75")},
		},
		TotalAmount: decimal.RequireFromString("195.5"),
		SMSStatus:   models.SMSPending,
	}
}

func TestSenderSuccess(t *testing.T) {
	p := &stubProvider{id: "msg-1"}
	s := NewSender(p, models.ShopProfile{Name: "Rao Stores", Website: "https://raostores.in"}, time.Second)

	res := s.SendBillSMS(context.Background(), testBill())

	assert.Equal(t, Result{Success: true, Provider: "Stub", MessageID: "msg-1"}, res)
	assert.Equal(t, "9876543210", p.phone)
	assert.Contains(t, p.message, "Items: Mop ₹120.5, Broom ₹75")
}

func TestSenderTranslatesFailures(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		s := NewSender(&stubProvider{err: errors.New("DND number")}, models.ShopProfile{}, time.Second)
		res := s.SendBillSMS(context.Background(), testBill())
		assert.False(t, res.Success)
		assert.Equal(t, "DND number", res.Error)
		assert.Equal(t, "Stub", res.Provider)
	})

	t.Run("panic", func(t *testing.T) {
		s := NewSender(&stubProvider{panics: true}, models.ShopProfile{}, time.Second)
		res := s.SendBillSMS(context.Background(), testBill())
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "gateway exploded")
	})

	t.Run("timeout", func(t *testing.T) {
		s := NewSender(&stubProvider{block: true}, models.ShopProfile{}, 20*time.Millisecond)
		start := time.Now()
		res := s.SendBillSMS(context.Background(), testBill())
		require.False(t, res.Success)
		assert.Contains(t, res.Error, "deadline exceeded")
		assert.Less(t, time.Since(start), time.Second)
	})
}
