package sms

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"shopbilling/metrics"
	"shopbilling/models"
)

// Result is the outcome of one SMS attempt. Failures are data, not errors.
type Result struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Provider  string `json:"provider"`
	MessageID string `json:"message_id,omitempty"`
}

// Sender formats bill receipts and hands them to a Provider.
type Sender struct {
	provider Provider
	shop     models.ShopProfile
	timeout  time.Duration
}

func NewSender(provider Provider, shop models.ShopProfile, timeout time.Duration) *Sender {
	return &Sender{
		provider: provider,
		shop:     shop,
		timeout:  timeoutOrDefault(timeout),
	}
}

func (s *Sender) ProviderName() string {
	return s.provider.Name()
}

// SendBillSMS sends the receipt for bill to bill.Phone. It never returns an
// error: transport faults, gateway rejections, timeouts and provider panics
// all become Result{Success: false}.
func (s *Sender) SendBillSMS(ctx context.Context, bill *models.Bill) Result {
	message := FormatBillMessage(s.shop, bill.Items, bill.TotalAmount)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := s.send(ctx, bill.Phone, message)
	if res.Success {
		slog.Info("SMS sent successfully", "phone", bill.Phone, "provider", res.Provider, "message_id", res.MessageID)
		metrics.SMSAttempts.WithLabelValues(res.Provider, "sent").Inc()
	} else {
		slog.Error("SMS failed", "phone", bill.Phone, "provider", res.Provider, "error", res.Error)
		metrics.SMSAttempts.WithLabelValues(res.Provider, "failed").Inc()
	}
	return res
}

func (s *Sender) send(ctx context.Context, phone, message string) (res Result) {
	name := s.provider.Name()
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Success: false, Error: fmt.Sprintf("sms provider panic: %v", rec), Provider: name}
		}
	}()

	id, err := s.provider.Send(ctx, phone, message)
	if err != nil {
		return Result{Success: false, Error: err.Error(), Provider: name}
	}
	return Result{Success: true, Provider: name, MessageID: id}
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}
