// Package service holds the bill workflow: validate, persist, notify, record
// the outcome. A bill that was stored is a success whatever the SMS did.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shopbilling/metrics"
	"shopbilling/models"
	"shopbilling/repository"
	"shopbilling/sms"
	"shopbilling/validator"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	smsSentMessage   = "SMS sent successfully"
	smsFailedMessage = "SMS sending failed"

	statusWriteTimeout = 5 * time.Second
)

// Notifier sends the receipt SMS for a stored bill.
type Notifier interface {
	SendBillSMS(ctx context.Context, bill *models.Bill) sms.Result
}

type BillService struct {
	repo     repository.BillRepository
	notifier Notifier
}

func NewBillService(repo repository.BillRepository, notifier Notifier) *BillService {
	return &BillService{repo: repo, notifier: notifier}
}

type CreateBillResult struct {
	Bill       *models.Bill
	SMS        sms.Result
	SMSMessage string
}

type RetryResult struct {
	BillID int64
	Status models.SMSStatus
	SMS    sms.Result
}

// CreateBill validates in, stores the bill as PENDING, sends the SMS and
// records SENT or FAILED. Errors are *validator.ValidationError or
// *PersistenceError; an SMS failure is reported in the result only.
func (s *BillService) CreateBill(ctx context.Context, in validator.BillInput) (*CreateBillResult, error) {
	bill, err := validator.ValidateBill(in)
	if err != nil {
		return nil, err
	}

	bill.SMSStatus = models.SMSPending
	if _, err := s.repo.CreateBill(ctx, bill); err != nil {
		slog.Error("Failed to create bill", "error", err)
		return nil, &PersistenceError{Op: "create bill", Err: err}
	}
	metrics.BillsCreated.Inc()
	slog.Info("Bill created", "bill_id", bill.ID, "customer", bill.CustomerName, "total", bill.TotalAmount.String())

	res := s.notifier.SendBillSMS(ctx, bill)
	bill.SMSStatus = s.recordOutcome(ctx, bill.ID, res)

	return &CreateBillResult{
		Bill:       bill,
		SMS:        res,
		SMSMessage: smsMessage(res),
	}, nil
}

// RetrySMS resends the receipt for an existing bill using its stored data.
// Any current status may be retried, SENT included.
func (s *BillService) RetrySMS(ctx context.Context, id int64) (*RetryResult, error) {
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}

	res := s.notifier.SendBillSMS(ctx, bill)
	status := s.recordOutcome(ctx, bill.ID, res)
	slog.Info("SMS retry finished", "bill_id", id, "sms_status", status)

	return &RetryResult{BillID: bill.ID, Status: status, SMS: res}, nil
}

// GetBill returns repository.ErrBillNotFound unwrapped so callers can map it.
func (s *BillService) GetBill(ctx context.Context, id int64) (*models.Bill, error) {
	bill, err := s.repo.GetBillByID(ctx, id)
	if errors.Is(err, repository.ErrBillNotFound) {
		return nil, repository.ErrBillNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get bill", Err: err}
	}
	return bill, nil
}

// ListBills returns a newest-first page. limit <= 0 means DefaultListLimit and
// is capped at MaxListLimit; a negative offset is treated as zero.
func (s *BillService) ListBills(ctx context.Context, limit, offset int) ([]*models.Bill, error) {
	limit, offset = ClampPage(limit, offset)
	bills, err := s.repo.ListBills(ctx, limit, offset)
	if err != nil {
		return nil, &PersistenceError{Op: "list bills", Err: err}
	}
	return bills, nil
}

// ListBillsByStatus checks raw before the store is touched.
func (s *BillService) ListBillsByStatus(ctx context.Context, raw string) ([]*models.Bill, error) {
	status, err := models.ParseSMSStatus(raw)
	if err != nil {
		return nil, ErrInvalidStatus
	}
	bills, err := s.repo.ListBillsByStatus(ctx, status)
	if err != nil {
		return nil, &PersistenceError{Op: "list bills by status", Err: err}
	}
	return bills, nil
}

// Ping reports whether the store is reachable.
func (s *BillService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// recordOutcome writes SENT or FAILED and returns it. The write is best
// effort: a failure is logged and counted but never surfaces to the caller.
func (s *BillService) recordOutcome(ctx context.Context, id int64, res sms.Result) models.SMSStatus {
	status := models.SMSFailed
	if res.Success {
		status = models.SMSSent
	}

	// the SMS went out; record it even if the client has gone away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()

	if err := s.repo.UpdateSMSStatus(ctx, id, status); err != nil {
		metrics.SMSStatusWriteFailures.Inc()
		slog.Error("Failed to update SMS status", "bill_id", id, "sms_status", status, "error", err)
	}
	return status
}

func smsMessage(res sms.Result) string {
	if res.Success {
		return smsSentMessage
	}
	if res.Error != "" {
		return res.Error
	}
	return smsFailedMessage
}
