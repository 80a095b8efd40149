package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"shopbilling/models"
	"shopbilling/repository"
	"shopbilling/service"
	"shopbilling/validator"
)

type BillHandler struct {
	Service *service.BillService
}

type createdBill struct {
	BillID       int64            `json:"billId"`
	CustomerName string           `json:"customer_name"`
	Phone        string           `json:"phone"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	SMSStatus    models.SMSStatus `json:"sms_status"`
	SMSMessage   string           `json:"sms_message"`
}

type retriedBill struct {
	BillID    int64            `json:"billId"`
	SMSStatus models.SMSStatus `json:"sms_status"`
	Error     string           `json:"error,omitempty"`
}

// CreateBill answers 201 once the bill is stored, whether or not the SMS
// went out.
func (h *BillHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var in validator.BillInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	res, err := h.Service.CreateBill(r.Context(), in)
	if err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, err)
			return
		}
		writeServiceError(w, r, err, "Failed to create bill in database")
		return
	}

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Bill created successfully",
		Data: createdBill{
			BillID:       res.Bill.ID,
			CustomerName: res.Bill.CustomerName,
			Phone:        res.Bill.Phone,
			TotalAmount:  res.Bill.TotalAmount,
			SMSStatus:    res.Bill.SMSStatus,
			SMSMessage:   res.SMSMessage,
		},
	})
}

func (h *BillHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, offset = service.ClampPage(limit, offset)

	bills, err := h.Service.ListBills(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch bills")
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success:    true,
		Data:       bills,
		Pagination: &Pagination{Limit: limit, Offset: offset, Count: len(bills)},
	})
}

func (h *BillHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	id, ok := billID(w, r)
	if !ok {
		return
	}

	bill, err := h.Service.GetBill(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Server error while fetching bill")
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: bill})
}

func (h *BillHandler) ListBillsByStatus(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Service.ListBillsByStatus(r.Context(), r.PathValue("status"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch bills")
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    bills,
		Count:   intPtr(len(bills)),
	})
}

// RetrySMS answers 200 for any existing bill; success mirrors the SMS outcome.
func (h *BillHandler) RetrySMS(w http.ResponseWriter, r *http.Request) {
	id, ok := billID(w, r)
	if !ok {
		return
	}

	res, err := h.Service.RetrySMS(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Server error while retrying SMS")
		return
	}

	message := "SMS sent successfully"
	if !res.SMS.Success {
		message = "SMS sending failed"
	}
	writeJSON(w, http.StatusOK, ApiResponse{
		Success: res.SMS.Success,
		Message: message,
		Data: retriedBill{
			BillID:    res.BillID,
			SMSStatus: res.Status,
			Error:     res.SMS.Error,
		},
	})
}

func billID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid bill ID")
		return 0, false
	}
	return id, true
}

// writeServiceError maps workflow errors to status codes. Anything
// unrecognised is logged and answered with fallback and a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrBillNotFound):
		writeError(w, http.StatusNotFound, "Bill not found")
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Invalid status. Must be SENT, FAILED, or PENDING")
	default:
		slog.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
