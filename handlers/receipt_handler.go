package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"shopbilling/repository"
	"shopbilling/utils"
)

// ReceiptUploader stores a rendered receipt and returns where it can be read.
type ReceiptUploader interface {
	Upload(ctx context.Context, data []byte, key string) (string, error)
}

type ReceiptHandler struct {
	Repo     *repository.ReceiptRepository
	Renderer utils.PDFRenderer
	Uploader ReceiptUploader // nil when R2 is not configured
}

// Receipt prints bill {id} as a PDF. With ?upload=true the PDF is pushed to
// object storage and its URL returned instead.
func (h *ReceiptHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := billID(w, r)
	if !ok {
		return
	}

	upload := r.URL.Query().Get("upload") == "true"
	if upload && h.Uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Receipt storage is not configured")
		return
	}

	pdf, _, err := utils.GenerateReceiptPDF(r.Context(), h.Repo, h.Renderer, id)
	if errors.Is(err, repository.ErrBillNotFound) {
		writeError(w, http.StatusNotFound, "Bill not found")
		return
	}
	if err != nil {
		slog.Error("Failed to generate receipt", "bill_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate receipt")
		return
	}

	if upload {
		url, err := h.Uploader.Upload(r.Context(), pdf, utils.ReceiptKey(id, time.Now()))
		if err != nil {
			slog.Error("Failed to upload receipt", "bill_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to upload receipt")
			return
		}
		slog.Info("Receipt uploaded", "bill_id", id, "url", url)
		writeJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Receipt uploaded", URL: url})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="bill_%d.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
