package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const fast2smsURL = "https://www.fast2sms.com/dev/bulkV2"

// maxBodyBytes caps how much of a gateway response is read.
const maxBodyBytes = 64 * 1024

// Fast2SMS sends through the Fast2SMS bulk API (quick route).
type Fast2SMS struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

type fast2smsRequest struct {
	Route    string `json:"route"`
	Message  string `json:"message"`
	Language string `json:"language"`
	Flash    int    `json:"flash"`
	Numbers  string `json:"numbers"`
}

type fast2smsResponse struct {
	Return    bool            `json:"return"`
	RequestID string          `json:"request_id"`
	MessageID string          `json:"message_id"`
	Message   json.RawMessage `json:"message"` // string or []string depending on outcome
}

func (p *Fast2SMS) Name() string { return "Fast2SMS" }

func (p *Fast2SMS) Send(ctx context.Context, phone, message string) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("%w: FAST2SMS_API_KEY not configured", ErrNotConfigured)
	}

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = fast2smsURL
	}

	payload, err := json.Marshal(fast2smsRequest{
		Route:    "q",
		Message:  message,
		Language: "english",
		Flash:    0,
		Numbers:  phone,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling fast2sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating fast2sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", p.APIKey)

	resp, err := httpClient(p.Client).Do(req)
	if err != nil {
		return "", fmt.Errorf("fast2sms request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading fast2sms response: %w", err)
	}

	var out fast2smsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("fast2sms: HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if !out.Return {
		if msg := gatewayMessage(out.Message); msg != "" {
			return "", errors.New(msg)
		}
		return "", errors.New("SMS sending failed")
	}

	switch {
	case out.MessageID != "":
		return out.MessageID, nil
	case out.RequestID != "":
		return out.RequestID, nil
	}
	return "SMS_SENT", nil
}

// gatewayMessage flattens the "message" field, which Fast2SMS sends either as
// a string or as a list of strings.
func gatewayMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
