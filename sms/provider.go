// Package sms formats bill receipts and delivers them through a configured
// SMS gateway.
package sms

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"shopbilling/config"
)

// ErrNotConfigured is returned by a provider whose credentials are missing.
var ErrNotConfigured = errors.New("sms provider not configured")

// DefaultTimeout bounds a single gateway call.
const DefaultTimeout = 10 * time.Second

// Provider delivers one message to one phone number. Implementations return
// the gateway's message id on success.
type Provider interface {
	Name() string
	Send(ctx context.Context, phone, message string) (string, error)
}

// NewProvider picks the gateway named by cfg.Provider. Unknown names fall
// back to MSG91.
func NewProvider(cfg config.SMSConfig) Provider {
	client := &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)}

	switch cfg.Provider {
	case "fast2sms":
		return &Fast2SMS{APIKey: cfg.Fast2SMSAPIKey, Client: client}
	case "console":
		return &Console{}
	case "msg91", "":
	default:
		slog.Warn("Unknown SMS_PROVIDER, falling back to msg91", "provider", cfg.Provider)
	}
	return &MSG91{
		APIKey:   cfg.MSG91APIKey,
		SenderID: cfg.MSG91SenderID,
		Route:    cfg.MSG91Route,
		Client:   client,
	}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

// truncate limits a string to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
