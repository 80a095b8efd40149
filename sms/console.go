package sms

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Console logs messages instead of sending them. Used for local development.
type Console struct{}

func (Console) Name() string { return "Console" }

func (Console) Send(_ context.Context, phone, message string) (string, error) {
	id := uuid.NewString()
	slog.Info("SMS (console provider)", "to", phone, "message_id", id, "message", message)
	return id, nil
}
