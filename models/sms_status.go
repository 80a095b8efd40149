package models

import (
	"fmt"
	"strings"
)

// SMSStatus tracks whether the customer was notified about a bill.
// PENDING is only ever written at creation.
type SMSStatus string

const (
	SMSPending SMSStatus = "PENDING"
	SMSSent    SMSStatus = "SENT"
	SMSFailed  SMSStatus = "FAILED"
)

func (s SMSStatus) String() string {
	return string(s)
}

func (s SMSStatus) Valid() bool {
	return s == SMSPending || s == SMSSent || s == SMSFailed
}

// ParseSMSStatus accepts any casing ("sent", "Failed") and returns the
// canonical status.
func ParseSMSStatus(raw string) (SMSStatus, error) {
	s := SMSStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid sms status %q", raw)
	}
	return s, nil
}
