package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const msg91URL = "https://api.msg91.com/api/sendhttp.php"

// MSG91 sends through the MSG91 HTTP API.
type MSG91 struct {
	APIKey   string
	SenderID string
	Route    string
	// Endpoint overrides the gateway URL; tests point it at httptest.
	Endpoint string
	Client   *http.Client
}

type msg91Response struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (p *MSG91) Name() string { return "MSG91" }

func (p *MSG91) Send(ctx context.Context, phone, message string) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("%w: SMS_API_KEY not configured", ErrNotConfigured)
	}

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = msg91URL
	}
	q := url.Values{}
	q.Set("authkey", p.APIKey)
	q.Set("mobiles", phone)
	q.Set("message", message)
	q.Set("sender", p.SenderID)
	q.Set("route", p.Route)
	q.Set("country", "91")
	q.Set("response", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating msg91 request: %w", err)
	}

	resp, err := httpClient(p.Client).Do(req)
	if err != nil {
		return "", fmt.Errorf("msg91 request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading msg91 response: %w", err)
	}

	var out msg91Response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("msg91: HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if out.Type != "success" {
		if out.Message != "" {
			return "", errors.New(out.Message)
		}
		return "", errors.New("SMS sending failed")
	}
	if out.Message == "" {
		return "SMS_SENT", nil
	}
	return out.Message, nil
}
