// Package validator checks incoming bill and login payloads.
//
// Every field rule is evaluated before returning so the admin UI can show all
// problems at once. The total-vs-items check only runs once the fields are
// individually valid.
package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"shopbilling/models"
)

const (
	minNameLen     = 2
	maxNameLen     = 255
	maxItemNameLen = 255
	minPasswordLen = 6
)

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// maxAmount is the largest price or total the bills table stores
// (NUMERIC(10,2)).
var maxAmount = decimal.RequireFromString("99999999.99")

const (
	maxAmountDigits = 30
	maxAmountExp    = 8
)

// totalTolerance is the largest accepted gap between the submitted total and
// the sum of item prices.
var totalTolerance = decimal.New(1, -2)

// BillInput is the raw create-bill payload. Numbers are kept raw so that a
// non-numeric price becomes a field error instead of a decode failure.
type BillInput struct {
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	Items        []ItemInput     `json:"items"`
	TotalAmount  json.RawMessage `json:"total_amount"`

	// fields that held the wrong JSON type, by json name
	typeErrs map[string]bool
}

// UnmarshalJSON accepts any JSON type in each field and remembers the
// mismatches, so they are reported alongside the other field errors. Only a
// body that is not a JSON object fails to decode.
func (in *BillInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		CustomerName json.RawMessage `json:"customer_name"`
		Phone        json.RawMessage `json:"phone"`
		Items        json.RawMessage `json:"items"`
		TotalAmount  json.RawMessage `json:"total_amount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*in = BillInput{TotalAmount: raw.TotalAmount, typeErrs: map[string]bool{}}
	var ok bool
	if in.CustomerName, ok = stringField(raw.CustomerName); !ok {
		in.typeErrs["customer_name"] = true
	}
	if in.Phone, ok = stringField(raw.Phone); !ok {
		in.typeErrs["phone"] = true
	}
	if !isNull(raw.Items) {
		if err := json.Unmarshal(raw.Items, &in.Items); err != nil {
			in.Items = nil
			in.typeErrs["items"] = true
		}
	}
	return nil
}

type ItemInput struct {
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`

	notObject     bool
	nameNotString bool
}

func (it *ItemInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  json.RawMessage `json:"name"`
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*it = ItemInput{notObject: true}
		return nil
	}
	name, ok := stringField(raw.Name)
	*it = ItemInput{Name: name, Price: raw.Price, nameNotString: !ok}
	return nil
}

type LoginInput struct {
	Password string `json:"password"`

	passwordNotString bool
}

func (in *LoginInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Password json.RawMessage `json:"password"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	password, ok := stringField(raw.Password)
	*in = LoginInput{Password: password, passwordNotString: !ok}
	return nil
}

// ValidationError lists every rule the payload broke.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// ValidateBill returns the normalized bill (trimmed name, prices and total
// rounded to two decimals, status PENDING) or a *ValidationError.
func ValidateBill(in BillInput) (*models.Bill, error) {
	var errs []string

	name := strings.TrimSpace(in.CustomerName)
	switch n := utf8.RuneCountInString(name); {
	case in.typeErrs["customer_name"]:
		errs = append(errs, "Customer name must be a string")
	case n == 0:
		errs = append(errs, "Customer name is required")
	case n < minNameLen:
		errs = append(errs, fmt.Sprintf("Customer name must be at least %d characters", minNameLen))
	case n > maxNameLen:
		errs = append(errs, fmt.Sprintf("Customer name must be at most %d characters", maxNameLen))
	}

	switch {
	case in.typeErrs["phone"]:
		errs = append(errs, "Phone number must be a string")
	case in.Phone == "":
		errs = append(errs, "Phone number is required")
	case !phonePattern.MatchString(in.Phone):
		errs = append(errs, "Invalid phone number (10 digits starting with 6-9)")
	}

	items := make([]models.Item, 0, len(in.Items))
	switch {
	case in.typeErrs["items"]:
		errs = append(errs, "Items must be an array")
	case len(in.Items) == 0:
		errs = append(errs, "At least one item is required")
	}
	for i, it := range in.Items {
		label := fmt.Sprintf("Item %d", i+1)
		if it.notObject {
			errs = append(errs, label+" must be an object")
			continue
		}
		itemName := strings.TrimSpace(it.Name)
		switch {
		case it.nameNotString:
			errs = append(errs, label+" name must be a string")
		case itemName == "":
			errs = append(errs, label+" name is required")
		case utf8.RuneCountInString(itemName) > maxItemNameLen:
			errs = append(errs, fmt.Sprintf("%s name must be at most %d characters", label, maxItemNameLen))
		}
		price, msg := parseAmount(it.Price)
		if msg != "" {
			errs = append(errs, label+" price "+msg)
		}
		items = append(items, models.Item{Name: itemName, Price: price})
	}

	total, msg := parseAmount(in.TotalAmount)
	if msg != "" {
		errs = append(errs, "Total amount "+msg)
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	expected := models.ItemsTotal(items)
	if expected.Sub(total).Abs().GreaterThan(totalTolerance) {
		return nil, &ValidationError{Errors: []string{
			"Total amount mismatch. Expected ₹" + expected.String(),
		}}
	}

	return &models.Bill{
		CustomerName: name,
		Phone:        in.Phone,
		Items:        items,
		TotalAmount:  total,
		SMSStatus:    models.SMSPending,
	}, nil
}

// ValidateLogin checks the shape of a login request and returns the password.
// Whether it is the right password is decided by the auth package.
func ValidateLogin(in LoginInput) (string, error) {
	switch {
	case in.passwordNotString:
		return "", &ValidationError{Errors: []string{"Password must be a string"}}
	case in.Password == "":
		return "", &ValidationError{Errors: []string{"Password is required"}}
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		return "", &ValidationError{Errors: []string{
			fmt.Sprintf("Password must be at least %d characters", minPasswordLen),
		}}
	}
	return in.Password, nil
}

// parseAmount reads a JSON number or numeric string, rounds it to two
// decimals and requires it to be positive and storable. A non-empty message
// means the value was rejected.
func parseAmount(raw json.RawMessage) (decimal.Decimal, string) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return decimal.Zero, "is required"
	}

	text := string(raw)
	if raw[0] == '"' {
		s, err := strconv.Unquote(text)
		if err != nil {
			return decimal.Zero, "must be a number"
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return decimal.Zero, "is required"
		}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, "must be a number"
	}
	// Rounding rescales the coefficient, so huge exponents are refused first.
	switch {
	case d.NumDigits() > maxAmountDigits || d.Exponent() > maxAmountExp:
		return decimal.Zero, "must be a number"
	case d.Exponent() < -(maxAmountDigits + 3):
		// at most maxAmountDigits digits this far right round to zero
		return decimal.Zero, "must be a positive number"
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, "must be a positive number"
	}
	if d.GreaterThan(maxAmount) {
		return decimal.Zero, "must be at most " + maxAmount.StringFixed(2)
	}
	return d, ""
}

// stringField decodes an optional JSON string. Absent and null read as "";
// any other non-string type reports false.
func stringField(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
