package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbilling/models"
)

func decodeBill(t *testing.T, body string) BillInput {
	t.Helper()
	var in BillInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func validationErrors(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Errors
}

func TestValidateBill_AshaRao(t *testing.T) {
	in := decodeBill(t, `{
		"customer_name": "Asha Rao",
		"phone": "9876543210",
		"items": [{"name": "Mop", "price": 120.50}, {"name": "Broom", "price": 75.00}],
		"total_amount": 195.50
	}`)

	bill, err := ValidateBill(in)
	require.NoError(t, err)

	assert.Equal(t, "Asha Rao", bill.CustomerName)
	assert.Equal(t, "9876543210", bill.Phone)
	assert.Equal(t, models.SMSPending, bill.SMSStatus)
	require.Len(t, bill.Items, 2)
	assert.Equal(t, "Mop", bill.Items[0].Name)
	assert.Equal(t, "120.5", bill.Items[0].Price.String())
	assert.Equal(t, "Broom", bill.Items[1].Name)
	assert.True(t, bill.TotalAmount.Equal(models.ItemsTotal(bill.Items)))
}

func TestValidateBill_TotalMismatch(t *testing.T) {
	in := decodeBill(t, `{
		"customer_name": "Asha Rao",
		"phone": "9876543210",
		"items": [{"name": "Mop", "price": 120.50}, {"name": "Broom", "price": 75.00}],
		"total_amount": 200.00
	}`)

	_, err := ValidateBill(in)
	errs := validationErrors(t, err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Total amount mismatch")
	assert.Contains(t, errs[0], "195.5")
}

func TestValidateBill_TotalTolerance(t *testing.T) {
	cases := []struct {
		total string
		ok    bool
	}{
		{"30.00", true},
		{"30.01", true},
		{"29.99", true},
		{"30.02", false},
		{"29.98", false},
		{"30.004", true}, // rounds to 30.00
		{"30.016", false}, // rounds to 30.02
	}
	for _, tc := range cases {
		t.Run(tc.total, func(t *testing.T) {
			in := decodeBill(t, fmt.Sprintf(`{
				"customer_name": "Ravi",
				"phone": "6000000000",
				"items": [{"name": "Soap", "price": 10.10}, {"name": "Oil", "price": 19.90}],
				"total_amount": %s
			}`, tc.total))
			_, err := ValidateBill(in)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				errs := validationErrors(t, err)
				assert.Contains(t, errs[0], "Total amount mismatch")
			}
		})
	}
}

func TestValidateBill_Phone(t *testing.T) {
	bad := []string{
		"5876543210",  // starts with 5
		"987654321",   // 9 digits
		"98765432101", // 11 digits
		"98765-43210",
		"+919876543210",
		"987654321a",
		" 9876543210",
	}
	for _, phone := range bad {
		t.Run(phone, func(t *testing.T) {
			in := BillInput{
				CustomerName: "Asha Rao",
				Phone:        phone,
				Items:        []ItemInput{{Name: "Mop", Price: json.RawMessage(`10`)}},
				TotalAmount:  json.RawMessage(`10`),
			}
			_, err := ValidateBill(in)
			errs := validationErrors(t, err)
			assert.Equal(t, []string{"Invalid phone number (10 digits starting with 6-9)"}, errs)
		})
	}

	for _, phone := range []string{"6000000000", "7123456789", "8999999999", "9876543210"} {
		in := BillInput{
			CustomerName: "Asha Rao",
			Phone:        phone,
			Items:        []ItemInput{{Name: "Mop", Price: json.RawMessage(`10`)}},
			TotalAmount:  json.RawMessage(`10`),
		}
		_, err := ValidateBill(in)
		assert.NoError(t, err, phone)
	}
}

func TestValidateBill_CollectsAllErrors(t *testing.T) {
	in := decodeBill(t, `{
		"customer_name": " A ",
		"phone": "12345",
		"items": [{"name": "", "price": "abc"}, {"name": "Broom", "price": -4}],
		"total_amount": null
	}`)

	_, err := ValidateBill(in)
	errs := validationErrors(t, err)
	assert.Equal(t, []string{
		"Customer name must be at least 2 characters",
		"Invalid phone number (10 digits starting with 6-9)",
		"Item 1 name is required",
		"Item 1 price must be a number",
		"Item 2 price must be a positive number",
		"Total amount is required",
	}, errs)
}

func TestValidateBill_MissingEverything(t *testing.T) {
	_, err := ValidateBill(BillInput{})
	errs := validationErrors(t, err)
	assert.Equal(t, []string{
		"Customer name is required",
		"Phone number is required",
		"At least one item is required",
		"Total amount is required",
	}, errs)
}

func TestValidateBill_MismatchOnlyAfterFieldsPass(t *testing.T) {
	// A bad phone plus a wrong total must report the phone only.
	in := decodeBill(t, `{
		"customer_name": "Asha Rao",
		"phone": "123",
		"items": [{"name": "Mop", "price": 10}],
		"total_amount": 99
	}`)
	_, err := ValidateBill(in)
	errs := validationErrors(t, err)
	assert.Equal(t, []string{"Invalid phone number (10 digits starting with 6-9)"}, errs)
}

func TestValidateBill_NumericStringsAndNameBounds(t *testing.T) {
	in := decodeBill(t, `{
		"customer_name": "  Meena  ",
		"phone": "9123456789",
		"items": [{"name": "Bucket", "price": "99.99"}],
		"total_amount": "99.99"
	}`)
	bill, err := ValidateBill(in)
	require.NoError(t, err)
	assert.Equal(t, "Meena", bill.CustomerName)
	assert.Equal(t, "99.99", bill.TotalAmount.StringFixed(2))

	long := BillInput{
		CustomerName: strings.Repeat("a", 256),
		Phone:        "9123456789",
		Items:        []ItemInput{{Name: strings.Repeat("b", 256), Price: json.RawMessage(`1`)}},
		TotalAmount:  json.RawMessage(`1`),
	}
	_, err = ValidateBill(long)
	errs := validationErrors(t, err)
	assert.Equal(t, []string{
		"Customer name must be at most 255 characters",
		"Item 1 name must be at most 255 characters",
	}, errs)
}

func TestValidateBill_HugeExponentRejectedQuickly(t *testing.T) {
	for _, price := range []string{`1e10000000`, `"1e10000000"`, `-1e10000000`, `1e-10000000`} {
		t.Run(price, func(t *testing.T) {
			in := decodeBill(t, `{
				"customer_name": "Asha Rao",
				"phone": "9876543210",
				"items": [{"name": "Mop", "price": `+price+`}],
				"total_amount": `+price+`
			}`)

			start := time.Now()
			_, err := ValidateBill(in)
			elapsed := time.Since(start)

			errs := validationErrors(t, err)
			require.Len(t, errs, 2)
			assert.Contains(t, errs[0], "Item 1 price must be a")
			assert.Contains(t, errs[1], "Total amount must be a")
			assert.Less(t, elapsed, 100*time.Millisecond)
		})
	}
}

func TestValidateBill_AmountCap(t *testing.T) {
	in := decodeBill(t, `{
		"customer_name": "Asha Rao",
		"phone": "9876543210",
		"items": [{"name": "Tractor", "price": 100000000}],
		"total_amount": "100000000.00"
	}`)
	_, err := ValidateBill(in)
	assert.Equal(t, []string{
		"Item 1 price must be at most 99999999.99",
		"Total amount must be at most 99999999.99",
	}, validationErrors(t, err))

	in = decodeBill(t, `{
		"customer_name": "Asha Rao",
		"phone": "9876543210",
		"items": [{"name": "Tractor", "price": 99999999.99}],
		"total_amount": 9.999999999e7
	}`)
	bill, err := ValidateBill(in)
	require.NoError(t, err)
	assert.Equal(t, "99999999.99", bill.TotalAmount.StringFixed(2))
}

func TestValidateBill_WrongJSONTypes(t *testing.T) {
	in := decodeBill(t, `{
		"customer_name": 42,
		"phone": 9876543210,
		"items": [{"name": "", "price": -1}, "Broom", {"name": 7, "price": 5}],
		"total_amount": 0
	}`)
	_, err := ValidateBill(in)
	assert.Equal(t, []string{
		"Customer name must be a string",
		"Phone number must be a string",
		"Item 1 name is required",
		"Item 1 price must be a positive number",
		"Item 2 must be an object",
		"Item 3 name must be a string",
		"Total amount must be a positive number",
	}, validationErrors(t, err))

	in = decodeBill(t, `{
		"customer_name": "Asha Rao",
		"phone": "9876543210",
		"items": {"name": "Mop", "price": 10},
		"total_amount": 10
	}`)
	_, err = ValidateBill(in)
	assert.Equal(t, []string{"Items must be an array"}, validationErrors(t, err))

	var notObject BillInput
	assert.Error(t, json.Unmarshal([]byte(`["Asha Rao"]`), &notObject))
}

func TestValidateLogin(t *testing.T) {
	_, err := ValidateLogin(LoginInput{})
	assert.Equal(t, []string{"Password is required"}, validationErrors(t, err))

	_, err = ValidateLogin(LoginInput{Password: "abc"})
	assert.Equal(t, []string{"Password must be at least 6 characters"}, validationErrors(t, err))

	var in LoginInput
	require.NoError(t, json.Unmarshal([]byte(`{"password": 123456}`), &in))
	_, err = ValidateLogin(in)
	assert.Equal(t, []string{"Password must be a string"}, validationErrors(t, err))

	pw, err := ValidateLogin(LoginInput{Password: "wrong-but-long"})
	require.NoError(t, err)
	assert.Equal(t, "wrong-but-long", pw)
}
